package models

import "time"

// PageState is a point-in-time snapshot of an inspection page.
type PageState struct {
	ID            string    `json:"id" msgpack:"id"`
	Status        Status    `json:"status" msgpack:"status"`
	ImageSrc      string    `json:"imageSrc" msgpack:"imageSrc"`
	SubmitEnabled bool      `json:"submitEnabled" msgpack:"submitEnabled"`
	FileName      string    `json:"fileName,omitempty" msgpack:"fileName,omitempty"`
	FileSize      int64     `json:"fileSize,omitempty" msgpack:"fileSize,omitempty"`
	Filters       []Filter  `json:"filters" msgpack:"filters"`
	Version       uint64    `json:"version" msgpack:"version"`
	UpdatedAt     time.Time `json:"updatedAt" msgpack:"updatedAt"`
}
