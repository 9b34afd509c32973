package models

import "time"

// ResultObject is a stored result image addressable by a local reference.
type ResultObject struct {
	ID          string    `json:"id"`
	Ref         string    `json:"ref"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}
