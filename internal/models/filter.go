package models

// Filter is one detection class the inspection service can be asked to draw.
type Filter struct {
	ID      string `json:"id" yaml:"id" msgpack:"id"`
	Label   string `json:"label" yaml:"label" msgpack:"label"`
	Checked bool   `json:"checked" yaml:"checked" msgpack:"checked"`
}
