package models

// SelectedFile is the document picked by the user. It lives only in memory
// until it is submitted.
type SelectedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file length in bytes.
func (f *SelectedFile) Size() int64 {
	return int64(len(f.Data))
}
