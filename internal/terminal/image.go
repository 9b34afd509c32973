package terminal

import (
	"fmt"
	"os"
	"sync"

	"github.com/doc-inspector/webclient/internal/storage"
)

// ImageFile is an image control that writes every displayed image to a file.
type ImageFile struct {
	mu      sync.Mutex
	path    string
	store   storage.Store
	src     string
	written int
	err     error
}

// NewImageFile creates an image sink saving results to path.
func NewImageFile(path string, store storage.Store) *ImageFile {
	return &ImageFile{path: path, store: store}
}

// Source implements controller.ImageSink.
func (f *ImageFile) Source() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.src
}

// SetSource implements controller.ImageSink. Clearing the image leaves the
// previously written file in place.
func (f *ImageFile) SetSource(src string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.src = src
	if src == "" {
		return
	}

	_, data, err := f.store.Resolve(src)
	if err != nil {
		f.err = fmt.Errorf("resolve result image: %w", err)
		return
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		f.err = fmt.Errorf("write result image: %w", err)
		return
	}
	f.written++
	f.err = nil
}

// Path returns the output file path.
func (f *ImageFile) Path() string {
	return f.path
}

// Written reports how many images were saved.
func (f *ImageFile) Written() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written
}

// Err returns the error from the last save, if any.
func (f *ImageFile) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}
