// Package terminal provides the command-line rendition of the inspection
// page controls: a file read from disk, a button, checkbox flags, a spinner
// status line and an image written to an output file.
package terminal

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/doc-inspector/webclient/internal/config"
	"github.com/doc-inspector/webclient/internal/controller"
	"github.com/doc-inspector/webclient/internal/models"
)

// ReadFile loads a file from disk. The content type comes from the extension,
// falling back to sniffing the first bytes.
func ReadFile(path string) (*models.SelectedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &models.SelectedFile{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// FileSource is a file input holding at most one file.
type FileSource struct {
	file *models.SelectedFile
}

// NewFileSource returns a source for file. A nil file means nothing is selected.
func NewFileSource(file *models.SelectedFile) *FileSource {
	return &FileSource{file: file}
}

// SelectedFile implements controller.FileSource.
func (s *FileSource) SelectedFile() (*models.SelectedFile, bool) {
	return s.file, s.file != nil
}

// Button is an in-memory submit control.
type Button struct {
	mu       sync.Mutex
	disabled bool
}

// Enabled implements controller.Trigger.
func (b *Button) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.disabled
}

// SetEnabled implements controller.Trigger.
func (b *Button) SetEnabled(enabled bool) {
	b.mu.Lock()
	b.disabled = !enabled
	b.mu.Unlock()
}

// Checkbox is a fixed filter toggle.
type Checkbox struct {
	id      string
	checked bool
}

// NewCheckbox returns a toggle for the filter id.
func NewCheckbox(id string, checked bool) Checkbox {
	return Checkbox{id: id, checked: checked}
}

// Value implements controller.FilterToggle.
func (c Checkbox) Value() string { return c.id }

// Checked implements controller.FilterToggle.
func (c Checkbox) Checked() bool { return c.checked }

// Checkboxes builds one toggle per catalog entry. Without explicit ids the
// catalog defaults are used. Unknown ids are rejected.
func Checkboxes(catalog *config.FilterCatalog, ids []string) ([]controller.FilterToggle, error) {
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !catalog.Has(id) {
			return nil, fmt.Errorf("unknown filter %q (known: %v)", id, catalog.IDs())
		}
		selected[id] = true
	}

	toggles := make([]controller.FilterToggle, len(catalog.Filters))
	for i, f := range catalog.Filters {
		checked := f.Checked
		if len(ids) > 0 {
			checked = selected[f.ID]
		}
		toggles[i] = NewCheckbox(f.ID, checked)
	}
	return toggles, nil
}
