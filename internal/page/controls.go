package page

import "github.com/doc-inspector/webclient/internal/models"

// FileInput exposes the selected file.
type FileInput struct {
	page *Page
}

func (f *FileInput) SelectedFile() (*models.SelectedFile, bool) {
	f.page.mu.RLock()
	defer f.page.mu.RUnlock()
	return f.page.file, f.page.file != nil
}

// Button is the submit control.
type Button struct {
	page *Page
}

func (b *Button) Enabled() bool {
	b.page.mu.RLock()
	defer b.page.mu.RUnlock()
	return b.page.submitEnabled
}

func (b *Button) SetEnabled(enabled bool) {
	b.page.mutate(func() {
		b.page.submitEnabled = enabled
	})
}

// StatusText is the status line.
type StatusText struct {
	page *Page
}

func (s *StatusText) SetStatus(status models.Status) {
	s.page.mutate(func() {
		s.page.status = status
	})
}

// ImageView is the result image.
type ImageView struct {
	page *Page
}

func (i *ImageView) Source() string {
	i.page.mu.RLock()
	defer i.page.mu.RUnlock()
	return i.page.imageSrc
}

func (i *ImageView) SetSource(src string) {
	p := i.page

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		if src != "" {
			p.release(src)
		}
		return
	}
	p.imageSrc = src
	state := p.commitLocked()
	p.mu.Unlock()

	p.broadcast(state)
}

// Checkbox is one filter toggle.
type Checkbox struct {
	page  *Page
	index int
}

func (c *Checkbox) Checked() bool {
	c.page.mu.RLock()
	defer c.page.mu.RUnlock()
	return c.page.filters[c.index].Checked
}

func (c *Checkbox) Value() string {
	c.page.mu.RLock()
	defer c.page.mu.RUnlock()
	return c.page.filters[c.index].ID
}
