// Package page models the controls of one inspection page: the file input,
// the submit button, the status line, the result image and the filter
// checkboxes. All state is guarded by the page and every change is broadcast
// to subscribers as a snapshot.
package page

import (
	"fmt"
	"sync"
	"time"

	"github.com/doc-inspector/webclient/internal/controller"
	"github.com/doc-inspector/webclient/internal/models"
)

// ReleaseFunc releases an image reference the page no longer displays.
type ReleaseFunc func(ref string)

// Page is the server-side state of a single browser page.
type Page struct {
	id      string
	release ReleaseFunc

	mu            sync.RWMutex
	file          *models.SelectedFile
	submitEnabled bool
	status        models.Status
	imageSrc      string
	filters       []models.Filter
	version       uint64
	updatedAt     time.Time
	closed        bool

	subMu     sync.Mutex
	nextSubID int
	subs      map[int]chan models.PageState
}

// New creates a page with the submit control enabled and filters seeded
// from the given catalog entries.
func New(id string, filters []models.Filter, release ReleaseFunc) *Page {
	fs := make([]models.Filter, len(filters))
	copy(fs, filters)

	if release == nil {
		release = func(string) {}
	}

	return &Page{
		id:            id,
		release:       release,
		submitEnabled: true,
		status:        models.IdleStatus(),
		filters:       fs,
		updatedAt:     time.Now(),
		subs:          make(map[int]chan models.PageState),
	}
}

// ID returns the page id.
func (p *Page) ID() string {
	return p.id
}

// Handles returns the controls in the shape the controller drives.
func (p *Page) Handles() controller.Handles {
	p.mu.RLock()
	toggles := make([]controller.FilterToggle, len(p.filters))
	for i := range p.filters {
		toggles[i] = &Checkbox{page: p, index: i}
	}
	p.mu.RUnlock()

	return controller.Handles{
		File:    &FileInput{page: p},
		Trigger: &Button{page: p},
		Status:  &StatusText{page: p},
		Image:   &ImageView{page: p},
		Filters: toggles,
	}
}

// SelectFile replaces the selected file.
func (p *Page) SelectFile(file *models.SelectedFile) {
	p.mutate(func() {
		p.file = file
	})
}

// HasFile reports whether a file is selected.
func (p *Page) HasFile() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.file != nil
}

// ClearFile empties the file input.
func (p *Page) ClearFile() {
	p.mutate(func() {
		p.file = nil
	})
}

// SetFilter checks or unchecks the filter with the given id.
func (p *Page) SetFilter(id string, checked bool) error {
	var found bool
	p.mutate(func() {
		for i := range p.filters {
			if p.filters[i].ID == id {
				p.filters[i].Checked = checked
				found = true
				return
			}
		}
	})
	if !found {
		return fmt.Errorf("unknown filter: %s", id)
	}
	return nil
}

// Snapshot returns a copy of the page state.
func (p *Page) Snapshot() models.PageState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

func (p *Page) snapshotLocked() models.PageState {
	filters := make([]models.Filter, len(p.filters))
	copy(filters, p.filters)

	state := models.PageState{
		ID:            p.id,
		Status:        p.status,
		ImageSrc:      p.imageSrc,
		SubmitEnabled: p.submitEnabled,
		Filters:       filters,
		Version:       p.version,
		UpdatedAt:     p.updatedAt,
	}
	if p.file != nil {
		state.FileName = p.file.Name
		state.FileSize = p.file.Size()
	}
	return state
}

// Subscribe returns a channel receiving the latest snapshot after each change.
// Slow readers only see the most recent state. The cancel func must be called.
func (p *Page) Subscribe() (<-chan models.PageState, func()) {
	ch := make(chan models.PageState, 1)

	p.subMu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subs[id] = ch
	p.subMu.Unlock()

	cancel := func() {
		p.subMu.Lock()
		defer p.subMu.Unlock()
		if _, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Close releases the displayed image and ends all subscriptions. Images set
// after Close are released immediately.
func (p *Page) Close() {
	p.mu.Lock()
	p.closed = true
	src := p.imageSrc
	p.imageSrc = ""
	p.mu.Unlock()

	if src != "" {
		p.release(src)
	}

	p.subMu.Lock()
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
	p.subMu.Unlock()
}

// mutate applies fn under the page lock and broadcasts the new state.
func (p *Page) mutate(fn func()) {
	p.mu.Lock()
	fn()
	state := p.commitLocked()
	p.mu.Unlock()

	p.broadcast(state)
}

// commitLocked bumps the version and returns the new snapshot.
func (p *Page) commitLocked() models.PageState {
	p.version++
	p.updatedAt = time.Now()
	return p.snapshotLocked()
}

func (p *Page) broadcast(state models.PageState) {
	p.subMu.Lock()
	defer p.subMu.Unlock()

	for _, ch := range p.subs {
		// drop the stale snapshot if the reader has not caught up
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
		}
	}
}
