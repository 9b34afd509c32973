package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/doc-inspector/webclient/internal/config"
	"github.com/doc-inspector/webclient/internal/controller"
	"github.com/doc-inspector/webclient/internal/page"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultMaxPages limits concurrent pages to bound memory held by selected files.
const DefaultMaxPages = 50

// PageKeepAliveWindow is how long a recently used page is protected from cleanup.
const PageKeepAliveWindow = 5 * time.Minute

var (
	// ErrPageNotFound is returned for unknown page ids.
	ErrPageNotFound = errors.New("page not found")
	// ErrTooManyPages is returned when every page slot is busy.
	ErrTooManyPages = errors.New("too many open pages")
)

// Entry is an open page together with the controller behind its submit button.
type Entry struct {
	Page         *page.Page
	Controller   *controller.Controller
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Manager keeps one inspection page per browser tab.
type Manager struct {
	mu        sync.RWMutex
	pages     map[string]*Entry
	catalog   *config.FilterCatalog
	inspector controller.Inspector
	objects   controller.ObjectURLs
	maxPages  int
	logger    zerolog.Logger
}

// NewManager creates a page manager. Pages share the inspector and object store.
func NewManager(catalog *config.FilterCatalog, inspector controller.Inspector, objects controller.ObjectURLs, maxPages int, logger zerolog.Logger) *Manager {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Manager{
		pages:     make(map[string]*Entry),
		catalog:   catalog,
		inspector: inspector,
		objects:   objects,
		maxPages:  maxPages,
		logger:    logger,
	}
}

// CreatePage opens a new page seeded with the filter catalog.
func (m *Manager) CreatePage() (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pages) >= m.maxPages && !m.evictOldestLocked() {
		return nil, ErrTooManyPages
	}

	id := uuid.New().String()
	p := page.New(id, m.catalog.Filters, m.objects.RevokeObjectURL)
	pageLogger := m.logger.With().Str("page", id[:8]).Logger()

	now := time.Now()
	entry := &Entry{
		Page:         p,
		Controller:   controller.New(p.Handles(), m.inspector, m.objects, pageLogger),
		CreatedAt:    now,
		LastAccessed: now,
	}
	m.pages[id] = entry

	pageLogger.Info().Int("open_pages", len(m.pages)).Msg("page created")
	return entry, nil
}

// evictOldestLocked closes the least recently used idle page.
func (m *Manager) evictOldestLocked() bool {
	var candidates []*Entry
	for _, e := range m.pages {
		if !e.Controller.InFlight() {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return false
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].LastAccessed.Before(candidates[j].LastAccessed)
	})
	victim := candidates[0]
	m.removeLocked(victim.Page.ID())
	m.logger.Info().Str("page", victim.Page.ID()[:8]).Msg("evicted least recently used page")
	return true
}

// Get returns an open page and marks it as used.
func (m *Manager) Get(id string) (*Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.pages[id]
	if !ok {
		return nil, false
	}
	e.LastAccessed = time.Now()
	return e, true
}

// Touch updates the LastAccessed timestamp for a page.
func (m *Manager) Touch(id string) bool {
	_, ok := m.Get(id)
	return ok
}

// Delete closes a page and releases its result image.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pages[id]; !ok {
		return ErrPageNotFound
	}
	m.removeLocked(id)
	return nil
}

func (m *Manager) removeLocked(id string) {
	if e, ok := m.pages[id]; ok {
		e.Page.Close()
		delete(m.pages, id)
	}
}

// CleanupOldPages closes idle pages not accessed within maxAge.
// Pages with a submission in flight or used within PageKeepAliveWindow are kept.
func (m *Manager) CleanupOldPages(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-PageKeepAliveWindow)

	removed := 0
	for id, e := range m.pages {
		if e.Controller.InFlight() {
			continue
		}
		if e.LastAccessed.After(keepAliveCutoff) || e.LastAccessed.After(cutoff) {
			continue
		}
		m.removeLocked(id)
		removed++
		m.logger.Info().Str("page", id[:8]).
			Dur("idle", time.Since(e.LastAccessed).Round(time.Second)).
			Msg("cleaned up aged page")
	}
	return removed
}

// Count returns the number of open pages.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pages)
}

// Catalog returns the filter catalog pages are seeded from.
func (m *Manager) Catalog() *config.FilterCatalog {
	return m.catalog
}

// CloseAll closes every page.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id := range m.pages {
		m.removeLocked(id)
	}
}
