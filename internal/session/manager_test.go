package session

import (
	"context"
	"testing"
	"time"

	"github.com/doc-inspector/webclient/internal/config"
	"github.com/doc-inspector/webclient/internal/inspect"
	"github.com/doc-inspector/webclient/internal/models"
	"github.com/doc-inspector/webclient/internal/storage"
	"github.com/doc-inspector/webclient/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, maxPages int) (*Manager, *storage.ObjectStore, *testutil.InspectServer) {
	t.Helper()

	srv := testutil.NewInspectServer(t, testutil.PNGReply([]byte("annotated")))
	client, err := inspect.NewClient(srv.Endpoint())
	require.NoError(t, err)

	objects := storage.NewObjectStore("/api/objects/")
	m := NewManager(config.DefaultFilterCatalog(), client, objects, maxPages, zerolog.Nop())
	return m, objects, srv
}

func TestCreatePage(t *testing.T) {
	m, _, _ := newTestManager(t, 5)

	entry, err := m.CreatePage()
	require.NoError(t, err)

	state := entry.Page.Snapshot()
	assert.Len(t, state.Filters, 4)
	assert.True(t, state.SubmitEnabled)

	got, ok := m.Get(entry.Page.ID())
	require.True(t, ok)
	assert.Same(t, entry, got)
	assert.Equal(t, 1, m.Count())
}

func TestCreatePage_EvictsLeastRecentlyUsed(t *testing.T) {
	m, _, _ := newTestManager(t, 2)

	first, err := m.CreatePage()
	require.NoError(t, err)
	second, err := m.CreatePage()
	require.NoError(t, err)

	first.LastAccessed = time.Now().Add(-time.Hour)

	_, err = m.CreatePage()
	require.NoError(t, err)

	_, ok := m.Get(first.Page.ID())
	assert.False(t, ok, "oldest page should be evicted")
	_, ok = m.Get(second.Page.ID())
	assert.True(t, ok)
	assert.Equal(t, 2, m.Count())
}

func TestCreatePage_AllBusy(t *testing.T) {
	m, _, srv := newTestManager(t, 1)
	release := srv.HoldRequests()

	entry, err := m.CreatePage()
	require.NoError(t, err)
	entry.Page.SelectFile(&models.SelectedFile{Name: "a.png", ContentType: "image/png", Data: []byte("x")})

	done := make(chan error, 1)
	go func() { done <- entry.Controller.Submit(context.Background()) }()
	require.Eventually(t, func() bool { return srv.RequestCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	_, err = m.CreatePage()
	assert.ErrorIs(t, err, ErrTooManyPages)

	release()
	require.NoError(t, <-done)
}

func TestDelete(t *testing.T) {
	m, objects, _ := newTestManager(t, 5)

	entry, err := m.CreatePage()
	require.NoError(t, err)
	entry.Page.SelectFile(&models.SelectedFile{Name: "a.png", ContentType: "image/png", Data: []byte("x")})
	require.NoError(t, entry.Controller.Submit(context.Background()))
	require.Equal(t, 1, objects.Len())

	require.NoError(t, m.Delete(entry.Page.ID()))
	assert.Equal(t, 0, objects.Len(), "page result is released")
	assert.ErrorIs(t, m.Delete(entry.Page.ID()), ErrPageNotFound)
	assert.False(t, m.Touch(entry.Page.ID()))
}

func TestCleanupOldPages(t *testing.T) {
	m, _, _ := newTestManager(t, 5)

	stale, err := m.CreatePage()
	require.NoError(t, err)
	fresh, err := m.CreatePage()
	require.NoError(t, err)

	stale.LastAccessed = time.Now().Add(-2 * time.Hour)

	removed := m.CleanupOldPages(30 * time.Minute)
	assert.Equal(t, 1, removed)

	_, ok := m.Get(stale.Page.ID())
	assert.False(t, ok)
	_, ok = m.Get(fresh.Page.ID())
	assert.True(t, ok)
}

func TestCloseAll(t *testing.T) {
	m, _, _ := newTestManager(t, 5)
	for i := 0; i < 3; i++ {
		_, err := m.CreatePage()
		require.NoError(t, err)
	}

	m.CloseAll()
	assert.Equal(t, 0, m.Count())
}
