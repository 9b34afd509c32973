package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/doc-inspector/webclient/internal/models"
	"github.com/doc-inspector/webclient/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestPageHandler_CreateAndGet(t *testing.T) {
	env := newTestEnv(t, testutil.PNGReply([]byte("img")))

	created := env.createPage(t)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.SubmitEnabled)
	assert.Equal(t, models.PhaseIdle, created.Status.Phase)
	assert.Len(t, created.Filters, 4)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/pages/"+created.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeState(t, rec).ID)
}

func TestPageHandler_UnknownPage(t *testing.T) {
	env := newTestEnv(t, testutil.PNGReply([]byte("img")))

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/pages/nope", nil),
		httptest.NewRequest(http.MethodGet, "/api/pages/nope/state/msgpack", nil),
		httptest.NewRequest(http.MethodPost, "/api/pages/nope/submit", nil),
		httptest.NewRequest(http.MethodPost, "/api/pages/nope/keepalive", nil),
		httptest.NewRequest(http.MethodDelete, "/api/pages/nope", nil),
	} {
		rec := env.do(req)
		assert.Equal(t, http.StatusNotFound, rec.Code, req.URL.Path)
		assert.Equal(t, "NOT_FOUND", decodeAPIError(t, rec).Code)
	}
}

func TestPageHandler_Msgpack(t *testing.T) {
	env := newTestEnv(t, testutil.PNGReply([]byte("img")))
	page := env.createPage(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/pages/"+page.ID+"/state/msgpack", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/msgpack", rec.Header().Get("Content-Type"))

	var state models.PageState
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, page.ID, state.ID)
	assert.Equal(t, page.Filters, state.Filters)
}

func TestPageHandler_SetFilter(t *testing.T) {
	env := newTestEnv(t, testutil.PNGReply([]byte("img")))
	page := env.createPage(t)

	tests := []struct {
		name       string
		filterID   string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "uncheck", filterID: "stamp", body: `{"checked": false}`, wantStatus: http.StatusOK},
		{name: "check", filterID: "text", body: `{"checked": true}`, wantStatus: http.StatusOK},
		{name: "unknown filter", filterID: "barcode", body: `{"checked": true}`, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "missing field", filterID: "stamp", body: `{}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "bad json", filterID: "stamp", body: `{`, wantStatus: http.StatusBadRequest, wantCode: "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.setFilter(page.ID, tt.filterID, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeAPIError(t, rec).Code)
			}
		})
	}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/pages/"+page.ID, nil))
	checked := map[string]bool{}
	for _, f := range decodeState(t, rec).Filters {
		checked[f.ID] = f.Checked
	}
	assert.Equal(t, map[string]bool{"Signature": true, "stamp": false, "qr-code": true, "text": true}, checked)
}

func TestPageHandler_SubmitWithoutFile(t *testing.T) {
	env := newTestEnv(t, testutil.PNGReply([]byte("img")))
	page := env.createPage(t)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/pages/"+page.ID+"/submit", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	state := decodeState(t, rec)
	assert.Equal(t, models.Status{Phase: models.PhaseError, Message: models.MsgNoFile}, state.Status)
	assert.True(t, state.SubmitEnabled)
	assert.Equal(t, 0, env.inspect.RequestCount())
}

func TestPageHandler_SubmitWait(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nannotated")
	env := newTestEnv(t, testutil.PNGReply(png))
	page := env.createPage(t)

	require.Equal(t, http.StatusOK, env.selectFile(t, page.ID, "scan.jpg", "image/jpeg", []byte("jpeg-bytes")).Code)
	require.Equal(t, http.StatusOK, env.setFilter(page.ID, "qr-code", `{"checked": false}`).Code)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/pages/"+page.ID+"/submit?wait=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	state := decodeState(t, rec)
	assert.Equal(t, models.Status{Phase: models.PhaseSuccess, Message: models.MsgDone}, state.Status)
	assert.True(t, state.SubmitEnabled)
	require.NotEmpty(t, state.ImageSrc)

	reqs := env.inspect.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{"Signature", "stamp"}, reqs[0].Find)
	assert.Equal(t, "scan.jpg", reqs[0].FileName)
	assert.Equal(t, "image/jpeg", reqs[0].FileContentType)

	img := env.do(httptest.NewRequest(http.MethodGet, state.ImageSrc, nil))
	require.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, "image/png", img.Header().Get("Content-Type"))
	assert.Equal(t, png, img.Body.Bytes())
}

func TestPageHandler_SubmitServerError(t *testing.T) {
	env := newTestEnv(t, testutil.JSONReply(http.StatusBadRequest, `{"detail": "bad format"}`))
	page := env.createPage(t)
	env.selectFile(t, page.ID, "notes.txt", "text/plain", []byte("hello"))

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/pages/"+page.ID+"/submit?wait=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	state := decodeState(t, rec)
	assert.Equal(t, models.Status{Phase: models.PhaseError, Message: "❌ Ошибка: bad format"}, state.Status)
	assert.Empty(t, state.ImageSrc)
	assert.True(t, state.SubmitEnabled)
}

func TestPageHandler_SubmitAsyncAndBusy(t *testing.T) {
	env := newTestEnv(t, testutil.PNGReply([]byte("img")))
	release := env.inspect.HoldRequests()
	page := env.createPage(t)
	env.selectFile(t, page.ID, "scan.png", "image/png", []byte("png"))

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/pages/"+page.ID+"/submit", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool { return env.inspect.RequestCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	get := env.do(httptest.NewRequest(http.MethodGet, "/api/pages/"+page.ID, nil))
	inFlight := decodeState(t, get)
	assert.False(t, inFlight.SubmitEnabled)
	assert.Equal(t, models.PhaseInProgress, inFlight.Status.Phase)

	for _, path := range []string{"/submit", "/submit?wait=true"} {
		busy := env.do(httptest.NewRequest(http.MethodPost, "/api/pages/"+page.ID+path, nil))
		assert.Equal(t, http.StatusConflict, busy.Code)
		assert.Equal(t, "BUSY", decodeAPIError(t, busy).Code)
	}

	release()

	require.Eventually(t, func() bool {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/api/pages/"+page.ID, nil))
		state := decodeState(t, rec)
		return state.SubmitEnabled && state.Status.Phase == models.PhaseSuccess
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, env.inspect.RequestCount())
}

func TestPageHandler_BackToBackAsyncSubmits(t *testing.T) {
	env := newTestEnv(t, testutil.PNGReply([]byte("img")))
	release := env.inspect.HoldRequests()
	page := env.createPage(t)
	env.selectFile(t, page.ID, "scan.png", "image/png", []byte("png"))

	first := env.do(httptest.NewRequest(http.MethodPost, "/api/pages/"+page.ID+"/submit", nil))
	second := env.do(httptest.NewRequest(http.MethodPost, "/api/pages/"+page.ID+"/submit", nil))

	require.Equal(t, http.StatusAccepted, first.Code)
	assert.False(t, decodeState(t, first).SubmitEnabled, "trigger is disabled before 202 is sent")
	require.Equal(t, http.StatusConflict, second.Code)
	assert.Equal(t, "BUSY", decodeAPIError(t, second).Code)

	release()
	require.Eventually(t, func() bool {
		state := decodeState(t, env.do(httptest.NewRequest(http.MethodGet, "/api/pages/"+page.ID, nil)))
		return state.SubmitEnabled && state.Status.Phase == models.PhaseSuccess
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, env.inspect.RequestCount())
}

func TestPageHandler_ResubmitReleasesPreviousImage(t *testing.T) {
	env := newTestEnv(t, testutil.PNGReply([]byte("second")))
	env.inspect.Enqueue(testutil.PNGReply([]byte("first")))
	page := env.createPage(t)
	env.selectFile(t, page.ID, "scan.png", "image/png", []byte("png"))

	first := decodeState(t, env.do(httptest.NewRequest(http.MethodPost, "/api/pages/"+page.ID+"/submit?wait=true", nil)))
	second := decodeState(t, env.do(httptest.NewRequest(http.MethodPost, "/api/pages/"+page.ID+"/submit?wait=true", nil)))

	require.NotEmpty(t, first.ImageSrc)
	require.NotEmpty(t, second.ImageSrc)
	assert.NotEqual(t, first.ImageSrc, second.ImageSrc)

	assert.Equal(t, http.StatusNotFound, env.do(httptest.NewRequest(http.MethodGet, first.ImageSrc, nil)).Code)
	ok := env.do(httptest.NewRequest(http.MethodGet, second.ImageSrc, nil))
	require.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "second", ok.Body.String())
	assert.Equal(t, 1, env.objects.Len())
}

func TestPageHandler_DeleteReleasesImage(t *testing.T) {
	env := newTestEnv(t, testutil.PNGReply([]byte("img")))
	page := env.createPage(t)
	env.selectFile(t, page.ID, "scan.png", "image/png", []byte("png"))
	env.do(httptest.NewRequest(http.MethodPost, "/api/pages/"+page.ID+"/submit?wait=true", nil))
	require.Equal(t, 1, env.objects.Len())

	rec := env.do(httptest.NewRequest(http.MethodDelete, "/api/pages/"+page.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, env.objects.Len())
	assert.Equal(t, 0, env.pages.Count())
}

func TestPageHandler_KeepAlive(t *testing.T) {
	env := newTestEnv(t, testutil.PNGReply([]byte("img")))
	page := env.createPage(t)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/pages/"+page.ID+"/keepalive", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPageHandler_ListFiltersAndHealth(t *testing.T) {
	env := newTestEnv(t, testutil.PNGReply([]byte("img")))
	env.createPage(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/filters", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"Signature"`)
	assert.Contains(t, rec.Body.String(), `"id":"qr-code"`)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"openPages":1`)
	assert.Contains(t, rec.Body.String(), `"liveObjects":0`)
}

func TestHealth_ReportsLiveObjects(t *testing.T) {
	env := newTestEnv(t, testutil.PNGReply([]byte("annotated")))
	page := env.createPage(t)
	env.selectFile(t, page.ID, "scan.png", "image/png", []byte("png"))
	env.do(httptest.NewRequest(http.MethodPost, "/api/pages/"+page.ID+"/submit?wait=true", nil))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"liveObjects":1`)
	assert.Contains(t, rec.Body.String(), `"liveObjectBytes":9`)

	env.do(httptest.NewRequest(http.MethodDelete, "/api/pages/"+page.ID, nil))
	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Contains(t, rec.Body.String(), `"liveObjects":0`)
}
