package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/doc-inspector/webclient/internal/config"
	"github.com/doc-inspector/webclient/internal/inspect"
	"github.com/doc-inspector/webclient/internal/models"
	"github.com/doc-inspector/webclient/internal/session"
	"github.com/doc-inspector/webclient/internal/storage"
	"github.com/doc-inspector/webclient/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	e       *echo.Echo
	pages   *session.Manager
	objects *storage.ObjectStore
	inspect *testutil.InspectServer
}

func newTestEnv(t *testing.T, reply testutil.Reply) *testEnv {
	t.Helper()

	srv := testutil.NewInspectServer(t, reply)
	client, err := inspect.NewClient(srv.Endpoint())
	require.NoError(t, err)

	objects := storage.NewObjectStore(ObjectsPrefix)
	pages := session.NewManager(config.DefaultFilterCatalog(), client, objects, 10, zerolog.Nop())
	t.Cleanup(pages.CloseAll)

	e := echo.New()
	SetupMiddleware(e, zerolog.Nop())
	RegisterRoutes(e, NewHandlers(&Dependencies{
		Pages:           pages,
		Objects:         objects,
		Version:         "test",
		InspectEndpoint: srv.Endpoint(),
		MaxUploadBytes:  1 << 20,
		Logger:          zerolog.Nop(),
	}))

	return &testEnv{e: e, pages: pages, objects: objects, inspect: srv}
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) createPage(t *testing.T) models.PageState {
	t.Helper()
	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/pages", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeState(t, rec)
}

func (env *testEnv) selectFile(t *testing.T, pageID, name, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	part.Write(data)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/pages/"+pageID+"/file", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return env.do(req)
}

func (env *testEnv) setFilter(pageID, filterID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/api/pages/"+pageID+"/filters/"+filterID, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return env.do(req)
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) models.PageState {
	t.Helper()
	var state models.PageState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state), rec.Body.String())
	return state
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr), rec.Body.String())
	return apiErr
}
