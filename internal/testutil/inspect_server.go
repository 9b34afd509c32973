// inspect_server.go - Fake inspection service for testing
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RecordedRequest captures what the fake inspection service received.
type RecordedRequest struct {
	Method          string
	Path            string
	Find            []string
	RawQuery        string
	FileName        string
	FileContentType string
	FileData        []byte
	ParseErr        error
}

// Reply is a scripted response.
type Reply struct {
	Status      int
	ContentType string
	Body        []byte
}

// PNGReply returns a 200 reply carrying body as image/png.
func PNGReply(body []byte) Reply {
	return Reply{Status: http.StatusOK, ContentType: "image/png", Body: body}
}

// JSONReply returns a reply with a JSON body.
func JSONReply(status int, body string) Reply {
	return Reply{Status: status, ContentType: "application/json", Body: []byte(body)}
}

// InspectServer is an httptest server standing in for the inspection service.
type InspectServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
	replies  []Reply
	fallback Reply
	hold     chan struct{}
}

// NewInspectServer starts a fake service that answers with fallback unless
// replies were queued with Enqueue. It is closed when the test ends.
func NewInspectServer(t testing.TB, fallback Reply) *InspectServer {
	t.Helper()

	s := &InspectServer{fallback: fallback}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Endpoint returns the base /inspect/ URL of the fake.
func (s *InspectServer) Endpoint() string {
	return s.URL + "/inspect/"
}

// Enqueue adds replies served in order before falling back.
func (s *InspectServer) Enqueue(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

// HoldRequests blocks every request until the returned func is called.
func (s *InspectServer) HoldRequests() (release func()) {
	hold := make(chan struct{})
	s.mu.Lock()
	s.hold = hold
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(hold) }) }
}

// Requests returns a copy of everything received so far.
func (s *InspectServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestCount returns how many requests were received.
func (s *InspectServer) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *InspectServer) handle(w http.ResponseWriter, r *http.Request) {
	rec := RecordedRequest{
		Method:   r.Method,
		Path:     r.URL.Path,
		Find:     r.URL.Query()["find"],
		RawQuery: r.URL.RawQuery,
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		rec.ParseErr = err
	} else if file, header, err := r.FormFile("file"); err != nil {
		rec.ParseErr = err
	} else {
		rec.FileName = header.Filename
		rec.FileContentType = header.Header.Get("Content-Type")
		rec.FileData, rec.ParseErr = io.ReadAll(file)
		file.Close()
	}

	s.mu.Lock()
	s.requests = append(s.requests, rec)
	reply := s.fallback
	if len(s.replies) > 0 {
		reply = s.replies[0]
		s.replies = s.replies[1:]
	}
	hold := s.hold
	s.mu.Unlock()

	if hold != nil {
		<-hold
	}

	if reply.ContentType != "" {
		w.Header().Set("Content-Type", reply.ContentType)
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	w.Write(reply.Body)
}
