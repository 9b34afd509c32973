package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/doc-inspector/webclient/internal/models"
	"github.com/google/uuid"
)

// ErrObjectNotFound is returned for unknown or revoked references.
var ErrObjectNotFound = errors.New("object not found")

// Store holds result blobs behind locally addressable references.
type Store interface {
	CreateObjectURL(data []byte, contentType string) string
	RevokeObjectURL(ref string)
	Get(id string) (*models.ResultObject, []byte, error)
	Resolve(ref string) (*models.ResultObject, []byte, error)
	List() []*models.ResultObject
}

type object struct {
	info *models.ResultObject
	data []byte
}

// ObjectStore implements Store in memory.
type ObjectStore struct {
	mu      sync.RWMutex
	prefix  string
	objects map[string]*object
}

// NewObjectStore creates a store whose references are prefix + id,
// e.g. "/api/objects/" for references served over HTTP.
func NewObjectStore(prefix string) *ObjectStore {
	return &ObjectStore{
		prefix:  prefix,
		objects: make(map[string]*object),
	}
}

// CreateObjectURL stores a copy of data and returns its reference.
func (s *ObjectStore) CreateObjectURL(data []byte, contentType string) string {
	id := uuid.New().String()
	buf := make([]byte, len(data))
	copy(buf, data)

	info := &models.ResultObject{
		ID:          id,
		Ref:         s.prefix + id,
		ContentType: contentType,
		Size:        int64(len(buf)),
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[id] = &object{info: info, data: buf}

	return info.Ref
}

// RevokeObjectURL releases the blob behind ref. Unknown references are ignored.
func (s *ObjectStore) RevokeObjectURL(ref string) {
	id, ok := s.idFromRef(ref)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, id)
}

// Get returns the object with the given id.
func (s *ObjectStore) Get(id string) (*models.ResultObject, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	return obj.info, obj.data, nil
}

// Resolve returns the object behind a reference produced by CreateObjectURL.
func (s *ObjectStore) Resolve(ref string) (*models.ResultObject, []byte, error) {
	id, ok := s.idFromRef(ref)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrObjectNotFound, ref)
	}
	return s.Get(id)
}

// List returns live objects, newest first.
func (s *ObjectStore) List() []*models.ResultObject {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.ResultObject, 0, len(s.objects))
	for _, obj := range s.objects {
		list = append(list, obj.info)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

// Len returns the number of live objects.
func (s *ObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *ObjectStore) idFromRef(ref string) (string, bool) {
	if ref == "" || !strings.HasPrefix(ref, s.prefix) {
		return "", false
	}
	id := strings.TrimPrefix(ref, s.prefix)
	return id, id != ""
}
