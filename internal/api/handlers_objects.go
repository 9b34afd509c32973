// handlers_objects.go - Result image handlers
package api

import (
	"net/http"

	"github.com/doc-inspector/webclient/internal/storage"
	"github.com/labstack/echo/v4"
)

// ObjectsPrefix is the URL prefix of result image references.
const ObjectsPrefix = "/api/objects/"

// ObjectHandlerImpl implements the ObjectHandler interface
type ObjectHandlerImpl struct {
	store storage.Store
}

// NewObjectHandler creates a new object handler
func NewObjectHandler(store storage.Store) ObjectHandler {
	return &ObjectHandlerImpl{store: store}
}

// HandleGetObject serves a result image until its reference is revoked
func (h *ObjectHandlerImpl) HandleGetObject(c echo.Context) error {
	id := c.Param("objectId")
	if id == "" {
		return NewValidationError("objectId")
	}

	info, data, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("object", id)
	}

	c.Response().Header().Set("Cache-Control", "private, max-age=3600, immutable")
	return c.Blob(http.StatusOK, info.ContentType, data)
}
