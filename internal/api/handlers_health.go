// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/doc-inspector/webclient/internal/models"
	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version  string
	endpoint string
	pages    PageCounter
	objects  ObjectLister
}

// PageCounter reports how many pages are open.
type PageCounter interface {
	Count() int
}

// ObjectLister lists live result images.
type ObjectLister interface {
	List() []*models.ResultObject
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, endpoint string, pages PageCounter, objects ObjectLister) HealthHandler {
	return &HealthHandlerImpl{
		version:  version,
		endpoint: endpoint,
		pages:    pages,
		objects:  objects,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	objects := h.objects.List()
	var objectBytes int64
	for _, obj := range objects {
		objectBytes += obj.Size
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"version":         h.version,
		"inspectEndpoint": h.endpoint,
		"openPages":       h.pages.Count(),
		"liveObjects":     len(objects),
		"liveObjectBytes": objectBytes,
	})
}
