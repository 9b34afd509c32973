// routes.go - Route registration helpers
package api

import (
	"github.com/doc-inspector/webclient/internal/session"
	"github.com/doc-inspector/webclient/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Pages           *session.Manager
	Objects         storage.Store
	Version         string
	InspectEndpoint string
	MaxUploadBytes  int64
	Logger          zerolog.Logger
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Page    PageHandler
	File    FileHandler
	Object  ObjectHandler
	Sockets StateSocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.InspectEndpoint, deps.Pages, deps.Objects),
		Page:    NewPageHandler(deps.Pages, deps.Logger),
		File:    NewFileHandler(deps.Pages, deps.MaxUploadBytes),
		Object:  NewObjectHandler(deps.Objects),
		Sockets: NewWebSocketHandler(deps.Pages, deps.Logger),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	apiGroup.GET("/health", handlers.Health.HandleHealth)
	apiGroup.GET("/filters", handlers.Page.HandleListFilters)

	// Result images
	apiGroup.GET("/objects/:objectId", handlers.Object.HandleGetObject)

	// Pages
	pageGroup := apiGroup.Group("/pages")
	pageGroup.POST("", handlers.Page.HandleCreatePage)
	pageGroup.GET("/:id", handlers.Page.HandleGetPage)
	pageGroup.DELETE("/:id", handlers.Page.HandleDeletePage)
	pageGroup.GET("/:id/state/msgpack", handlers.Page.HandleGetPageMsgpack)
	pageGroup.POST("/:id/keepalive", handlers.Page.HandleKeepAlive)
	pageGroup.POST("/:id/file", handlers.File.HandleSelectFile)
	pageGroup.DELETE("/:id/file", handlers.File.HandleClearFile)
	pageGroup.PUT("/:id/filters/:filterId", handlers.Page.HandleSetFilter)
	pageGroup.POST("/:id/submit", handlers.Page.HandleSubmit)
	pageGroup.GET("/:id/ws", handlers.Sockets.HandleWebSocket)
}

// SetupMiddleware configures the error handler shared by all routes
func SetupMiddleware(e *echo.Echo, logger zerolog.Logger) {
	e.HTTPErrorHandler = NewErrorHandler(logger)
}
