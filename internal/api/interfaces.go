// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// PageHandler handles page lifecycle, filter and submit operations
type PageHandler interface {
	HandleCreatePage(c echo.Context) error
	HandleGetPage(c echo.Context) error
	HandleGetPageMsgpack(c echo.Context) error
	HandleSetFilter(c echo.Context) error
	HandleSubmit(c echo.Context) error
	HandleKeepAlive(c echo.Context) error
	HandleDeletePage(c echo.Context) error
	HandleListFilters(c echo.Context) error
}

// FileHandler handles the page's file input
type FileHandler interface {
	HandleSelectFile(c echo.Context) error
	HandleClearFile(c echo.Context) error
}

// ObjectHandler serves result images
type ObjectHandler interface {
	HandleGetObject(c echo.Context) error
}

// StateSocketHandler pushes page state over WebSocket
type StateSocketHandler interface {
	HandleWebSocket(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
