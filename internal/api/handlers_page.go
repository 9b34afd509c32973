// handlers_page.go - Page lifecycle, filter and submit handlers
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/doc-inspector/webclient/internal/controller"
	"github.com/doc-inspector/webclient/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// PageHandlerImpl implements the PageHandler interface
type PageHandlerImpl struct {
	pages  *session.Manager
	logger zerolog.Logger
}

// NewPageHandler creates a new page handler instance
func NewPageHandler(pages *session.Manager, logger zerolog.Logger) PageHandler {
	return &PageHandlerImpl{
		pages:  pages,
		logger: logger,
	}
}

// lookupPage resolves the :id path parameter to an open page
func lookupPage(pages *session.Manager, c echo.Context) (*session.Entry, error) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}

	entry, ok := pages.Get(id)
	if !ok {
		return nil, NewNotFoundError("page", id)
	}
	return entry, nil
}

// HandleCreatePage opens a new page seeded with the filter catalog
func (h *PageHandlerImpl) HandleCreatePage(c echo.Context) error {
	entry, err := h.pages.CreatePage()
	if err != nil {
		if errors.Is(err, session.ErrTooManyPages) {
			return NewServiceUnavailableError("too many open pages, try again later")
		}
		return NewInternalError("failed to create page", err)
	}

	return c.JSON(http.StatusCreated, entry.Page.Snapshot())
}

// HandleGetPage returns the page state as JSON
func (h *PageHandlerImpl) HandleGetPage(c echo.Context) error {
	entry, err := lookupPage(h.pages, c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry.Page.Snapshot())
}

// HandleGetPageMsgpack returns the page state encoded as MessagePack
func (h *PageHandlerImpl) HandleGetPageMsgpack(c echo.Context) error {
	entry, err := lookupPage(h.pages, c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(entry.Page.Snapshot())
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleSetFilter checks or unchecks one filter checkbox
func (h *PageHandlerImpl) HandleSetFilter(c echo.Context) error {
	entry, err := lookupPage(h.pages, c)
	if err != nil {
		return err
	}

	filterID := c.Param("filterId")
	var req setFilterRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	if err := entry.Page.SetFilter(filterID, *req.Checked); err != nil {
		return NewNotFoundError("filter", filterID)
	}

	return c.JSON(http.StatusOK, entry.Page.Snapshot())
}

// HandleSubmit clicks the submit control. By default the inspection runs in
// the background and the caller follows progress over the state endpoints;
// with ?wait=true the response is sent once the cycle has finished.
func (h *PageHandlerImpl) HandleSubmit(c echo.Context) error {
	entry, err := lookupPage(h.pages, c)
	if err != nil {
		return err
	}

	wait, _ := strconv.ParseBool(c.QueryParam("wait"))

	// Without a file the cycle ends before any request, so run it inline.
	if wait || !entry.Page.HasFile() {
		err := entry.Controller.Submit(context.WithoutCancel(c.Request().Context()))
		if errors.Is(err, controller.ErrBusy) {
			return NewBusyError()
		}
		return c.JSON(http.StatusOK, entry.Page.Snapshot())
	}

	_, err = entry.Controller.Start(context.Background())
	switch {
	case errors.Is(err, controller.ErrBusy):
		h.logger.Debug().Str("page", entry.Page.ID()).Msg("submit rejected, already in flight")
		return NewBusyError()
	case errors.Is(err, controller.ErrNoFile):
		// file cleared between the check above and Start
		return c.JSON(http.StatusOK, entry.Page.Snapshot())
	}

	return c.JSON(http.StatusAccepted, entry.Page.Snapshot())
}

// HandleKeepAlive marks the page as used
func (h *PageHandlerImpl) HandleKeepAlive(c echo.Context) error {
	id := c.Param("id")
	if !h.pages.Touch(id) {
		return NewNotFoundError("page", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleDeletePage closes the page and releases its result image
func (h *PageHandlerImpl) HandleDeletePage(c echo.Context) error {
	id := c.Param("id")
	if err := h.pages.Delete(id); err != nil {
		return NewNotFoundError("page", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleListFilters returns the filter catalog
func (h *PageHandlerImpl) HandleListFilters(c echo.Context) error {
	return c.JSON(http.StatusOK, h.pages.Catalog().Filters)
}

// Request/Response types

type setFilterRequest struct {
	Checked *bool `json:"checked"`
}

func (r *setFilterRequest) validate() error {
	if r.Checked == nil {
		return NewValidationError("checked")
	}
	return nil
}
