// handlers_upload.go - File input handlers
package api

import (
	"io"
	"net/http"

	"github.com/doc-inspector/webclient/internal/models"
	"github.com/doc-inspector/webclient/internal/session"
	"github.com/labstack/echo/v4"
)

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	pages     *session.Manager
	maxUpload int64
}

// NewFileHandler creates a new file input handler. maxUpload <= 0 disables the size check.
func NewFileHandler(pages *session.Manager, maxUpload int64) FileHandler {
	return &FileHandlerImpl{
		pages:     pages,
		maxUpload: maxUpload,
	}
}

// HandleSelectFile accepts a multipart "file" part and puts it in the page's file input
func (h *FileHandlerImpl) HandleSelectFile(c echo.Context) error {
	entry, err := lookupPage(h.pages, c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}
	if h.maxUpload > 0 && file.Size > h.maxUpload {
		return NewPayloadTooLargeError(file.Size, h.maxUpload)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return NewInternalError("failed to read uploaded file", err)
	}

	name := file.Filename
	if name == "" {
		name = "upload"
	}
	contentType := file.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	entry.Page.SelectFile(&models.SelectedFile{
		Name:        name,
		ContentType: contentType,
		Data:        data,
	})

	return c.JSON(http.StatusOK, entry.Page.Snapshot())
}

// HandleClearFile empties the page's file input
func (h *FileHandlerImpl) HandleClearFile(c echo.Context) error {
	entry, err := lookupPage(h.pages, c)
	if err != nil {
		return err
	}

	entry.Page.ClearFile()
	return c.JSON(http.StatusOK, entry.Page.Snapshot())
}
