// Package controller runs the upload, inspect and display cycle behind the
// submit control of an inspection page.
package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/doc-inspector/webclient/internal/inspect"
	"github.com/doc-inspector/webclient/internal/models"
	"github.com/rs/zerolog"
)

var (
	// ErrNoFile is returned when submit is triggered without a selected file.
	ErrNoFile = errors.New("no file selected")
	// ErrBusy is returned when a submission is already in flight.
	ErrBusy = errors.New("submission already in progress")
)

// FileSource is the file picker.
type FileSource interface {
	SelectedFile() (*models.SelectedFile, bool)
}

// Trigger is the submit control.
type Trigger interface {
	Enabled() bool
	SetEnabled(enabled bool)
}

// StatusSink displays the status line.
type StatusSink interface {
	SetStatus(status models.Status)
}

// ImageSink displays the result image. An empty src clears it.
type ImageSink interface {
	Source() string
	SetSource(src string)
}

// SavingImageSink is an ImageSink that persists what it shows. Err reports
// whether the last SetSource failed to save.
type SavingImageSink interface {
	ImageSink
	Err() error
}

// FilterToggle is one filter checkbox.
type FilterToggle interface {
	Checked() bool
	Value() string
}

// Inspector sends a document to the inspection service.
type Inspector interface {
	Inspect(ctx context.Context, file *models.SelectedFile, filters []string) (*inspect.Result, error)
}

// ObjectURLs turns result bytes into a reference an ImageSink can display.
type ObjectURLs interface {
	CreateObjectURL(data []byte, contentType string) string
	RevokeObjectURL(ref string)
}

// Handles groups the page controls the controller drives.
type Handles struct {
	File    FileSource
	Trigger Trigger
	Status  StatusSink
	Image   ImageSink
	Filters []FilterToggle
}

// Controller runs at most one submission at a time.
type Controller struct {
	handles   Handles
	inspector Inspector
	objects   ObjectURLs
	logger    zerolog.Logger

	inFlight atomic.Bool
}

// New creates a controller.
func New(handles Handles, inspector Inspector, objects ObjectURLs, logger zerolog.Logger) *Controller {
	return &Controller{
		handles:   handles,
		inspector: inspector,
		objects:   objects,
		logger:    logger,
	}
}

// InFlight reports whether a submission is running.
func (c *Controller) InFlight() bool {
	return c.inFlight.Load()
}

// Submit performs one cycle. It blocks until the service answers or the
// request fails. The returned error is also reported through the status sink,
// except for ErrBusy, which leaves the page untouched.
func (c *Controller) Submit(ctx context.Context) error {
	file, err := c.begin()
	if err != nil {
		return err
	}
	return c.finish(ctx, file)
}

// Start claims the controller and runs the request in the background.
// ErrBusy and ErrNoFile are returned before anything is sent; once Start
// returns nil the trigger is already disabled. The channel receives the
// result of the cycle.
func (c *Controller) Start(ctx context.Context) (<-chan error, error) {
	file, err := c.begin()
	if err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		done <- c.finish(ctx, file)
	}()
	return done, nil
}

// begin checks the trigger and the file input, then takes the in-flight slot
// and disables the trigger.
func (c *Controller) begin() (*models.SelectedFile, error) {
	if !c.handles.Trigger.Enabled() {
		return nil, ErrBusy
	}

	file, ok := c.handles.File.SelectedFile()
	if !ok || file == nil {
		c.handles.Status.SetStatus(models.Status{Phase: models.PhaseError, Message: models.MsgNoFile})
		return nil, ErrNoFile
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	c.handles.Trigger.SetEnabled(false)
	return file, nil
}

// finish runs the request for a slot taken by begin and always releases it.
func (c *Controller) finish(ctx context.Context, file *models.SelectedFile) error {
	defer func() {
		c.handles.Trigger.SetEnabled(true)
		c.inFlight.Store(false)
	}()

	c.handles.Status.SetStatus(models.Status{Phase: models.PhaseInProgress, Message: models.MsgInProgress})
	c.clearImage()

	filters := c.collectFilters()

	err := c.run(ctx, file, filters)
	if err != nil {
		c.logger.Error().Err(err).Str("file", file.Name).Strs("find", filters).Msg("inspection failed")
		c.handles.Status.SetStatus(models.Status{
			Phase:   models.PhaseError,
			Message: fmt.Sprintf(models.MsgErrorFmt, err.Error()),
		})
		return err
	}

	c.handles.Status.SetStatus(models.Status{Phase: models.PhaseSuccess, Message: models.MsgDone})
	return nil
}

func (c *Controller) run(ctx context.Context, file *models.SelectedFile, filters []string) error {
	res, err := c.inspector.Inspect(ctx, file, filters)
	if err != nil {
		return err
	}

	contentType := res.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(res.Data)
	}

	ref := c.objects.CreateObjectURL(res.Data, contentType)
	c.handles.Image.SetSource(ref)
	if saver, ok := c.handles.Image.(SavingImageSink); ok {
		if err := saver.Err(); err != nil {
			return err
		}
	}
	c.logger.Debug().Str("file", file.Name).Str("ref", ref).Int("bytes", len(res.Data)).Msg("inspection complete")
	return nil
}

// collectFilters returns checked filter values in toggle order.
func (c *Controller) collectFilters() []string {
	var filters []string
	for _, t := range c.handles.Filters {
		if t.Checked() {
			filters = append(filters, t.Value())
		}
	}
	return filters
}

// clearImage blanks the result display and releases the reference it held.
func (c *Controller) clearImage() {
	prev := c.handles.Image.Source()
	c.handles.Image.SetSource("")
	if prev != "" {
		c.objects.RevokeObjectURL(prev)
	}
}
