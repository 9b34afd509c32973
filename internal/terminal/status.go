package terminal

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/doc-inspector/webclient/internal/models"
	"github.com/fatih/color"
)

// StatusLine renders status changes: a spinner while a request is in flight,
// a colored line once it ends.
type StatusLine struct {
	mu      sync.Mutex
	out     io.Writer
	spinner *spinner.Spinner
	noColor bool
	last    models.Status
}

// NewStatusLine creates a status line writing to out.
func NewStatusLine(out io.Writer, noColor bool) *StatusLine {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	return &StatusLine{
		out:     out,
		spinner: s,
		noColor: noColor,
	}
}

// SetStatus implements controller.StatusSink.
func (l *StatusLine) SetStatus(status models.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.last = status
	if status.Phase == models.PhaseInProgress {
		l.spinner.Suffix = " " + status.Message
		l.spinner.Start()
		return
	}

	l.spinner.Stop()
	l.printLocked(status)
}

// Last returns the most recent status.
func (l *StatusLine) Last() models.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// Stop halts the spinner if it is still running.
func (l *StatusLine) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.spinner.Stop()
}

func (l *StatusLine) printLocked(status models.Status) {
	var c *color.Color
	switch status.Phase {
	case models.PhaseSuccess:
		c = color.New(color.FgGreen)
	case models.PhaseError:
		c = color.New(color.FgRed)
	default:
		c = color.New(color.FgCyan)
	}
	if l.noColor {
		c.DisableColor()
	}
	c.Fprintln(l.out, status.Message)
}

// Info prints a plain informational line.
func (l *StatusLine) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := color.New(color.FgCyan)
	if l.noColor {
		c.DisableColor()
	}
	c.Fprintf(l.out, "ℹ %s\n", fmt.Sprintf(format, args...))
}
