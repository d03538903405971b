// Package progress reports notebook transfers on the terminal: a spinner
// for single transfers and a counting bar for directory syncs.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Reporter tracks one operation of unknown size.
type Reporter interface {
	Start(description string)
	Finish()
	Error(err error)
}

// Spinner implements Reporter with an indeterminate progress bar.
type Spinner struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewSpinner writes to stderr.
func NewSpinner() *Spinner {
	return &Spinner{out: os.Stderr}
}

// Start shows the spinner with description.
func (s *Spinner) Start(description string) {
	s.bar = progressbar.NewOptions64(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(s.out),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Finish clears the spinner.
func (s *Spinner) Finish() {
	if s.bar != nil {
		_ = s.bar.Finish()
	}
}

// Error stops the spinner and prints err.
func (s *Spinner) Error(err error) {
	if s.bar != nil {
		_ = s.bar.Exit()
	}
	if err != nil {
		fmt.Fprintf(s.out, "\nError: %v\n", err)
	}
}

// NoOpProgress is a progress reporter that does nothing (for scripted/quiet runs).
type NoOpProgress struct{}

func (NoOpProgress) Start(string) {}
func (NoOpProgress) Finish()      {}
func (NoOpProgress) Error(error)  {}

// NewReporter returns a Spinner when stderr is a terminal and quiet is
// false, NoOpProgress otherwise.
func NewReporter(quiet bool) Reporter {
	if quiet || !IsTerminal(os.Stderr) {
		return NoOpProgress{}
	}
	return NewSpinner()
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// truncatePath keeps the last maxComponents elements of a path.
// Example: truncatePath("/a/b/c/d/etl.py", 3) → "…/c/d/etl.py"
func truncatePath(path string, maxComponents int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= maxComponents {
		return filepath.Base(path)
	}
	return "…/" + strings.Join(parts[len(parts)-maxComponents:], "/")
}
