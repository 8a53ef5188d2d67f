// Package logging wires the process-wide structured logger.
//
// The teacher source prints warnings inline at the call site that
// detects trouble (text_color_set + dw_printf); this package keeps
// that one-call-site convention but routes through charmbracelet/log
// so levels, timestamps and component names are structured instead of
// ANSI color codes.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New builds the process logger. verbose enables debug-level output.
func New(w io.Writer, verbose bool) *log.Logger {
	if w == nil {
		w = os.Stderr
	}

	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
}

// Component returns a child logger tagged with the given subsystem name,
// e.g. logging.Component(l, "ring").
func Component(l *log.Logger, name string) *log.Logger {
	return l.With("component", name)
}
