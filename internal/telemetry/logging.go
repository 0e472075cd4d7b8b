// Package telemetry builds the engine's slog logger and exposes Allocator
// statistics as Prometheus metrics.
package telemetry

import (
	"io"
	"log/slog"
)

// NewLogger returns a logger writing to w at level. format "json" selects the
// JSON handler, anything else the text handler. Debug level adds source
// locations.
func NewLogger(level slog.Level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
