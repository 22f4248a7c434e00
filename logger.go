package trako

import (
	"io"
	"log/slog"
	"os"
)

// NewTextLogger creates a *slog.Logger writing human-readable text to
// stderr, suitable for passing to load.WithLogger.
func NewTextLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewJSONLogger creates a *slog.Logger writing JSON-formatted logs to
// stderr.
func NewJSONLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a *slog.Logger that discards all output. Use it to
// silence a Loader or Manager entirely.
func NoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
