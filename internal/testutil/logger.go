package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards all output, for quiet tests
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
