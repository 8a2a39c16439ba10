package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON output keeps log
// aggregation trivial; component loggers derive from this via With.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// ForComponent scopes a logger to a named component.
func ForComponent(base *slog.Logger, name string) *slog.Logger {
	return base.With("component", name)
}
