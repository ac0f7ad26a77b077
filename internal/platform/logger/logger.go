package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Level defaults to info and
// can be raised with CHRONICLE_LOG_LEVEL=debug.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("CHRONICLE_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
