package logger

import (
	"log/slog"
	"os"
)

// NewTestLogger creates a logger for tests. Output is limited to WARN and
// above unless TEST_DEBUG is set.
func NewTestLogger() *slog.Logger {
	level := slog.LevelWarn
	if os.Getenv("TEST_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
