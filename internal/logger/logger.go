// Package logger configures log/slog for the player and the file server.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger configuration.
type Config struct {
	Level  slog.Level
	Format string // "text" or "json"
}

// New creates a logger writing to w.
func New(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.Level <= slog.LevelDebug,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// DefaultConfig reads AUDIOVISUAL_LOG_LEVEL (DEBUG, INFO, WARN, ERROR) and
// AUDIOVISUAL_LOG_FORMAT (text, json). Level defaults to INFO.
func DefaultConfig() Config {
	return Config{
		Level:  ParseLevel(os.Getenv("AUDIOVISUAL_LOG_LEVEL"), slog.LevelInfo),
		Format: strings.ToLower(os.Getenv("AUDIOVISUAL_LOG_FORMAT")),
	}
}

// ParseLevel maps a level name to a slog.Level, returning def for unknown
// or empty names.
func ParseLevel(s string, def slog.Level) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	return def
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
