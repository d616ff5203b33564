package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelWarn},
		{"loud", slog.LevelWarn},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in, slog.LevelWarn); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Level: slog.LevelInfo, Format: "json"})
	l.Info("scanned", slog.Int("files", 3))
	if !strings.Contains(buf.String(), `"files":3`) {
		t.Fatalf("expected json output, got %q", buf.String())
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Level: slog.LevelWarn})
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below level, got %q", buf.String())
	}
}
