package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Visual.NumFreq != 128 || cfg.Visual.NumWave != 1024 {
		t.Errorf("unexpected visual resolution %d/%d", cfg.Visual.NumFreq, cfg.Visual.NumWave)
	}
	if cfg.Analyser.FFTSize != 2048 {
		t.Errorf("expected fft size 2048, got %d", cfg.Analyser.FFTSize)
	}
	if cfg.Server.Port != 10102 {
		t.Errorf("expected port 10102, got %d", cfg.Server.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "visual:\n  num_freq: 64\nanalyser:\n  smoothing: 0.5\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Visual.NumFreq != 64 {
		t.Errorf("expected num_freq 64, got %d", cfg.Visual.NumFreq)
	}
	if cfg.Visual.NumWave != DefaultNumWave {
		t.Errorf("expected default num_wave, got %d", cfg.Visual.NumWave)
	}
	if cfg.Analyser.Smoothing != 0.5 {
		t.Errorf("expected smoothing 0.5, got %g", cfg.Analyser.Smoothing)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []string{
		"analyser:\n  fft_size: 1000\n",
		"analyser:\n  smoothing: 1.0\n",
		"visual:\n  num_wave: 0\n",
		"server:\n  port: 70000\n",
		"visual: [",
	}
	for _, data := range tests {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("expected error for %q", data)
		}
	}
}

func TestLoadDefaultMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadDefault("")
	if err != nil {
		t.Fatalf("LoadDefault() error = %v", err)
	}
	if cfg.Visual.FPS != DefaultFPS {
		t.Errorf("expected default fps, got %d", cfg.Visual.FPS)
	}
}
