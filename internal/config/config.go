// Package config loads player and server settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultNumFreq   = 128
	DefaultNumWave   = 1024
	DefaultWaveWidth = 3
	DefaultFPS       = 60
	DefaultFFTSize   = 2048
	DefaultSmoothing = 0.8
	DefaultDelay     = 0.25
	DefaultPort      = 10102
	DefaultMatch     = `[.](mp3|wav|ogg)$`
	DefaultMatchFlag = "i"
)

type Config struct {
	Visual   VisualConfig   `yaml:"visual"`
	Analyser AnalyserConfig `yaml:"analyser"`
	Server   ServerConfig   `yaml:"server"`
	Player   PlayerConfig   `yaml:"player"`
}

type VisualConfig struct {
	NumFreq   int    `yaml:"num_freq"`
	NumWave   int    `yaml:"num_wave"`
	WaveWidth int    `yaml:"wave_width"`
	FPS       int    `yaml:"fps"`
	FreqColor string `yaml:"freq_color"`
	WaveColor string `yaml:"wave_color"`
	TextColor string `yaml:"text_color"`
	AltColor  string `yaml:"alt_color"`
}

type AnalyserConfig struct {
	FFTSize        int     `yaml:"fft_size"`
	Smoothing      float64 `yaml:"smoothing"`
	Delay          float64 `yaml:"delay"`
	ByteTimeDomain bool    `yaml:"byte_time_domain"`
}

type ServerConfig struct {
	Port      int    `yaml:"port"`
	Match     string `yaml:"match"`
	MatchFlag string `yaml:"mflags"`
	Recursive bool   `yaml:"recursive"`
	Dist      string `yaml:"dist"`
}

type PlayerConfig struct {
	Shuffle bool    `yaml:"shuffle"`
	Repeat  bool    `yaml:"repeat"`
	Gain    float64 `yaml:"gain"`
	// Library is the base URL of a file server whose list is loaded on start.
	Library string `yaml:"library"`
}

func DefaultConfig() *Config {
	return &Config{
		Visual: VisualConfig{
			NumFreq:   DefaultNumFreq,
			NumWave:   DefaultNumWave,
			WaveWidth: DefaultWaveWidth,
			FPS:       DefaultFPS,
			FreqColor: "#FFFFFF",
			WaveColor: "#0080FF",
			TextColor: "#CCCCCC",
			AltColor:  "#333333",
		},
		Analyser: AnalyserConfig{
			FFTSize:   DefaultFFTSize,
			Smoothing: DefaultSmoothing,
			Delay:     DefaultDelay,
		},
		Server: ServerConfig{
			Port:      DefaultPort,
			Match:     DefaultMatch,
			MatchFlag: DefaultMatchFlag,
		},
		Player: PlayerConfig{
			Shuffle: true,
			Gain:    1,
		},
	}
}

// Load reads path over the defaults. Missing keys keep their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads path when set, otherwise the user config file if it
// exists, otherwise the defaults.
func LoadDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	p := DefaultPath()
	if p == "" {
		return DefaultConfig(), nil
	}
	cfg, err := Load(p)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// DefaultPath returns $XDG_CONFIG_HOME/audiovisual/config.yaml or the
// platform equivalent, or "" if no config dir is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "audiovisual", "config.yaml")
}

func (c *Config) Validate() error {
	n := c.Analyser.FFTSize
	if n < 32 || n&(n-1) != 0 {
		return fmt.Errorf("analyser.fft_size must be a power of two >= 32, got %d", n)
	}
	if c.Analyser.Smoothing < 0 || c.Analyser.Smoothing >= 1 {
		return fmt.Errorf("analyser.smoothing must be in [0,1), got %g", c.Analyser.Smoothing)
	}
	if c.Analyser.Delay < 0 || c.Analyser.Delay > 1 {
		return fmt.Errorf("analyser.delay must be in [0,1], got %g", c.Analyser.Delay)
	}
	if c.Visual.NumFreq < 1 || c.Visual.NumWave < 1 {
		return fmt.Errorf("visual.num_freq and visual.num_wave must be positive")
	}
	if c.Visual.FPS < 1 {
		return fmt.Errorf("visual.fps must be positive, got %d", c.Visual.FPS)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}
