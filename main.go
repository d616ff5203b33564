package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/olivier-w/audiovisual/internal/config"
	"github.com/olivier-w/audiovisual/internal/library"
	"github.com/olivier-w/audiovisual/internal/logger"
	"github.com/olivier-w/audiovisual/internal/media"
	"github.com/olivier-w/audiovisual/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type playFlags struct {
	config  string
	logFile string
	library string
}

func newRootCmd() *cobra.Command {
	var f playFlags
	cmd := &cobra.Command{
		Use:   "audiovisual [file|dir|playlist|url]...",
		Short: "Play audio with a live spectrum and waveform",
		Long: "Play audio files, playlists, radio streams or a microphone with a live\n" +
			"spectrum and waveform. Supported formats: " + media.SupportedExtsList(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), f, args)
		},
	}
	cmd.Flags().StringVar(&f.config, "config", "", "config file (default "+config.DefaultPath()+")")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "write logs to this file")
	cmd.Flags().StringVar(&f.library, "library", "", "URL of an audiovisual file server to add")

	cmd.AddCommand(newServeCmd(), newSpectrumCmd())
	return cmd
}

func runPlay(ctx context.Context, f playFlags, args []string) error {
	cfg, err := config.LoadDefault(f.config)
	if err != nil {
		return err
	}
	log, closeLog, err := fileLogger(f.logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	base := cfg.Player.Library
	if f.library != "" {
		base = f.library
	}
	client, err := library.NewClient(base, log)
	if err != nil {
		return err
	}

	res, err := ui.ResolveItems(ctx, args)
	if err != nil {
		return err
	}
	if res.Skipped > 0 {
		log.Warn("skipped playlist entries", slog.Int("count", res.Skipped))
	}

	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	m := ui.New(ui.Options{
		Config:  cfg,
		Logger:  log,
		Library: client,
		Items:   res.Items,
		Dir:     dir,
	})
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// fileLogger logs to path, or nowhere when path is empty. The TUI owns the
// terminal, so the player never logs to stderr.
func fileLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return logger.Discard(), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return logger.New(f, logger.DefaultConfig()), func() { f.Close() }, nil
}
