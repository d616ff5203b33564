package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/olivier-w/audiovisual/internal/config"
	"github.com/olivier-w/audiovisual/internal/library"
	"github.com/olivier-w/audiovisual/internal/logger"
	"github.com/olivier-w/audiovisual/internal/server"
)

type serveFlags struct {
	config    string
	match     string
	mflags    string
	scan      bool
	recursive bool
	verbose   bool
	port      int
	dist      string
}

func newServeCmd() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve a directory of audio files to other players",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			cfg, err := config.LoadDefault(f.config)
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			return runServe(cmd.Context(), cfg.Server, dir, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "config file")
	fl.StringVarP(&f.match, "match", "m", config.DefaultMatch, "regexp of file paths to serve")
	fl.StringVar(&f.mflags, "mflags", config.DefaultMatchFlag, "flags for the match regexp")
	fl.BoolVarP(&f.scan, "scan", "s", false, "scan the directory and rewrite the file list")
	fl.BoolVarP(&f.recursive, "recursive", "r", false, "scan subdirectories")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "log every request and scanned file")
	fl.IntVarP(&f.port, "port", "p", config.DefaultPort, "port to listen on")
	fl.StringVar(&f.dist, "dist", "", "directory of static files served at /")
	return cmd
}

// apply lets flags given on the command line override the loaded config.
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("match") {
		cfg.Server.Match = f.match
	}
	if fl.Changed("mflags") {
		cfg.Server.MatchFlag = f.mflags
	}
	if fl.Changed("recursive") {
		cfg.Server.Recursive = f.recursive
	}
	if fl.Changed("port") {
		cfg.Server.Port = f.port
	}
	if fl.Changed("dist") {
		cfg.Server.Dist = f.dist
	}
}

func runServe(ctx context.Context, cfg config.ServerConfig, dir string, f serveFlags) error {
	logCfg := logger.DefaultConfig()
	if f.verbose {
		logCfg.Level = slog.LevelDebug
	}
	log := logger.New(os.Stderr, logCfg)

	var (
		entries []library.Entry
		raw     []byte
		err     error
	)
	if f.scan {
		match, err := library.CompileMatch(cfg.Match, cfg.MatchFlag)
		if err != nil {
			return err
		}
		opts := library.ScanOptions{
			Dir:       dir,
			Match:     match,
			Recursive: cfg.Recursive,
			Logger:    log,
		}
		if entries, err = scan(opts); err != nil {
			return err
		}
		if raw, err = library.WriteFileList(dir, entries); err != nil {
			return err
		}
		log.Info("scanned", slog.String("dir", dir), slog.Int("files", len(entries)))
	} else if entries, raw, err = library.ReadFileList(dir); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	srv := server.New(server.Options{Dir: dir, Dist: cfg.Dist, Logger: log}, entries, raw)
	return srv.ListenAndServe(ctx, cfg.Port)
}

// scan shows a progress bar on a terminal. Otherwise, or when verbose
// logging would interleave with the bar, it scans silently.
func scan(opts library.ScanOptions) ([]library.Entry, error) {
	if !isatty.IsTerminal(os.Stderr.Fd()) || opts.Logger.Enabled(context.Background(), slog.LevelDebug) {
		return library.Scan(opts)
	}
	quiet := opts
	quiet.Logger = logger.Discard()
	final, err := tea.NewProgram(newScanModel(quiet), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return nil, fmt.Errorf("scan progress: %w", err)
	}
	return final.(scanModel).Result()
}
