package library

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"

	"github.com/olivier-w/audiovisual/internal/tags"
)

// ScanOptions configures Scan.
type ScanOptions struct {
	Dir       string
	Match     *regexp.Regexp
	Recursive bool
	// Progress is called before and after each matched file.
	Progress func(p ScanProgress)
	Logger   *slog.Logger
}

// ScanProgress reports scan state. Count grows as files are found.
type ScanProgress struct {
	Done  int
	Count int
	URL   string
}

// Scan lists the files in opts.Dir whose path matches opts.Match. Tags are
// read for MP3 and MP4 files; tag errors leave the fields empty.
// Subdirectories are entered only when opts.Recursive is set.
func Scan(opts ScanOptions) ([]Entry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	root, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", opts.Dir)
	}

	var progress ScanProgress
	report := func() {
		if opts.Progress != nil {
			opts.Progress(progress)
		}
	}

	entries := make([]Entry, 0)
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || d.Name() == FileListName {
			return nil
		}
		if opts.Match != nil && !opts.Match.MatchString(p) {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		e := Entry{URL: path.Join(FilesPrefix, filepath.ToSlash(rel))}
		progress.Count++
		progress.URL = e.URL
		report()

		if tags.Supported(p) {
			t, err := tags.Read(p)
			if err != nil {
				logger.Debug("reading tags", slog.String("path", p), slog.Any("error", err))
			} else {
				e.Title, e.Artist, e.Album = t.Title, t.Artist, t.Album
				logger.Debug("add tags", slog.String("url", e.URL), slog.String("title", e.Title))
			}
		} else {
			logger.Debug("add", slog.String("url", e.URL))
		}

		entries = append(entries, e)
		progress.Done++
		report()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", opts.Dir, err)
	}
	return entries, nil
}
