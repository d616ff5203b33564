package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/olivier-w/audiovisual/internal/spectral"
	"github.com/olivier-w/audiovisual/internal/tags"
)

// ErrNoURL is returned when a file item has neither a local file nor a
// URL to fetch it from.
var ErrNoURL = errors.New("queue: file item has no URL")

// Fetcher downloads a remote file and returns the local path.
type Fetcher interface {
	FetchFile(ctx context.Context, url string) (string, error)
}

// FileItem is an audio file. It starts either with a local path or with a
// URL that is fetched into a temporary file before playing. Live items are
// played directly from their URL.
type FileItem struct {
	url  string
	path string
	temp bool // path is a download owned by the item
	live bool

	title, artist, album string
	picture              string
	parsedTags           bool
	cleaned              bool

	readTags    func(string) (tags.Tags, error)
	cleanupOnce sync.Once
}

// NewFile creates an item for a local file.
func NewFile(path string) *FileItem {
	return &FileItem{path: path, readTags: tags.Read}
}

// NewRemoteFile creates an item for a file listed by a library server.
// Empty metadata fields fall back to the defaults.
func NewRemoteFile(url, title, artist, album string) *FileItem {
	return &FileItem{
		url:      url,
		title:    title,
		artist:   artist,
		album:    album,
		readTags: tags.Read,
	}
}

// NewLiveFile creates an item for an internet radio stream.
func NewLiveFile(url string) *FileItem {
	return &FileItem{url: url, live: true, readTags: tags.Read}
}

// URL returns the remote URL, or the local path when there is none.
func (f *FileItem) URL() string {
	if f.url != "" {
		return f.url
	}
	return f.path
}

// Path returns the local file, empty until fetched.
func (f *FileItem) Path() string { return f.path }

// HasFile reports whether the item can be opened without fetching.
func (f *FileItem) HasFile() bool { return f.path != "" || f.live }

// Live reports whether the item is a radio stream.
func (f *FileItem) Live() bool { return f.live }

// SetPath replaces the local file. A previously downloaded file is removed.
// temp marks the new file as owned by the item. Once the item is cleaned
// up, an owned file is removed at once instead of being kept.
func (f *FileItem) SetPath(p string, temp bool) {
	if p == f.path {
		return
	}
	if f.cleaned {
		if temp && p != "" {
			os.Remove(p)
		}
		return
	}
	if f.temp && f.path != "" {
		os.Remove(f.path)
	}
	f.path, f.temp = p, temp
}

// RemoteURL returns the URL the file is fetched from.
func (f *FileItem) RemoteURL() (string, error) {
	if f.url == "" {
		return "", ErrNoURL
	}
	return f.url, nil
}

// Fetch downloads the file when the item does not have one yet. It updates
// the item, so it must run on the goroutine that owns it; FetchFile
// downloads without touching the item.
func (f *FileItem) Fetch(ctx context.Context, fetcher Fetcher) error {
	if f.HasFile() {
		return nil
	}
	p, err := FetchFile(ctx, f, fetcher)
	if err != nil {
		return err
	}
	f.SetPath(p, true)
	return nil
}

// FetchFile downloads f's remote file and returns its path. It reads only
// the item's URL, which never changes, so it may run on any goroutine.
func FetchFile(ctx context.Context, f *FileItem, fetcher Fetcher) (string, error) {
	url, err := f.RemoteURL()
	if err != nil {
		return "", err
	}
	p, err := fetcher.FetchFile(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	return p, nil
}

// Title returns the tagged or configured title, falling back to the file
// name and then to the last element of the URL.
func (f *FileItem) Title() string {
	if f.title != "" {
		return f.title
	}
	if f.path != "" && !f.temp {
		return filepath.Base(f.path)
	}
	return path.Base(f.url)
}

// SetTitle overrides the title, e.g. with a stream's now-playing text.
func (f *FileItem) SetTitle(title string) { f.title = title }

// HasTitle reports whether a title was configured or read from tags.
func (f *FileItem) HasTitle() bool { return f.title != "" }

func (f *FileItem) Artist() string {
	if f.artist == "" {
		return "no artist"
	}
	return f.artist
}

func (f *FileItem) Album() string {
	if f.album == "" {
		return "no album"
	}
	return f.album
}

// Picture returns the path of the extracted cover art, if any.
func (f *FileItem) Picture() string { return f.picture }

// ParsedTags reports whether AddTags has read the file.
func (f *FileItem) ParsedTags() bool { return f.parsedTags }

// AddTags reads tags from the local file once. Only MP3 and MP4 files are
// parsed; other files and items without a file are left alone.
func (f *FileItem) AddTags() error {
	name := f.URL()
	if f.parsedTags || f.path == "" || f.live || !tags.Supported(name) {
		return nil
	}
	t, err := f.readTags(f.path)
	switch {
	case errors.Is(err, tags.ErrNoTags):
		f.parsedTags = true
		return nil
	case err != nil:
		return err
	}
	if t.Title != "" {
		f.title = t.Title
	}
	if t.Artist != "" {
		f.artist = t.Artist
	}
	if t.Album != "" {
		f.album = t.Album
	}
	if t.Picture != nil {
		if err := f.writePicture(t.Picture); err != nil {
			return err
		}
	}
	f.parsedTags = true
	return nil
}

func (f *FileItem) writePicture(p *tags.Picture) error {
	ext := ".img"
	switch strings.ToLower(p.MIMEType) {
	case "image/jpeg", "image/jpg", "jpg", "jpeg":
		ext = ".jpg"
	case "image/png", "png":
		ext = ".png"
	}
	tmp, err := os.CreateTemp("", "audiovisual-cover-*"+ext)
	if err != nil {
		return fmt.Errorf("writing cover art: %w", err)
	}
	if _, err := tmp.Write(p.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cover art: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cover art: %w", err)
	}
	if f.picture != "" {
		os.Remove(f.picture)
	}
	f.picture = tmp.Name()
	return nil
}

// Cleanup removes the downloaded file and the extracted cover art.
func (f *FileItem) Cleanup() {
	f.cleanupOnce.Do(func() {
		f.cleaned = true
		if f.temp && f.path != "" {
			os.Remove(f.path)
		}
		if f.picture != "" {
			os.Remove(f.picture)
		}
	})
}

// Capture is a live input such as a microphone.
type Capture interface {
	spectral.Stream
	Label() string
	// Ended is closed when capture stops.
	Ended() <-chan struct{}
	Close() error
}

// StreamItem plays a live capture through the analyser.
type StreamItem struct {
	capture     Capture
	title       string
	cleanupOnce sync.Once
}

// NewStream creates an item for c. An empty title falls back to the
// capture's label.
func NewStream(c Capture, title string) *StreamItem {
	return &StreamItem{capture: c, title: title}
}

// Capture returns the underlying source.
func (s *StreamItem) Capture() Capture { return s.capture }

func (s *StreamItem) Title() string {
	if s.title != "" {
		return s.title
	}
	if l := s.capture.Label(); l != "" {
		return l
	}
	return "Audio stream " + s.capture.ID()
}

// Cleanup stops the capture.
func (s *StreamItem) Cleanup() {
	s.cleanupOnce.Do(func() {
		s.capture.Close()
	})
}
