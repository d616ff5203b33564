// Package tags reads title, artist, album and cover art from audio files.
package tags

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
)

// ErrNoTags is returned when a file carries no usable tags.
var ErrNoTags = errors.New("tags: no tags found")

// Picture is embedded cover art.
type Picture struct {
	MIMEType string
	Data     []byte
}

// Tags holds the fields the player displays. Empty strings mean absent.
type Tags struct {
	Title   string
	Artist  string
	Album   string
	Picture *Picture
}

func (t Tags) empty() bool {
	return t.Title == "" && t.Artist == "" && t.Album == "" && t.Picture == nil
}

// Supported reports whether tags are read for path. Only MP3 and MP4
// containers are parsed.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".mp4", ".m4a":
		return true
	}
	return false
}

// Read extracts tags from the file at path. MP3 files are read with the
// ID3v2 parser first and fall back to the generic reader, which also
// understands ID3v1.
func Read(path string) (Tags, error) {
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		if t, err := readID3v2(path); err == nil && !t.empty() {
			return t, nil
		}
	}
	return readGeneric(path)
}

func readID3v2(path string) (Tags, error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return Tags{}, err
	}
	defer t.Close()

	out := Tags{
		Title:  strings.TrimSpace(t.Title()),
		Artist: strings.TrimSpace(t.Artist()),
		Album:  strings.TrimSpace(t.Album()),
	}
	for _, f := range t.GetFrames(t.CommonID("Attached picture")) {
		pic, ok := f.(id3v2.PictureFrame)
		if !ok || len(pic.Picture) == 0 {
			continue
		}
		out.Picture = &Picture{MIMEType: pic.MimeType, Data: pic.Picture}
		if pic.PictureType == id3v2.PTFrontCover {
			break
		}
	}
	return out, nil
}

func readGeneric(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return Tags{}, ErrNoTags
		}
		return Tags{}, fmt.Errorf("reading tags: %w", err)
	}
	out := Tags{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
	}
	if p := m.Picture(); p != nil && len(p.Data) > 0 {
		out.Picture = &Picture{MIMEType: p.MIMEType, Data: p.Data}
	}
	return out, nil
}
