package tags

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
)

func writeID3(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	tag := id3v2.NewEmptyTag()
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(" Song ")
	tag.SetArtist("Artist")
	tag.SetAlbum("Album")
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/png",
		PictureType: id3v2.PTFrontCover,
		Picture:     []byte{1, 2, 3},
	})
	if _, err := tag.WriteTo(f); err != nil {
		t.Fatalf("write tag: %v", err)
	}
	if _, err := f.Write(make([]byte, 128)); err != nil {
		t.Fatalf("write body: %v", err)
	}
	return path
}

func TestReadID3v2(t *testing.T) {
	got, err := Read(writeID3(t, "song.mp3"))
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if got.Title != "Song" || got.Artist != "Artist" || got.Album != "Album" {
		t.Fatalf("unexpected tags: %+v", got)
	}
	if got.Picture == nil || got.Picture.MIMEType != "image/png" || len(got.Picture.Data) != 3 {
		t.Fatalf("unexpected picture: %+v", got.Picture)
	}
}

func TestReadUntaggedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.m4a")
	if err := os.WriteFile(path, make([]byte, 64), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Fatal("expected error for untagged file")
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.mp3")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSupported(t *testing.T) {
	tests := map[string]bool{
		"a.mp3":  true,
		"b.M4A":  true,
		"c.mp4":  true,
		"d.wav":  false,
		"e.ogg":  false,
		"noext":  false,
		"f.flac": false,
	}
	for path, want := range tests {
		if got := Supported(path); got != want {
			t.Errorf("Supported(%q) = %v, want %v", path, got, want)
		}
	}
}
