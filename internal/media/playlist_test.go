package media

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writePlaylist(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}
	return path
}

func TestParseLocalPlaylistM3U(t *testing.T) {
	playlist := writePlaylist(t, "list.m3u",
		"\uFEFF#EXTM3U\n\n#EXTINF:212,Artist - Song\nsong1.mp3\n#comment\n\"https://example.com/stream\"\nsub/song2.wav\n")
	dir := filepath.Dir(playlist)

	got, err := ParseLocalPlaylist(playlist)
	if err != nil {
		t.Fatalf("ParseLocalPlaylist() error = %v", err)
	}
	want := []PlaylistEntry{
		{Path: filepath.Join(dir, "song1.mp3"), Title: "Artist - Song"},
		{URL: "https://example.com/stream", Title: "https://example.com/stream"},
		{Path: filepath.Join(dir, "sub", "song2.wav")},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseLocalPlaylist() = %#v, want %#v", got, want)
	}
}

func TestParseLocalPlaylistPLS(t *testing.T) {
	playlist := writePlaylist(t, "list.pls",
		"[playlist]\nFile2=https://example.com/live;\n file1 = one.flac \nTitle1=One\nLength1=120\nFileX=bad.mp3\nFile3=\n")
	dir := filepath.Dir(playlist)

	got, err := ParseLocalPlaylist(playlist)
	if err != nil {
		t.Fatalf("ParseLocalPlaylist() error = %v", err)
	}
	want := []PlaylistEntry{
		{Path: filepath.Join(dir, "one.flac"), Title: "One"},
		{URL: "https://example.com/live", Title: "https://example.com/live"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseLocalPlaylist() = %#v, want %#v", got, want)
	}
}

func TestParseLocalPlaylistRejects(t *testing.T) {
	if _, err := ParseLocalPlaylist(writePlaylist(t, "list.txt", "a.mp3")); err == nil {
		t.Fatal("expected error for unknown playlist extension")
	}
	if _, err := ParseLocalPlaylist(writePlaylist(t, "list.m3u", "\xff\xfe")); err == nil {
		t.Fatal("expected error for invalid UTF-8")
	}
}

func TestParsePlaylistDropsRejectedLocations(t *testing.T) {
	only := func(loc string) (PlaylistEntry, bool) {
		return PlaylistEntry{URL: loc}, IsURL(loc)
	}
	got := ParsePlaylist("#EXTINF:-1,Skipped\nlocal.mp3\n#EXTINF:-1,Radio\nhttp://radio/a\n", false, only)
	want := []PlaylistEntry{{URL: "http://radio/a", Title: "Radio"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParsePlaylist() = %#v, want %#v", got, want)
	}
}

func TestLooksLikePLS(t *testing.T) {
	tests := map[string]bool{
		"[playlist]\nFile1=a":           true,
		"\uFEFF[Playlist]\n":            true,
		"NumberOfEntries=1\nFile1 = x":  true,
		"#EXTM3U\nhttp://a/b":           false,
		"":                              false,
	}
	for text, want := range tests {
		if got := LooksLikePLS(text); got != want {
			t.Fatalf("LooksLikePLS(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestFilterPlayablePlaylistEntries(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}
	valid, validOGG, unsupported := write("ok.mp3"), write("chapter.ogg"), write("book.m4b")
	subdir := filepath.Join(dir, "folder")
	if err := os.Mkdir(subdir, 0o755); err != nil {
		t.Fatalf("create dir: %v", err)
	}

	got, skipped := FilterPlayablePlaylistEntries([]PlaylistEntry{
		{Path: valid, Title: "Kept"},
		{Path: validOGG},
		{Path: filepath.Join(dir, "missing.mp3")},
		{Path: unsupported},
		{Path: subdir},
		{URL: "https://example.com/track.mp3", Title: "https://example.com/track.mp3"},
	})
	want := []PlaylistEntry{
		{Path: valid, Title: "Kept"},
		{Path: validOGG},
		{URL: "https://example.com/track.mp3", Title: "https://example.com/track.mp3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FilterPlayablePlaylistEntries() = %#v, want %#v", got, want)
	}
	if skipped != 3 {
		t.Fatalf("FilterPlayablePlaylistEntries() skipped=%d, want 3", skipped)
	}
}
