package ui

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/olivier-w/audiovisual/internal/library"
	"github.com/olivier-w/audiovisual/internal/media"
	"github.com/olivier-w/audiovisual/internal/queue"
)

func TestResolveItemsLocal(t *testing.T) {
	dir := tempDir(t, map[string]string{
		"a.mp3":         "data",
		"b.wav":         "data",
		"notes.txt":     "data",
		"sub/c.ogg":     "data",
		"list/list.m3u": "#EXTM3U\n../a.mp3\nmissing.mp3\n#EXTINF:-1,Radio One\nhttp://radio.example/live\n",
	})

	res, err := ResolveItems(context.Background(), []string{
		dir,
		filepath.Join(dir, "sub", "c.ogg"),
		filepath.Join(dir, "list", "list.m3u"),
	})
	if err != nil {
		t.Fatalf("ResolveItems returned error: %v", err)
	}
	if res.Skipped != 1 {
		t.Fatalf("expected 1 skipped entry, got %d", res.Skipped)
	}

	var titles []string
	for _, it := range res.Items {
		titles = append(titles, it.Title())
	}
	want := []string{"a.mp3", "b.wav", "c.ogg", "a.mp3", "Radio One"}
	if len(titles) != len(want) {
		t.Fatalf("expected %v, got %v", want, titles)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("item %d: expected %q, got %q", i, want[i], titles[i])
		}
	}
	if live, ok := res.Items[4].(*queue.FileItem); !ok || !live.Live() {
		t.Fatal("expected playlist URL without audio extension to be live")
	}
}

func TestResolveItemsRejectsUnsupportedFiles(t *testing.T) {
	dir := tempDir(t, map[string]string{"notes.txt": "data"})
	if _, err := ResolveItems(context.Background(), []string{filepath.Join(dir, "notes.txt")}); err == nil {
		t.Fatal("expected error for unsupported file")
	}
	if _, err := ResolveItems(context.Background(), []string{filepath.Join(dir, "missing.mp3")}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPlaylistEntryKinds(t *testing.T) {
	var r Resolved
	r.addEntry(media.PlaylistEntry{URL: "http://host/music/song.flac", Title: "http://host/music/song.flac"})
	r.addEntry(media.PlaylistEntry{URL: "http://host/stream", Title: "Jazz FM"})

	file := r.Items[0].(*queue.FileItem)
	if file.Live() || file.HasFile() {
		t.Fatal("expected a remote file to fetch")
	}
	if file.Title() != "song.flac" {
		t.Fatalf("unexpected remote title %q", file.Title())
	}
	radio := r.Items[1].(*queue.FileItem)
	if !radio.Live() || radio.Title() != "Jazz FM" {
		t.Fatalf("expected live item titled Jazz FM, got live=%v %q", radio.Live(), radio.Title())
	}
}

func TestLibraryItems(t *testing.T) {
	items := LibraryItems([]library.Entry{
		{URL: "/files/a.mp3", Title: "A", Artist: "B"},
		{URL: "/files/c.mp3"},
	})
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	a := items[0].(*queue.FileItem)
	if a.Title() != "A" || a.Artist() != "B" || a.Album() != "no album" {
		t.Fatalf("unexpected item %q %q %q", a.Title(), a.Artist(), a.Album())
	}
	if items[1].Title() != "c.mp3" {
		t.Fatalf("expected URL base as title, got %q", items[1].Title())
	}
}
