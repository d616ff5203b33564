package media

import "testing"

func TestIsSupportedExt(t *testing.T) {
	for _, ext := range []string{".mp3", ".WAV", ".flac", ".ogg", ".oga"} {
		if !IsSupportedExt(ext) {
			t.Fatalf("expected %s to be supported", ext)
		}
	}
	for _, ext := range []string{".aac", ".m4a", ".txt", ".m3u", ""} {
		if IsSupportedExt(ext) {
			t.Fatalf("expected %s to be unsupported", ext)
		}
	}
}

func TestIsPlaylistExt(t *testing.T) {
	if !IsPlaylistExt(".M3U8") || !IsPlaylistExt(".pls") || IsPlaylistExt(".mp3") {
		t.Fatal("unexpected playlist classification")
	}
}

func TestIsAudioURL(t *testing.T) {
	tests := map[string]bool{
		"http://host/music/song.flac":     true,
		"https://host/a.MP3?token=1#t=10": true,
		"http://radio.example/live":       false,
		"http://host/list.m3u":            false,
		"http://host/%zz.mp3":             false,
	}
	for raw, want := range tests {
		if got := IsAudioURL(raw); got != want {
			t.Fatalf("IsAudioURL(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestSupportedExtsList(t *testing.T) {
	if got := SupportedExtsList(); got != ".mp3, .wav, .flac, .ogg, .oga" {
		t.Fatalf("SupportedExtsList() = %q", got)
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("https://example.com/a.mp3") || !IsURL("http://radio:8000/") {
		t.Fatal("expected http(s) URLs to be detected")
	}
	if IsURL("/home/me/http.mp3") || IsURL("ftp://example.com/a.mp3") {
		t.Fatal("expected non-http arguments to be rejected")
	}
}
