package library

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func resolve(t *testing.T, url string) Route {
	t.Helper()
	got, err := ResolveRoute(context.Background(), url)
	if err != nil {
		t.Fatalf("ResolveRoute(%q) error = %v", url, err)
	}
	return got
}

func TestResolveRouteRemotePLS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/listen.pls" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/x-scpls")
		_, _ = w.Write([]byte("[playlist]\nNumberOfEntries=1\nFile1=http://" + r.Host + "/stream;\nTitle1=Demo\nLength1=-1\nVersion=2\n"))
	}))
	defer srv.Close()

	got := resolve(t, srv.URL+"/listen.pls")
	if got.Kind != RoutePlaylist {
		t.Fatalf("kind = %v, want %v", got.Kind, RoutePlaylist)
	}
	if len(got.Playlist) != 1 {
		t.Fatalf("playlist len = %d, want 1", len(got.Playlist))
	}
	if want := srv.URL + "/stream"; got.Playlist[0].URL != want {
		t.Fatalf("playlist URL = %q, want %q", got.Playlist[0].URL, want)
	}
	if got.Playlist[0].Title != "Demo" {
		t.Fatalf("playlist title = %q, want Demo", got.Playlist[0].Title)
	}
}

func TestResolveRouteRemoteM3UWithRelativeEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/radio/listen.m3u" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/x-mpegurl")
		_, _ = w.Write([]byte("#EXTM3U\n#EXTINF:-1,Station\nstream\n"))
	}))
	defer srv.Close()

	got := resolve(t, srv.URL+"/radio/listen.m3u")
	if got.Kind != RoutePlaylist {
		t.Fatalf("kind = %v, want %v", got.Kind, RoutePlaylist)
	}
	if len(got.Playlist) != 1 || got.Playlist[0].URL != srv.URL+"/radio/stream" {
		t.Fatalf("unexpected playlist %+v", got.Playlist)
	}
	if got.Playlist[0].Title != "Station" {
		t.Fatalf("playlist title = %q, want Station", got.Playlist[0].Title)
	}
}

func TestResolveRouteLiveICY(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/stream", "/radio.mp3":
			w.Header().Set("Content-Type", "audio/mpeg")
		case "/radio.ogg":
			w.Header().Set("Content-Type", "application/ogg")
		default:
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Icy-Name", "Demo")
		_, _ = w.Write([]byte("fake-audio-bytes"))
	}))
	defer srv.Close()

	for _, path := range []string{"/stream", "/radio.mp3", "/radio.ogg"} {
		if got := resolve(t, srv.URL+path); got.Kind != RouteLive {
			t.Fatalf("%s: kind = %v, want %v", path, got.Kind, RouteLive)
		}
	}
}

func TestResolveRouteFiniteAudioFile(t *testing.T) {
	data := []byte("1234567890")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	got := resolve(t, srv.URL+"/file.mp3")
	if got.Kind != RouteFile {
		t.Fatalf("kind = %v, want %v", got.Kind, RouteFile)
	}
	if got.FinalURL != srv.URL+"/file.mp3" {
		t.Fatalf("final URL = %q", got.FinalURL)
	}
}

func TestResolveRouteHLSBodyIsLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		_, _ = w.Write([]byte("#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:6\nsegment1.ts\n"))
	}))
	defer srv.Close()

	if got := resolve(t, srv.URL+"/live.m3u8"); got.Kind != RouteLive {
		t.Fatalf("kind = %v, want %v", got.Kind, RouteLive)
	}
}

func TestResolveRouteRejectsBadURL(t *testing.T) {
	for _, u := range []string{"ftp://example.com/a.mp3", "http://", "not a url"} {
		if _, err := ResolveRoute(context.Background(), u); err == nil {
			t.Fatalf("expected error for %q", u)
		}
	}
}
