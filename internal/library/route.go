package library

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/olivier-w/audiovisual/internal/media"
)

// RouteKind describes how a URL given on the command line is played.
type RouteKind int

const (
	// RouteFile is a finite file, fetched before playing.
	RouteFile RouteKind = iota
	// RouteLive is a radio stream, decoded while it plays.
	RouteLive
	// RoutePlaylist is a remote playlist wrapping other URLs.
	RoutePlaylist
)

func (k RouteKind) String() string {
	switch k {
	case RouteLive:
		return "live"
	case RoutePlaylist:
		return "playlist"
	default:
		return "file"
	}
}

// Route is the classification of a URL.
type Route struct {
	Kind     RouteKind
	FinalURL string
	Playlist []media.PlaylistEntry
}

const (
	routeProbeTimeout   = 4 * time.Second
	routeProbeBodyLimit = 128 * 1024
)

var routeHTTPClient = &http.Client{Timeout: routeProbeTimeout}

type probeResult struct {
	originalURL   string
	finalURL      string
	contentType   string
	contentLength int64
	headers       http.Header
	body          string
	chunked       bool
}

// ResolveRoute probes rawURL and classifies it as a file, a live stream or
// a remote playlist.
func ResolveRoute(ctx context.Context, rawURL string) (Route, error) {
	normalized, err := normalizeURL(rawURL)
	if err != nil {
		return Route{}, err
	}
	result := Route{Kind: RouteFile, FinalURL: normalized}

	probe, err := probeURL(ctx, normalized)
	if err != nil {
		return result, err
	}
	if probe.finalURL != "" {
		result.FinalURL = probe.finalURL
	}

	switch {
	case hasHLSBodyMarker(probe.body):
		result.Kind = RouteLive
	case isRemotePlaylist(probe):
		if entries := parseRemotePlaylistBody(probe.body, result.FinalURL); len(entries) > 0 {
			result.Kind = RoutePlaylist
			result.Playlist = entries
		} else if isLiveProbe(probe) {
			result.Kind = RouteLive
		}
	case isLiveProbe(probe):
		result.Kind = RouteLive
	}
	return result, nil
}

func probeURL(ctx context.Context, rawURL string) (probeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, routeProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return probeResult{}, err
	}
	req.Header.Set("Range", "bytes=0-65535")
	req.Header.Set("Icy-MetaData", "1")
	req.Header.Set("User-Agent", "audiovisual")

	resp, err := routeHTTPClient.Do(req)
	if err != nil {
		return probeResult{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, routeProbeBodyLimit))
	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			contentType = mediaType
		} else {
			contentType = strings.Split(contentType, ";")[0]
		}
		contentType = strings.ToLower(strings.TrimSpace(contentType))
	}

	p := probeResult{
		originalURL:   rawURL,
		finalURL:      rawURL,
		contentType:   contentType,
		contentLength: resp.ContentLength,
		headers:       resp.Header,
		body:          string(body),
	}
	if resp.Request != nil && resp.Request.URL != nil {
		p.finalURL = resp.Request.URL.String()
	}
	for _, enc := range resp.TransferEncoding {
		if strings.EqualFold(strings.TrimSpace(enc), "chunked") {
			p.chunked = true
			break
		}
	}
	return p, nil
}

func isRemotePlaylist(p probeResult) bool {
	if hasPlaylistExt(p.originalURL) || hasPlaylistExt(p.finalURL) {
		return true
	}
	switch p.contentType {
	case "audio/x-mpegurl", "application/x-mpegurl", "application/vnd.apple.mpegurl",
		"audio/mpegurl", "audio/x-scpls", "application/pls+xml":
		return true
	}
	return hasPlaylistBodyMarker(p.body)
}

func isLiveProbe(p probeResult) bool {
	for key := range p.headers {
		if strings.HasPrefix(strings.ToLower(key), "icy-") {
			return true
		}
	}
	if p.contentType == "application/vnd.apple.mpegurl" || p.contentType == "application/x-mpegurl" {
		return true
	}
	audioLike := strings.HasPrefix(p.contentType, "audio/") ||
		p.contentType == "application/ogg" ||
		p.contentType == "application/aacp"
	return audioLike && (p.contentLength <= 0 || p.chunked)
}

func hasPlaylistExt(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	return media.IsPlaylistExt(pathExt(parsed.Path))
}

func pathExt(p string) string {
	if i := strings.LastIndexByte(p, '.'); i >= 0 && !strings.Contains(p[i:], "/") {
		return strings.ToLower(p[i:])
	}
	return ""
}

// firstLine returns the first non-blank line of body.
func firstLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if trimmed := strings.TrimSpace(strings.TrimPrefix(line, "\uFEFF")); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func hasPlaylistBodyMarker(body string) bool {
	lower := strings.ToLower(firstLine(body))
	return strings.HasPrefix(lower, "#extm3u") || lower == "[playlist]"
}

func hasHLSBodyMarker(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(line)), "#EXT-X-") {
			return true
		}
	}
	return false
}

func parseRemotePlaylistBody(body, baseURL string) []media.PlaylistEntry {
	return media.ParsePlaylist(body, media.LooksLikePLS(body), func(loc string) (media.PlaylistEntry, bool) {
		u, ok := resolvePlaylistURL(loc, baseURL)
		return media.PlaylistEntry{URL: u}, ok
	})
}

func resolvePlaylistURL(raw, baseURL string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	if !parsed.IsAbs() {
		base, err := url.Parse(baseURL)
		if err != nil {
			return "", false
		}
		parsed = base.ResolveReference(parsed)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return "", false
	}
	return parsed.String(), true
}

func normalizeURL(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return "", fmt.Errorf("invalid URL %q: must be http(s)", rawURL)
	}
	return parsed.String(), nil
}
