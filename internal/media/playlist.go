package media

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// PlaylistEntry is one playlist location: a local path or a URL. Title is
// set from #EXTINF or TitleN lines, and defaults to the URL for URLs.
type PlaylistEntry struct {
	Path  string
	URL   string
	Title string
}

// Resolver maps a playlist location to an entry. Rejected locations are
// dropped.
type Resolver func(loc string) (PlaylistEntry, bool)

// ParseLocalPlaylist parses a local .m3u/.m3u8/.pls file. Relative entries
// are resolved against the playlist file directory; HTTP entries are kept
// as URLs.
func ParseLocalPlaylist(path string) ([]PlaylistEntry, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsPlaylistExt(ext) {
		return nil, fmt.Errorf("unsupported playlist format %s", ext)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("playlist is not valid UTF-8")
	}
	return ParsePlaylist(string(data), ext == ".pls", LocalResolver(filepath.Dir(abs))), nil
}

// LocalResolver keeps URLs and resolves other locations against baseDir.
func LocalResolver(baseDir string) Resolver {
	return func(loc string) (PlaylistEntry, bool) {
		if IsURL(loc) {
			return PlaylistEntry{URL: loc}, true
		}
		p := filepath.Clean(loc)
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		return PlaylistEntry{Path: p}, true
	}
}

// ParsePlaylist parses M3U text, or PLS text when pls is set. Entries keep
// playlist order; PLS entries are ordered by their index.
func ParsePlaylist(text string, pls bool, resolve Resolver) []PlaylistEntry {
	text = strings.TrimPrefix(text, "\uFEFF")
	var entries []PlaylistEntry
	if pls {
		entries = parsePLS(text, resolve)
	} else {
		entries = parseM3U(text, resolve)
	}
	for i := range entries {
		if entries[i].Title == "" && entries[i].URL != "" {
			entries[i].Title = entries[i].URL
		}
	}
	return entries
}

// LooksLikePLS reports whether text has a [playlist] header or a File1 key.
func LooksLikePLS(text string) bool {
	for line := range strings.Lines(strings.TrimPrefix(text, "\uFEFF")) {
		line = strings.ToLower(strings.TrimSpace(line))
		key, _, ok := strings.Cut(line, "=")
		if line == "[playlist]" || ok && strings.TrimSpace(key) == "file1" {
			return true
		}
	}
	return false
}

func parseM3U(text string, resolve Resolver) []PlaylistEntry {
	entries := make([]PlaylistEntry, 0)
	title := ""
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := cleanValue(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(strings.ToLower(line), "#extinf:"):
			if _, t, ok := strings.Cut(line, ","); ok {
				title = strings.TrimSpace(t)
			}
			continue
		case strings.HasPrefix(line, "#"):
			continue
		}
		if e, ok := resolve(line); ok {
			e.Title = title
			entries = append(entries, e)
		}
		title = ""
	}
	return entries
}

func parsePLS(text string, resolve Resolver) []PlaylistEntry {
	files := make(map[int]string)
	titles := make(map[int]string)
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		key, val, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if val = cleanValue(val); val == "" {
			continue
		}
		if i, ok := plsIndex(key, "file"); ok {
			files[i] = val
		} else if i, ok := plsIndex(key, "title"); ok {
			titles[i] = val
		}
	}

	indices := make([]int, 0, len(files))
	for i := range files {
		indices = append(indices, i)
	}
	slices.Sort(indices)

	entries := make([]PlaylistEntry, 0, len(indices))
	for _, i := range indices {
		if e, ok := resolve(files[i]); ok {
			e.Title = titles[i]
			entries = append(entries, e)
		}
	}
	return entries
}

func plsIndex(key, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(key, prefix)
	if !ok || rest == "" {
		return 0, false
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i <= 0 {
		return 0, false
	}
	return i, true
}

// cleanValue strips quotes and a trailing semicolon, which some stations
// append to PLS entries.
func cleanValue(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return strings.TrimSpace(strings.TrimSuffix(s, ";"))
}

// FilterPlayablePlaylistEntries keeps URLs and existing, supported local
// files, with local paths made absolute. It returns the number of entries
// dropped.
func FilterPlayablePlaylistEntries(entries []PlaylistEntry) ([]PlaylistEntry, int) {
	out := make([]PlaylistEntry, 0, len(entries))
	for _, e := range entries {
		if e.URL != "" {
			out = append(out, e)
			continue
		}
		info, err := os.Stat(e.Path)
		if err != nil || info.IsDir() || !IsSupportedExt(filepath.Ext(e.Path)) {
			continue
		}
		if abs, err := filepath.Abs(e.Path); err == nil {
			e.Path = abs
		}
		out = append(out, e)
	}
	return out, len(entries) - len(out)
}
