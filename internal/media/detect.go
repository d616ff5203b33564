// Package media classifies what the player is given: decodable audio
// files, playlists and HTTP URLs.
package media

import (
	"net/url"
	"path"
	"slices"
	"strings"
)

var (
	audioExts    = []string{".mp3", ".wav", ".flac", ".ogg", ".oga"}
	playlistExts = []string{".m3u", ".m3u8", ".pls"}
)

// IsSupportedExt reports whether ext, in any case, is a decodable format.
func IsSupportedExt(ext string) bool {
	return slices.Contains(audioExts, strings.ToLower(ext))
}

// IsPlaylistExt reports whether ext, in any case, is a playlist format.
func IsPlaylistExt(ext string) bool {
	return slices.Contains(playlistExts, strings.ToLower(ext))
}

// IsURL reports whether arg is an http or https URL.
func IsURL(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// IsAudioURL reports whether the path of raw ends in a decodable audio
// extension. Query strings and fragments are ignored.
func IsAudioURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return IsSupportedExt(path.Ext(u.Path))
}

func SupportedExtsList() string {
	return strings.Join(audioExts, ", ")
}
