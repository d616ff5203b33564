// Package library scans a music directory into a file list, caches the
// list next to the files, and fetches listed files from a library server.
package library

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// FileListName is the cached list written into the scanned directory.
	FileListName = ".files.json"
	// FilesPrefix is the URL path under which listed files are served.
	FilesPrefix = "/files"
	// ListPath is the URL path of the file list.
	ListPath = "/files.json"
)

// ErrNoFileList is returned when a directory has not been scanned yet.
var ErrNoFileList = errors.New("library: file list not found")

// ErrNoServer is returned when a relative reference is fetched by a client
// without a server URL.
var ErrNoServer = errors.New("library: no server for relative URL")

// Entry is one listed file. Tag fields are empty when unknown.
type Entry struct {
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
}

// CompileMatch compiles a file match pattern with regular expression flags
// in the style of the original command line: i (case-insensitive),
// m (multi-line) and s (dot matches newline). g, u and y are accepted and
// have no effect.
func CompileMatch(pattern, flags string) (*regexp.Regexp, error) {
	var inline strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			if !strings.ContainsRune(inline.String(), f) {
				inline.WriteRune(f)
			}
		case 'g', 'u', 'y':
		default:
			return nil, fmt.Errorf("unknown match flag %q", f)
		}
	}
	if inline.Len() > 0 {
		pattern = "(?" + inline.String() + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling match pattern: %w", err)
	}
	return re, nil
}
