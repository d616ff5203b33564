package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ListPathIn returns the cached file list path for dir.
func ListPathIn(dir string) string {
	return filepath.Join(dir, FileListName)
}

// WriteFileList stores entries in dir and returns the encoded list.
func WriteFileList(dir string, entries []Entry) ([]byte, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(ListPathIn(dir), data, 0o644); err != nil {
		return nil, fmt.Errorf("writing file list: %w", err)
	}
	return data, nil
}

// ReadFileList loads the cached list of dir. The raw bytes are returned so
// the list can be served verbatim. A missing list yields ErrNoFileList.
func ReadFileList(dir string) ([]Entry, []byte, error) {
	p := ListPathIn(dir)
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s (try scanning for files using -s)", ErrNoFileList, p)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading file list: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", p, err)
	}
	return entries, data, nil
}
