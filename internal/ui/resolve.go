package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/olivier-w/audiovisual/internal/library"
	"github.com/olivier-w/audiovisual/internal/media"
	"github.com/olivier-w/audiovisual/internal/queue"
)

// Resolved is the outcome of resolving command line or picker arguments.
type Resolved struct {
	Items   []queue.Item
	Skipped int
}

// ResolveItems turns local files, directories, playlists and URLs into
// playlist items. Unplayable entries are skipped and counted.
func ResolveItems(ctx context.Context, refs []string) (Resolved, error) {
	var res Resolved
	for _, ref := range refs {
		if media.IsURL(ref) {
			if err := res.addURL(ctx, ref); err != nil {
				return res, err
			}
			continue
		}
		if err := res.addLocal(ref); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (r *Resolved) addURL(ctx context.Context, ref string) error {
	route, err := library.ResolveRoute(ctx, ref)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", ref, err)
	}
	switch route.Kind {
	case library.RouteLive:
		r.Items = append(r.Items, queue.NewLiveFile(route.FinalURL))
	case library.RoutePlaylist:
		for _, e := range route.Playlist {
			r.addEntry(e)
		}
	default:
		r.Items = append(r.Items, queue.NewRemoteFile(route.FinalURL, "", "", ""))
	}
	return nil
}

func (r *Resolved) addLocal(ref string) error {
	info, err := os.Stat(ref)
	if err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(ref))
	switch {
	case info.IsDir():
		entries, err := os.ReadDir(ref)
		if err != nil {
			return fmt.Errorf("cannot read directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !media.IsSupportedExt(filepath.Ext(e.Name())) {
				continue
			}
			r.Items = append(r.Items, queue.NewFile(filepath.Join(ref, e.Name())))
		}
	case media.IsPlaylistExt(ext):
		entries, err := media.ParseLocalPlaylist(ref)
		if err != nil {
			return err
		}
		playable, skipped := media.FilterPlayablePlaylistEntries(entries)
		r.Skipped += skipped
		for _, e := range playable {
			r.addEntry(e)
		}
	case media.IsSupportedExt(ext):
		r.Items = append(r.Items, queue.NewFile(ref))
	default:
		return fmt.Errorf("unsupported file type %s (supported: %s)", ext, media.SupportedExtsList())
	}
	return nil
}

// addEntry adds a playlist entry. Remote entries with an audio file
// extension are fetched; anything else is treated as a radio stream.
func (r *Resolved) addEntry(e media.PlaylistEntry) {
	if e.URL == "" {
		item := queue.NewFile(e.Path)
		item.SetTitle(e.Title)
		r.Items = append(r.Items, item)
		return
	}
	title := e.Title
	if title == e.URL {
		title = ""
	}
	if media.IsAudioURL(e.URL) {
		r.Items = append(r.Items, queue.NewRemoteFile(e.URL, title, "", ""))
		return
	}
	item := queue.NewLiveFile(e.URL)
	item.SetTitle(title)
	r.Items = append(r.Items, item)
}

// LibraryItems creates items for the entries listed by a library server.
func LibraryItems(entries []library.Entry) []queue.Item {
	items := make([]queue.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, queue.NewRemoteFile(e.URL, e.Title, e.Artist, e.Album))
	}
	return items
}
