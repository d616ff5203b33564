package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/audiovisual/internal/library"
	"github.com/olivier-w/audiovisual/internal/queue"
)

// tickMsg refreshes the clock in the header.
type tickMsg time.Time

// playbackEndedMsg signals that el finished playing.
type playbackEndedMsg struct {
	el element
}

// fetchedMsg carries the download of a remote item. The item itself is
// updated only when the message is handled.
type fetchedMsg struct {
	item *queue.FileItem
	path string
	err  error
}

// captureEndedMsg signals that a stream item's capture stopped.
type captureEndedMsg struct {
	item *queue.StreamItem
}

// liveTitleMsg carries a now-playing title announced by a live stream.
type liveTitleMsg struct {
	el    element
	title string
}

// micOpenedMsg carries a newly opened microphone.
type micOpenedMsg struct {
	capture queue.Capture
	err     error
}

// itemsAddedMsg carries items resolved from the picker or a library.
type itemsAddedMsg struct {
	items   []queue.Item
	skipped int
	err     error
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitDone(el element) tea.Cmd {
	done := el.Done()
	if done == nil {
		return nil
	}
	return func() tea.Msg {
		<-done
		return playbackEndedMsg{el: el}
	}
}

func waitTitle(el element) tea.Cmd {
	titles := el.TitleUpdates()
	if titles == nil {
		return nil
	}
	return func() tea.Msg {
		title, ok := <-titles
		if !ok {
			return nil
		}
		return liveTitleMsg{el: el, title: title}
	}
}

func waitCapture(item *queue.StreamItem) tea.Cmd {
	return func() tea.Msg {
		<-item.Capture().Ended()
		return captureEndedMsg{item: item}
	}
}

func fetchCmd(ctx context.Context, item *queue.FileItem, fetcher queue.Fetcher) tea.Cmd {
	return func() tea.Msg {
		p, err := queue.FetchFile(ctx, item, fetcher)
		return fetchedMsg{item: item, path: p, err: err}
	}
}

func openMicCmd(open func() (queue.Capture, error)) tea.Cmd {
	return func() tea.Msg {
		c, err := open()
		return micOpenedMsg{capture: c, err: err}
	}
}

func resolveCmd(ctx context.Context, refs []string) tea.Cmd {
	return func() tea.Msg {
		res, err := ResolveItems(ctx, refs)
		return itemsAddedMsg{items: res.Items, skipped: res.Skipped, err: err}
	}
}

func libraryCmd(ctx context.Context, client *library.Client) tea.Cmd {
	return func() tea.Msg {
		entries, err := client.List(ctx)
		return itemsAddedMsg{items: LibraryItems(entries), err: err}
	}
}
