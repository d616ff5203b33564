package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/audiovisual/internal/config"
	"github.com/olivier-w/audiovisual/internal/events"
	"github.com/olivier-w/audiovisual/internal/player"
	"github.com/olivier-w/audiovisual/internal/queue"
	"github.com/olivier-w/audiovisual/internal/spectral"
)

type fakeElement struct {
	bus    *events.Bus
	paused bool
	closed bool
	plays  int
	live   bool
	done   chan struct{}
	titles chan string
}

func newFakeElement() *fakeElement {
	return &fakeElement{bus: events.NewBus(nil), paused: true, done: make(chan struct{})}
}

func (e *fakeElement) Play() error {
	if e.closed {
		return player.ErrClosed
	}
	e.paused = false
	e.plays++
	return nil
}

func (e *fakeElement) Seek(time.Duration) error {
	if e.live {
		return player.ErrNotSeekable
	}
	return nil
}

func (e *fakeElement) Pause()                      { e.paused = true }
func (e *fakeElement) Paused() bool                { return e.paused }
func (e *fakeElement) Closed() bool                { return e.closed }
func (e *fakeElement) Close()                      { e.closed = true }
func (e *fakeElement) SampleRate() int             { return 1000 }
func (e *fakeElement) ChannelCount() int           { return 2 }
func (e *fakeElement) Route(spectral.Router)       {}
func (e *fakeElement) Events() *events.Bus         { return e.bus }
func (e *fakeElement) Done() <-chan struct{}       { return e.done }
func (e *fakeElement) Position() time.Duration     { return 90 * time.Second }
func (e *fakeElement) Duration() time.Duration     { return 200 * time.Second }
func (e *fakeElement) Live() bool                  { return e.live }
func (e *fakeElement) TitleUpdates() <-chan string { return e.titles }

type fakeCapture struct {
	sink   spectral.Sink
	ended  chan struct{}
	closed bool
}

func newFakeCapture() *fakeCapture {
	return &fakeCapture{ended: make(chan struct{})}
}

func (c *fakeCapture) ID() string              { return "mic-1" }
func (c *fakeCapture) Label() string           { return "Built-in Microphone" }
func (c *fakeCapture) SetSink(s spectral.Sink) { c.sink = s }
func (c *fakeCapture) Ended() <-chan struct{}  { return c.ended }
func (c *fakeCapture) Close() error {
	if !c.closed {
		c.closed = true
		close(c.ended)
	}
	return nil
}

type harness struct {
	m      Model
	opened map[*queue.FileItem]*fakeElement
	fail   map[*queue.FileItem]error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Player.Shuffle = false
	cfg.Analyser.FFTSize = 256
	cfg.Analyser.Delay = 0

	h := &harness{
		opened: make(map[*queue.FileItem]*fakeElement),
		fail:   make(map[*queue.FileItem]error),
	}
	h.m = New(Options{Config: cfg, Dir: t.TempDir()})
	h.m.open = func(item *queue.FileItem) (element, error) {
		if err := h.fail[item]; err != nil {
			return nil, err
		}
		el := newFakeElement()
		el.live = item.Live()
		h.opened[item] = el
		return el, nil
	}
	t.Cleanup(func() { h.m.shutdown() })
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	h.m, cmd = h.m.handleMsg(msg)
	return cmd
}

func (h *harness) key(s string) tea.Cmd {
	switch s {
	case "enter":
		return h.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "down":
		return h.send(tea.KeyMsg{Type: tea.KeyDown})
	}
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func localItems(names ...string) []queue.Item {
	items := make([]queue.Item, len(names))
	for i, n := range names {
		items[i] = queue.NewFile("/music/" + n + ".mp3")
	}
	return items
}

func TestAddItemsStartsFirstItem(t *testing.T) {
	h := newHarness(t)
	items := localItems("a", "b")

	if cmd := h.send(itemsAddedMsg{items: items}); cmd == nil {
		t.Fatal("expected playback commands")
	}
	if h.m.history.Current() != items[0] {
		t.Fatalf("expected first item current, got %v", h.m.history.Current())
	}
	el := h.opened[items[0].(*queue.FileItem)]
	if el == nil || el.paused {
		t.Fatal("expected first item to be playing")
	}
	if !h.m.vis.Animating() {
		t.Fatal("expected the frame loop to run while playing")
	}

	h.send(itemsAddedMsg{items: localItems("c")})
	if h.m.history.Current() != items[0] {
		t.Fatal("adding items must not change the current item")
	}
	if h.m.history.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", h.m.history.Len())
	}
}

func TestPlayPauseKeyTogglesElement(t *testing.T) {
	h := newHarness(t)
	items := localItems("a")
	h.send(itemsAddedMsg{items: items})
	el := h.opened[items[0].(*queue.FileItem)]

	h.key("k")
	if !el.paused || h.m.playing {
		t.Fatal("expected pause")
	}
	if h.m.vis.Animating() {
		t.Fatal("expected the frame loop to stop while paused")
	}

	h.key("k")
	if el.paused || !h.m.playing {
		t.Fatal("expected playback to resume")
	}
}

func TestEndedAdvancesToNextItem(t *testing.T) {
	h := newHarness(t)
	items := localItems("a", "b")
	h.send(itemsAddedMsg{items: items})
	first := h.opened[items[0].(*queue.FileItem)]

	h.send(playbackEndedMsg{el: first})
	if h.m.history.Current() != items[1] {
		t.Fatal("expected ended to advance")
	}
	if !first.closed {
		t.Fatal("expected previous element to be closed")
	}
	if h.m.el != h.opened[items[1].(*queue.FileItem)] {
		t.Fatal("expected second element attached")
	}
}

func TestEndedRepeatsCurrentItem(t *testing.T) {
	h := newHarness(t)
	items := localItems("a", "b")
	h.send(itemsAddedMsg{items: items})
	el := h.opened[items[0].(*queue.FileItem)]

	h.key("r")
	if h.m.repeat != RepeatOne {
		t.Fatal("expected repeat on")
	}
	el.paused = true // playback ended
	h.send(playbackEndedMsg{el: el})

	if h.m.history.Current() != items[0] {
		t.Fatal("expected repeat to keep the current item")
	}
	if el.plays != 2 || el.paused {
		t.Fatalf("expected element restarted, plays=%d paused=%v", el.plays, el.paused)
	}
}

func TestStaleEndedIsIgnored(t *testing.T) {
	h := newHarness(t)
	items := localItems("a", "b")
	h.send(itemsAddedMsg{items: items})

	if cmd := h.send(playbackEndedMsg{el: newFakeElement()}); cmd != nil {
		t.Fatal("expected no command for a stale element")
	}
	if h.m.history.Current() != items[0] {
		t.Fatal("stale ended must not advance")
	}
}

func TestPrevNextKeysWalkHistory(t *testing.T) {
	h := newHarness(t)
	items := localItems("a", "b", "c")
	h.send(itemsAddedMsg{items: items})

	h.key("l")
	h.key("l")
	if h.m.history.Current() != items[2] {
		t.Fatal("expected third item after two nexts")
	}
	h.key("j")
	if h.m.history.Current() != items[1] {
		t.Fatal("expected previous to return to second item")
	}
	if !h.opened[items[2].(*queue.FileItem)].closed {
		t.Fatal("expected the element of the left item to be closed")
	}
}

func TestSelectKeyPlaysHighlightedItem(t *testing.T) {
	h := newHarness(t)
	items := localItems("a", "b", "c")
	h.send(itemsAddedMsg{items: items})

	h.key("down")
	h.key("down")
	h.key("enter")
	if h.m.history.Current() != items[2] {
		t.Fatalf("expected highlighted item to play, got %v", h.m.history.Current().Title())
	}
}

func TestRemoveCurrentPlaysFollowingItem(t *testing.T) {
	h := newHarness(t)
	items := localItems("a", "b", "c")
	h.send(itemsAddedMsg{items: items})
	first := h.opened[items[0].(*queue.FileItem)]

	h.key("d")
	if !first.closed {
		t.Fatal("expected removed item's element to close")
	}
	if h.m.history.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", h.m.history.Len())
	}
	if h.m.history.Current() != items[1] {
		t.Fatal("expected the following item to become current")
	}
	if h.m.el != h.opened[items[1].(*queue.FileItem)] {
		t.Fatal("expected following item attached")
	}
}

func TestRemoveLastItemStopsPlayback(t *testing.T) {
	h := newHarness(t)
	items := localItems("a")
	h.send(itemsAddedMsg{items: items})

	h.key("d")
	if h.m.el != nil || h.m.history.Current() != nil {
		t.Fatal("expected nothing playing")
	}
	if !strings.Contains(h.m.View(), noItemsTitle) {
		t.Fatal("expected empty view")
	}
}

func TestFetchFailureSkipsToNextItem(t *testing.T) {
	h := newHarness(t)
	remote := queue.NewRemoteFile("/files/gone.mp3", "Gone", "", "")
	local := queue.NewFile("/music/here.mp3")
	h.send(itemsAddedMsg{items: []queue.Item{remote, local}})
	if !h.m.loading {
		t.Fatal("expected loading while fetching")
	}

	h.send(fetchedMsg{item: remote, err: errors.New("GET /files/gone.mp3: 404 Not Found")})
	if h.m.loading {
		t.Fatal("expected loading to clear")
	}
	if h.m.history.Current() != local {
		t.Fatal("expected fetch failure to skip")
	}
	if h.m.err == nil {
		t.Fatal("expected fetch error to be shown")
	}
}

func TestFetchFailureOfEveryItemStops(t *testing.T) {
	h := newHarness(t)
	remote := queue.NewRemoteFile("/files/gone.mp3", "Gone", "", "")
	h.send(itemsAddedMsg{items: []queue.Item{remote}})

	if cmd := h.send(fetchedMsg{item: remote, err: errors.New("unreachable")}); cmd != nil {
		t.Fatal("expected no retry when every item failed")
	}
	if h.m.status != "nothing playable" {
		t.Fatalf("unexpected status %q", h.m.status)
	}
}

func TestFetchResultForOtherItemIsIgnored(t *testing.T) {
	h := newHarness(t)
	remote := queue.NewRemoteFile("/files/slow.mp3", "Slow", "", "")
	local := queue.NewFile("/music/here.mp3")
	h.send(itemsAddedMsg{items: []queue.Item{remote, local}})
	h.key("l")

	h.send(fetchedMsg{item: remote, err: errors.New("late")})
	if h.m.history.Current() != local || h.m.err != nil {
		t.Fatal("late fetch result must not affect the current item")
	}
}

type stubFetcher struct{ path string }

func (f stubFetcher) FetchFile(context.Context, string) (string, error) { return f.path, nil }

func TestFetchCmdDoesNotTouchTheItem(t *testing.T) {
	remote := queue.NewRemoteFile("/files/a.mp3", "A", "", "")
	cmd := fetchCmd(context.Background(), remote, stubFetcher{path: "/tmp/audiovisual-a"})

	done := make(chan tea.Msg)
	go func() { done <- cmd() }()
	for range 100 {
		_ = remote.Title()
		_ = remote.HasFile()
	}
	msg := (<-done).(fetchedMsg)
	if msg.path != "/tmp/audiovisual-a" || msg.err != nil {
		t.Fatalf("unexpected fetch result %+v", msg)
	}
	if remote.HasFile() {
		t.Fatal("the command must leave the item to the update loop")
	}
}

func TestFetchedFileIsOpened(t *testing.T) {
	h := newHarness(t)
	remote := queue.NewRemoteFile("/files/a.mp3", "A", "", "")
	h.send(itemsAddedMsg{items: []queue.Item{remote}})

	h.send(fetchedMsg{item: remote, path: "/tmp/audiovisual-a"})
	if remote.Path() != "/tmp/audiovisual-a" {
		t.Fatalf("expected download to be installed, got %q", remote.Path())
	}
	if h.opened[remote] == nil || h.m.loading {
		t.Fatal("expected the fetched file to be opened")
	}
}

func TestFetchAfterRemovalDeletesDownload(t *testing.T) {
	h := newHarness(t)
	remote := queue.NewRemoteFile("/files/slow.mp3", "Slow", "", "")
	local := queue.NewFile("/music/here.mp3")
	h.send(itemsAddedMsg{items: []queue.Item{remote, local}})
	h.key("d")

	dl := filepath.Join(t.TempDir(), "download")
	if err := os.WriteFile(dl, []byte("data"), 0o644); err != nil {
		t.Fatalf("write download: %v", err)
	}
	h.send(fetchedMsg{item: remote, path: dl})
	if _, err := os.Stat(dl); !os.IsNotExist(err) {
		t.Fatal("download of a removed item must be deleted")
	}
	if h.m.history.Current() != local {
		t.Fatal("late fetch result must not change the current item")
	}
}

func TestOpenFailureSkips(t *testing.T) {
	h := newHarness(t)
	items := localItems("broken", "ok")
	h.fail[items[0].(*queue.FileItem)] = errors.New("unsupported audio format")

	h.send(itemsAddedMsg{items: items})
	if h.m.history.Current() != items[1] {
		t.Fatal("expected open failure to skip")
	}
}

func TestMicrophoneItemStreamsAndIsRemovedWhenEnded(t *testing.T) {
	h := newHarness(t)
	mic := newFakeCapture()

	cmd := h.send(micOpenedMsg{capture: mic})
	if cmd == nil {
		t.Fatal("expected commands")
	}
	item, ok := h.m.history.Current().(*queue.StreamItem)
	if !ok {
		t.Fatalf("expected stream item current, got %T", h.m.history.Current())
	}
	if !h.m.vis.Session().Streaming() {
		t.Fatal("expected the capture to feed the analyser")
	}
	if mic.sink == nil {
		t.Fatal("expected a sink on the capture")
	}
	if !strings.Contains(h.m.headerView(), "Built-in Microphone") {
		t.Fatal("expected capture label as title")
	}

	mic.Close()
	h.send(captureEndedMsg{item: item})
	if h.m.history.Len() != 0 || h.m.el != nil {
		t.Fatal("expected ended capture to be removed")
	}
	if h.m.vis.Session().StreamCount() != 0 {
		t.Fatal("expected stream node dropped")
	}
}

func TestMicrophoneOpenErrorIsShown(t *testing.T) {
	h := newHarness(t)
	h.send(micOpenedMsg{err: errors.New("no device")})
	if h.m.err == nil || !strings.Contains(h.m.err.Error(), "microphone") {
		t.Fatalf("unexpected error %v", h.m.err)
	}
}

func TestLiveTitleUpdatesCurrentItem(t *testing.T) {
	h := newHarness(t)
	item := queue.NewLiveFile("http://radio.example/stream")
	h.send(itemsAddedMsg{items: []queue.Item{item}})
	el := h.opened[item]

	if cmd := h.send(liveTitleMsg{el: el, title: "Artist - Song"}); cmd == nil {
		t.Fatal("expected follow-up command")
	}
	if item.Title() != "Artist - Song" {
		t.Fatalf("expected updated title, got %q", item.Title())
	}

	if cmd := h.send(liveTitleMsg{el: newFakeElement(), title: "Stale"}); cmd != nil {
		t.Fatal("expected no command for stale element")
	}
	if item.Title() != "Artist - Song" {
		t.Fatal("stale update must not change the title")
	}
}

func TestSeekIgnoresLiveStreams(t *testing.T) {
	h := newHarness(t)
	h.send(itemsAddedMsg{items: []queue.Item{queue.NewLiveFile("http://radio.example/stream")}})
	h.key(".")
	if h.m.err != nil {
		t.Fatalf("seek on live stream should be silent, got %v", h.m.err)
	}
}

func TestGainKeysClamp(t *testing.T) {
	h := newHarness(t)
	s := h.m.vis.Session()

	h.key("+")
	if g := s.Gain(); g < 1.09 || g > 1.11 {
		t.Fatalf("expected gain 1.1, got %v", g)
	}
	for range 20 {
		h.key("+")
	}
	if s.Gain() != maxGain {
		t.Fatalf("expected gain clamped to %v, got %v", maxGain, s.Gain())
	}
	for range 30 {
		h.key("-")
	}
	if s.Gain() != 0 {
		t.Fatalf("expected gain clamped to 0, got %v", s.Gain())
	}
}

func TestToggleKeys(t *testing.T) {
	h := newHarness(t)
	h.send(itemsAddedMsg{items: localItems("a")})

	h.key("s")
	if h.m.shuffle != ShuffleOn {
		t.Fatal("expected shuffle on")
	}
	h.key("v")
	if h.m.vis.Updating() || h.m.vis.Animating() {
		t.Fatal("expected visuals off")
	}
	h.key("v")
	if !h.m.vis.Animating() {
		t.Fatal("expected visuals back on")
	}
}

func TestViewShowsCurrentItem(t *testing.T) {
	h := newHarness(t)
	item := queue.NewRemoteFile("/files/a.mp3", "Song", "Artist", "")
	item.SetPath("/music/a.mp3", false)
	h.send(tea.WindowSizeMsg{Width: 80, Height: 24})
	h.send(itemsAddedMsg{items: []queue.Item{item}})
	h.key("r")

	view := h.m.View()
	for _, want := range []string{"Song", "Artist · no album", "1:30 / 3:20", "[repeat]", "vol 100%"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if got := len(strings.Split(view, "\n")); got > 24 {
		t.Fatalf("view has %d lines, want at most 24", got)
	}
}

func TestQuitReleasesEverything(t *testing.T) {
	h := newHarness(t)
	items := localItems("a")
	h.send(itemsAddedMsg{items: items})
	el := h.opened[items[0].(*queue.FileItem)]

	if cmd := h.key("q"); cmd == nil {
		t.Fatal("expected quit command")
	}
	if !el.closed {
		t.Fatal("expected element closed on quit")
	}
	if h.m.View() != "" {
		t.Fatal("expected empty view after quit")
	}
	if h.m.ctx.Err() == nil {
		t.Fatal("expected pending work to be cancelled")
	}
}

func TestBrowserSelectionResolvesItems(t *testing.T) {
	h := newHarness(t)
	h.key("a")
	if !h.m.browsing {
		t.Fatal("expected browser open")
	}

	cmd := h.send(BrowserSelectedMsg{Refs: []string{"/nonexistent/song.mp3"}})
	if h.m.browsing || !h.m.loading || cmd == nil {
		t.Fatal("expected browser closed and items resolving")
	}

	h.send(itemsAddedMsg{err: errors.New("stat /nonexistent/song.mp3: no such file or directory")})
	if h.m.loading || h.m.err == nil {
		t.Fatal("expected resolve error shown")
	}
}
