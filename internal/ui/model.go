package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/audiovisual/internal/config"
	"github.com/olivier-w/audiovisual/internal/library"
	"github.com/olivier-w/audiovisual/internal/player"
	"github.com/olivier-w/audiovisual/internal/queue"
	"github.com/olivier-w/audiovisual/internal/visualizer"
)

const (
	seekStep     = 5 * time.Second
	gainStep     = 0.1
	maxGain      = 2.0
	maxListRows  = 6
	headerRows   = 3
	appName      = "audiovisual"
	noItemsTitle = "Nothing to play"
)

// Options configures the player model.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	// Library fetches remote items. When it has a server URL, the server's
	// file list is added on start.
	Library *library.Client
	// Items are added on start.
	Items []queue.Item
	// Dir is where the file browser opens.
	Dir string
}

// Model is the Bubbletea model for the player screen.
type Model struct {
	cfg     *config.Config
	logger  *slog.Logger
	library *library.Client
	history *queue.History
	vis     *visualizer.Visualizer
	initial []queue.Item

	ctx    context.Context
	cancel context.CancelFunc

	keys     keyMap
	help     help.Model
	items    list.Model
	spinner  spinner.Model
	browser  BrowserModel
	browsing bool
	dir      string

	el       element
	playing  bool
	loading  bool
	repeat   RepeatMode
	shuffle  ShuffleMode
	failures int
	status   string
	err      error

	width, height int
	quitting      bool

	open    func(*queue.FileItem) (element, error)
	openMic func() (queue.Capture, error)
}

// New creates the player model. Playback starts with the first added item.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	lib := opts.Library
	if lib == nil {
		lib, _ = library.NewClient("", logger)
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(selectedBorder)

	history := queue.NewHistory()
	vis := visualizer.New(visualizer.OptionsFromConfig(cfg, logger))
	vis.Session().SetGain(cfg.Player.Gain)

	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		cfg:     cfg,
		logger:  logger,
		library: lib,
		history: history,
		vis:     vis,
		initial: opts.Items,
		ctx:     ctx,
		cancel:  cancel,
		keys:    defaultKeys(),
		help:    help.New(),
		items:   newItemList(history.Current),
		spinner: s,
		dir:     dir,
		playing: true,
		open:    openPlayer(logger),
		openMic: openMicrophone(logger),
	}
	if cfg.Player.Repeat {
		m.repeat = RepeatOne
	}
	if cfg.Player.Shuffle {
		m.shuffle = ShuffleOn
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), tea.SetWindowTitle(appName)}
	if len(m.initial) > 0 {
		items := m.initial
		cmds = append(cmds, func() tea.Msg { return itemsAddedMsg{items: items} })
	}
	if m.library.HasServer() {
		cmds = append(cmds, libraryCmd(m.ctx, m.library), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.handleMsg(msg)
}

func (m Model) handleMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if m.browsing {
			var cmd tea.Cmd
			m.browser, cmd = m.browser.Update(msg)
			return m, cmd
		}
		return m.handleKey(msg)

	case BrowserSelectedMsg:
		m.browsing = false
		m.dir = m.browser.Dir()
		m.loading = true
		return m, tea.Batch(resolveCmd(m.ctx, msg.Refs), m.spinner.Tick)

	case BrowserCancelledMsg:
		m.browsing = false
		m.dir = m.browser.Dir()
		return m, nil

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case itemsAddedMsg:
		m.loading = false
		if msg.err != nil {
			m.setError(msg.err)
		} else if msg.skipped > 0 {
			m.status = fmt.Sprintf("skipped %d unplayable entries", msg.skipped)
		}
		return m, m.addItems(msg.items)

	case micOpenedMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("opening microphone: %w", msg.err))
			return m, nil
		}
		item := queue.NewStream(msg.capture, "")
		return m, tea.Batch(waitCapture(item), m.addItems([]queue.Item{item}))

	case captureEndedMsg:
		m.logger.Info("capture ended", slog.String("item", msg.item.Title()))
		return m, m.remove(msg.item)

	case fetchedMsg:
		if msg.err == nil {
			// A removed item deletes the download here.
			msg.item.SetPath(msg.path, true)
		}
		if m.history.Current() != msg.item {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, m.skip()
		}
		return m, m.openFile(msg.item)

	case playbackEndedMsg:
		if msg.el != m.el {
			return m, nil
		}
		if m.repeat == RepeatOne {
			return m, tea.Batch(m.applyPlaying(), waitDone(m.el))
		}
		return m, m.next()

	case liveTitleMsg:
		if msg.el != m.el {
			return m, nil
		}
		if item, ok := m.history.Current().(*queue.FileItem); ok {
			item.SetTitle(msg.title)
			m.refreshList()
		}
		return m, tea.Batch(waitTitle(msg.el), tea.SetWindowTitle(m.windowTitle()))
	}

	if m.browsing {
		var cmd tea.Cmd
		m.browser, cmd = m.browser.Update(msg)
		return m, tea.Batch(cmd, m.vis.Update(msg))
	}
	return m, m.vis.Update(msg)
}

// handleKey runs the action bound to msg. Any key dismisses the last
// error.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.err = nil
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.shutdown()
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)

	case key.Matches(msg, m.keys.PlayPause):
		m.playing = !m.playing
		return m, tea.Batch(m.applyPlaying(), tea.SetWindowTitle(m.windowTitle()))

	case key.Matches(msg, m.keys.Prev):
		item := m.history.Previous()
		if item == nil {
			return m, nil
		}
		m.refreshList()
		return m, m.switchTo(item)

	case key.Matches(msg, m.keys.Next):
		return m, m.next()

	case key.Matches(msg, m.keys.SeekBack), key.Matches(msg, m.keys.SeekFwd):
		if m.el == nil {
			return m, nil
		}
		delta := seekStep
		if key.Matches(msg, m.keys.SeekBack) {
			delta = -seekStep
		}
		if err := m.el.Seek(delta); err != nil && !errors.Is(err, player.ErrNotSeekable) {
			m.setError(err)
		}
		return m, nil

	case key.Matches(msg, m.keys.Repeat):
		m.repeat = m.repeat.Next()
		return m, nil

	case key.Matches(msg, m.keys.Shuffle):
		m.shuffle = m.shuffle.Toggle()
		return m, nil

	case key.Matches(msg, m.keys.Updating):
		return m, m.vis.SetUpdating(!m.vis.Updating())

	case key.Matches(msg, m.keys.GainUp), key.Matches(msg, m.keys.GainDown):
		s := m.vis.Session()
		step := gainStep
		if key.Matches(msg, m.keys.GainDown) {
			step = -gainStep
		}
		s.SetGain(max(0, min(s.Gain()+step, maxGain)))
		return m, nil

	case key.Matches(msg, m.keys.Add):
		m.browsing = true
		m.browser = NewBrowser(m.dir)
		m.browser.SetSize(m.width, m.height)
		return m, nil

	case key.Matches(msg, m.keys.Mic):
		return m, openMicCmd(m.openMic)

	case key.Matches(msg, m.keys.Remove):
		if li, ok := m.items.SelectedItem().(listItem); ok {
			return m, m.remove(li.item)
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		li, ok := m.items.SelectedItem().(listItem)
		if !ok || li.item == m.history.Current() {
			return m, nil
		}
		m.history.Select(li.item)
		m.refreshList()
		return m, m.switchTo(li.item)

	case key.Matches(msg, m.keys.Up):
		m.items.CursorUp()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.items.CursorDown()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil
	}
	return m, nil
}

// addItems appends items and starts playing when nothing is current.
func (m *Model) addItems(items []queue.Item) tea.Cmd {
	if len(items) == 0 {
		return nil
	}
	m.history.Add(items...)
	m.refreshList()
	if m.history.Current() != nil {
		return nil
	}
	return m.next()
}

func (m *Model) next() tea.Cmd {
	item := m.history.Next(m.shuffle == ShuffleOn)
	m.refreshList()
	return m.switchTo(item)
}

// skip moves past an item that could not be played, giving up once every
// item failed in a row.
func (m *Model) skip() tea.Cmd {
	m.failures++
	if m.failures >= m.history.Len() {
		m.closeElement()
		m.status = "nothing playable"
		return nil
	}
	return m.next()
}

// remove drops item from the playlist. Removing the current item plays
// the one that followed it.
func (m *Model) remove(item queue.Item) tea.Cmd {
	if m.history.Index(item) < 0 {
		return nil
	}
	wasCurrent := m.history.Current() == item
	if wasCurrent {
		m.closeElement()
	}
	if s, ok := item.(*queue.StreamItem); ok {
		m.vis.Session().RemoveStream(s.Capture())
	}
	next := m.history.Remove(item)
	m.refreshList()
	if !wasCurrent {
		return nil
	}
	return m.switchTo(next)
}

// switchTo makes item the playing item. The history cursor must already
// point at it.
func (m *Model) switchTo(item queue.Item) tea.Cmd {
	m.closeElement()
	m.loading = false
	switch it := item.(type) {
	case *queue.FileItem:
		if !it.HasFile() {
			m.loading = true
			m.status = "fetching " + it.Title()
			return tea.Batch(fetchCmd(m.ctx, it, m.library), m.spinner.Tick)
		}
		return m.openFile(it)
	case *queue.StreamItem:
		return m.attach(newSilentElement(m.logger))
	}
	return tea.SetWindowTitle(appName)
}

func (m *Model) openFile(item *queue.FileItem) tea.Cmd {
	if err := item.AddTags(); err != nil {
		m.logger.Debug("reading tags", slog.String("item", item.Title()), slog.Any("error", err))
	}
	el, err := m.open(item)
	if err != nil {
		m.setError(fmt.Errorf("opening %s: %w", item.Title(), err))
		return m.skip()
	}
	return m.attach(el)
}

// attach plays el, or the current stream item through el.
func (m *Model) attach(el element) tea.Cmd {
	if err := m.vis.Attach(el); err != nil {
		el.Close()
		m.setError(err)
		return nil
	}
	m.el = el
	m.failures = 0
	m.status = ""
	return tea.Batch(m.applyPlaying(), waitDone(el), waitTitle(el), tea.SetWindowTitle(m.windowTitle()))
}

// applyPlaying starts or pauses the current element or stream.
func (m *Model) applyPlaying() tea.Cmd {
	if m.el == nil {
		return nil
	}
	var stream queue.Capture
	if s, ok := m.history.Current().(*queue.StreamItem); ok {
		stream = s.Capture()
	}
	cmd, err := m.vis.SetPlaying(m.playing, stream)
	if err != nil {
		m.setError(err)
	}
	return cmd
}

func (m *Model) closeElement() {
	if m.el == nil {
		return
	}
	m.vis.Detach()
	m.el.Close()
	m.el = nil
}

func (m *Model) shutdown() {
	m.cancel()
	m.closeElement()
	m.history.CleanupAll()
}

func (m *Model) setError(err error) {
	m.err = err
	m.logger.Warn("playback error", slog.Any("error", err))
}

func (m *Model) refreshList() {
	m.items.SetItems(listItems(m.history.Items()))
	if idx := m.history.Index(m.history.Current()); idx >= 0 {
		m.items.Select(idx)
	}
	m.resize()
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.help.Width = m.width
	listRows := min(max(m.history.Len(), 1), maxListRows)
	m.items.SetSize(m.width, listRows)
	helpRows := lipgloss.Height(m.help.View(m.keys))
	m.vis.Resize(m.width, max(m.height-headerRows-listRows-helpRows-1, 0))
	m.browser.SetSize(m.width, m.height)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.browsing {
		return m.browser.View()
	}
	if m.history.Len() == 0 {
		return m.emptyView()
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.vis.View())
	b.WriteString("\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(m.items.View())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) emptyView() string {
	var b strings.Builder
	b.WriteString("\n  " + headerStyle.Render(appName) + "\n\n")
	if m.loading {
		b.WriteString("  " + m.spinner.View() + " loading...\n")
	} else {
		b.WriteString("  " + titleStyle.Render(noItemsTitle) + "\n")
		b.WriteString("  " + artistStyle.Render("press a to select some songs, m to use your microphone") + "\n")
	}
	if m.err != nil {
		b.WriteString("\n  " + errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n  " + m.help.View(m.keys) + "\n")
	return b.String()
}

// headerView renders the title, artist line and cover art path.
func (m Model) headerView() string {
	title, sub, cover := noItemsTitle, "", ""
	switch it := m.history.Current().(type) {
	case *queue.FileItem:
		title = it.Title()
		if it.Live() {
			sub = "live stream"
		} else {
			sub = it.Artist() + " · " + it.Album()
		}
		if p := it.Picture(); p != "" {
			cover = "cover: " + p
		}
	case *queue.StreamItem:
		title, sub = it.Title(), "microphone"
	}
	if m.loading {
		title = m.spinner.View() + " " + title
	}
	lines := []string{
		truncate(" "+titleStyle.Render(title), m.width),
		truncate(" "+artistStyle.Render(sub), m.width),
		truncate(" "+timeStyle.Render(cover), m.width),
	}
	return strings.Join(lines, "\n")
}

func (m Model) statusView() string {
	state := "❚❚ paused"
	if m.playing {
		state = "▶ playing"
	}
	var clock string
	if m.el != nil {
		clock = renderClock(m.el.Position(), m.el.Duration(), m.el.Live())
	}
	left := " " + statusStyle.Render(state)
	if clock != "" {
		left += "  " + timeStyle.Render(clock)
	}
	switch {
	case m.err != nil:
		left += "  " + errorStyle.Render(m.err.Error())
	case m.status != "":
		left += "  " + statusStyle.Render(m.status)
	}
	right := statusStyle.Render(strings.TrimSpace(renderModes(m)+" "+renderGain(m.vis.Session().Gain()))) + " "
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return truncate(left, m.width)
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) windowTitle() string {
	item := m.history.Current()
	if item == nil {
		return appName
	}
	if !m.playing {
		return "⏸ " + item.Title() + " · " + appName
	}
	return "▶ " + item.Title() + " · " + appName
}
