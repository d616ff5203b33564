package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/audiovisual/internal/media"
)

// BrowserSelectedMsg carries the files, directories or URL picked in the
// browser.
type BrowserSelectedMsg struct {
	Refs []string
}

// BrowserCancelledMsg is sent when the browser closes without a choice.
type BrowserCancelledMsg struct{}

type fileItem struct {
	name   string
	ext    string
	dir    bool
	marked bool
}

func (i fileItem) Title() string {
	mark := "  "
	if i.marked {
		mark = "✓ "
	}
	if i.dir {
		return mark + i.name + "/"
	}
	return mark + strings.TrimSuffix(i.name, i.ext)
}

func (i fileItem) Description() string {
	switch {
	case i.dir:
		return "directory"
	case media.IsPlaylistExt(i.ext):
		return "playlist " + i.ext
	}
	return i.ext
}

func (i fileItem) FilterValue() string { return i.name }

type urlItem struct{}

func (i urlItem) Title() string       { return "Play from URL..." }
func (i urlItem) Description() string { return "file, playlist or radio stream" }
func (i urlItem) FilterValue() string { return "url" }

type allItem struct{}

func (i allItem) Title() string       { return "Add this directory" }
func (i allItem) Description() string { return "every audio file in it" }
func (i allItem) FilterValue() string { return "all" }

// BrowserModel picks local files, playlists or a URL to add. Space marks
// several files; enter adds the marked files, or the one under the cursor.
type BrowserModel struct {
	dir     string
	list    list.Model
	input   textinput.Model
	urlMode bool
	err     error
}

// NewBrowser lists dir. An unreadable directory is reported by Err.
func NewBrowser(dir string) BrowserModel {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(selectedColor).
		BorderLeftForeground(selectedBorder)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(selectedDescColor).
		BorderLeftForeground(selectedBorder)

	l := list.New(nil, delegate, 80, 20)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.Styles.Title = headerStyle

	ti := textinput.New()
	ti.Placeholder = "https://..."
	ti.CharLimit = 2048
	ti.Width = 60

	m := BrowserModel{list: l, input: ti}
	m.err = m.chdir(dir)
	return m
}

// Err returns the error from reading the current directory, if any.
func (m BrowserModel) Err() error { return m.err }

// Dir returns the directory being listed.
func (m BrowserModel) Dir() string { return m.dir }

func (m *BrowserModel) chdir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cannot read directory: %w", err)
	}
	m.dir = dir

	items := []list.Item{urlItem{}}
	if filepath.Dir(dir) != dir {
		items = append(items, fileItem{name: "..", dir: true})
	}
	var files []list.Item
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() {
			items = append(items, fileItem{name: e.Name(), dir: true})
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if media.IsSupportedExt(ext) || media.IsPlaylistExt(ext) {
			files = append(files, fileItem{name: e.Name(), ext: ext})
		}
	}
	if len(files) > 0 {
		items = append(items, allItem{})
	}
	items = append(items, files...)

	m.list.Title = "add to playlist: " + dir
	m.list.SetItems(items)
	m.list.ResetSelected()
	return nil
}

func (m BrowserModel) Init() tea.Cmd {
	return nil
}

// SetSize fits the browser to the terminal.
func (m *BrowserModel) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

func (m BrowserModel) Update(msg tea.Msg) (BrowserModel, tea.Cmd) {
	if m.urlMode {
		return m.updateURLInput(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch msg.String() {
		case "enter":
			return m.choose()
		case " ":
			m.toggleMark()
			return m, nil
		case "q", "esc", "ctrl+c":
			if m.list.FilterState() == list.FilterApplied && msg.String() == "esc" {
				break
			}
			return m, browserCancelled
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m BrowserModel) choose() (BrowserModel, tea.Cmd) {
	switch item := m.list.SelectedItem().(type) {
	case urlItem:
		m.urlMode = true
		m.input.Focus()
		return m, textinput.Blink
	case allItem:
		return m, browserSelected(m.dir)
	case fileItem:
		if marked := m.marked(); len(marked) > 0 {
			return m, browserSelected(marked...)
		}
		if item.dir {
			m.err = m.chdir(filepath.Join(m.dir, item.name))
			return m, nil
		}
		return m, browserSelected(filepath.Join(m.dir, item.name))
	}
	return m, nil
}

func (m *BrowserModel) toggleMark() {
	item, ok := m.list.SelectedItem().(fileItem)
	if !ok || item.dir {
		return
	}
	item.marked = !item.marked
	m.list.SetItem(m.list.GlobalIndex(), item)
	m.list.CursorDown()
}

func (m BrowserModel) marked() []string {
	var refs []string
	for _, it := range m.list.Items() {
		if f, ok := it.(fileItem); ok && f.marked {
			refs = append(refs, filepath.Join(m.dir, f.name))
		}
	}
	return refs
}

func (m BrowserModel) updateURLInput(msg tea.Msg) (BrowserModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			if url := strings.TrimSpace(m.input.Value()); url != "" {
				return m, browserSelected(url)
			}
		case "esc":
			m.urlMode = false
			m.input.Reset()
			m.input.Blur()
			return m, nil
		case "ctrl+c":
			return m, browserCancelled
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func browserSelected(refs ...string) tea.Cmd {
	return func() tea.Msg { return BrowserSelectedMsg{Refs: refs} }
}

func browserCancelled() tea.Msg { return BrowserCancelledMsg{} }

func (m BrowserModel) View() string {
	if m.urlMode {
		s := "\n"
		s += "  " + headerStyle.Render("audiovisual") + "\n"
		s += "\n"
		s += "  " + statusStyle.Render("Enter URL:") + "\n"
		s += "  " + m.input.View() + "\n"
		s += "\n"
		s += "  " + helpStyle.Render("enter confirm  esc back  ctrl+c cancel") + "\n"
		return s
	}
	view := m.list.View()
	if m.err != nil {
		view = lipgloss.JoinVertical(lipgloss.Left, view, "  "+errorStyle.Render(m.err.Error()))
	}
	return view
}
