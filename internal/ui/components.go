package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/audiovisual/internal/queue"
	"github.com/olivier-w/audiovisual/internal/util"
)

// listItem adapts a playlist item to the bubbles list.
type listItem struct {
	item queue.Item
}

func (i listItem) Title() string { return i.item.Title() }

func (i listItem) Description() string {
	switch it := i.item.(type) {
	case *queue.FileItem:
		if it.Live() {
			return "live stream"
		}
		return it.Artist() + " · " + it.Album()
	case *queue.StreamItem:
		return "microphone"
	}
	return ""
}

func (i listItem) FilterValue() string { return i.item.Title() }

// itemDelegate renders one row per item and marks the current one.
type itemDelegate struct {
	current func() queue.Item
}

func (d itemDelegate) Height() int                         { return 1 }
func (d itemDelegate) Spacing() int                        { return 0 }
func (d itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, it list.Item) {
	li, ok := it.(listItem)
	if !ok {
		return
	}
	marker := "  "
	style := artistStyle
	if d.current != nil && d.current() == li.item {
		marker = "▶ "
		style = currentStyle
	}
	line := marker + li.Title()
	if desc := li.Description(); desc != "" {
		line += "  " + helpStyle.Render(desc)
	}
	if index == m.Index() {
		style = style.Foreground(selectedColor).Bold(true)
		line = lipgloss.NewStyle().
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(selectedBorder).
			Render(style.Render(line))
	} else {
		line = " " + style.Render(line)
	}
	fmt.Fprint(w, truncate(line, m.Width()))
}

func newItemList(current func() queue.Item) list.Model {
	l := list.New(nil, itemDelegate{current: current}, 80, 6)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	return l
}

func listItems(items []queue.Item) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = listItem{item: it}
	}
	return out
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

func renderClock(pos, total time.Duration, live bool) string {
	if live {
		return util.FormatDuration(pos) + " · live"
	}
	return util.FormatDuration(pos) + " / " + util.FormatDuration(total)
}

func renderGain(gain float64) string {
	return "vol " + util.FormatPercent(gain)
}

func renderModes(m Model) string {
	var parts []string
	for _, icon := range []string{m.repeat.Icon(), m.shuffle.Icon()} {
		if icon != "" {
			parts = append(parts, icon)
		}
	}
	if !m.vis.Updating() {
		parts = append(parts, "[visuals off]")
	}
	return strings.Join(parts, " ")
}
