package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/audiovisual/internal/library"
)

var errScanCancelled = errors.New("scan cancelled")

type scanProgressMsg library.ScanProgress

type scanDoneMsg struct {
	entries []library.Entry
	err     error
}

// scanModel shows library.Scan progress while the file list is built.
type scanModel struct {
	opts     library.ScanOptions
	spinner  spinner.Model
	progress progress.Model
	status   library.ScanProgress
	statusCh chan library.ScanProgress

	entries []library.Entry
	err     error
	done    bool
}

func newScanModel(opts library.ScanOptions) scanModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	p := progress.New(
		progress.WithScaledGradient("#FF8C00", "#FF5F1F"),
		progress.WithoutPercentage(),
	)

	return scanModel{
		opts:     opts,
		spinner:  s,
		progress: p,
		statusCh: make(chan library.ScanProgress, 16),
	}
}

func (m scanModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForStatus(), scanCmd(m.opts, m.statusCh))
}

func (m scanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = max(20, min(msg.Width-8, 60))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case scanProgressMsg:
		m.status = library.ScanProgress(msg)
		return m, m.waitForStatus()

	case scanDoneMsg:
		m.entries, m.err, m.done = msg.entries, msg.err, true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.err, m.done = errScanCancelled, true
			return m, tea.Quit
		}
	}
	return m, nil
}

// Result returns the scanned entries once the model has quit.
func (m scanModel) Result() ([]library.Entry, error) {
	if !m.done {
		return nil, errScanCancelled
	}
	return m.entries, m.err
}

func (m scanModel) waitForStatus() tea.Cmd {
	statusCh := m.statusCh
	return func() tea.Msg {
		status, ok := <-statusCh
		if !ok {
			return nil
		}
		return scanProgressMsg(status)
	}
}

// percent is the share of found files already read. Count grows during the
// walk, so the bar can move backwards.
func (m scanModel) percent() float64 {
	if m.status.Count == 0 {
		return 0
	}
	return float64(m.status.Done) / float64(m.status.Count)
}

func (m scanModel) View() string {
	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(scanHeaderStyle.Render("audiovisual"))
	b.WriteString("\n\n  ")
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(scanStatusStyle.Render("Scanning " + m.opts.Dir))
	b.WriteString("\n  ")
	b.WriteString(m.progress.ViewAs(m.percent()))
	b.WriteString(fmt.Sprintf("  %d/%d\n", m.status.Done, m.status.Count))
	if m.status.URL != "" {
		b.WriteString("  ")
		b.WriteString(scanHelpStyle.Render(m.status.URL))
		b.WriteString("\n")
	}
	b.WriteString("\n  ")
	b.WriteString(scanHelpStyle.Render("q cancel"))
	b.WriteString("\n")
	return b.String()
}

// scanCmd runs the scan, forwarding progress to statusCh without blocking
// the walk, and closes statusCh when it returns.
func scanCmd(opts library.ScanOptions, statusCh chan library.ScanProgress) tea.Cmd {
	return func() tea.Msg {
		defer close(statusCh)
		opts.Progress = func(p library.ScanProgress) {
			select {
			case statusCh <- p:
			default:
			}
		}
		entries, err := library.Scan(opts)
		return scanDoneMsg{entries: entries, err: err}
	}
}

var (
	scanHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"})
	scanStatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"})
	scanHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})
)
