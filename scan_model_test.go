package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/audiovisual/internal/library"
)

func TestScanCmdReportsEntriesAndClosesStatus(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mp3", "b.wav", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	match, err := library.CompileMatch(`[.](mp3|wav)$`, "i")
	if err != nil {
		t.Fatalf("CompileMatch: %v", err)
	}

	statusCh := make(chan library.ScanProgress, 16)
	msg := scanCmd(library.ScanOptions{Dir: dir, Match: match}, statusCh)()
	done, ok := msg.(scanDoneMsg)
	if !ok {
		t.Fatalf("expected scanDoneMsg, got %T", msg)
	}
	if done.err != nil {
		t.Fatalf("scan returned error: %v", done.err)
	}
	if len(done.entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(done.entries))
	}

	var last library.ScanProgress
	for p := range statusCh {
		last = p
	}
	if last.Done != 2 || last.Count != 2 {
		t.Fatalf("unexpected final progress %+v", last)
	}
}

func TestScanModelConsumesProgress(t *testing.T) {
	m := newScanModel(library.ScanOptions{Dir: "music"})

	model, cmd := m.Update(scanProgressMsg{Done: 1, Count: 4, URL: "/files/a.mp3"})
	if cmd == nil {
		t.Fatal("expected waitForStatus command")
	}
	scan := model.(scanModel)
	if scan.percent() != 0.25 {
		t.Fatalf("expected 25%%, got %v", scan.percent())
	}
	view := scan.View()
	for _, want := range []string{"Scanning music", "1/4", "/files/a.mp3"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestScanModelDoneQuitsWithResult(t *testing.T) {
	m := newScanModel(library.ScanOptions{Dir: "music"})
	if _, err := m.Result(); !errors.Is(err, errScanCancelled) {
		t.Fatalf("expected unfinished scan to report cancellation, got %v", err)
	}

	entries := []library.Entry{{URL: "/files/a.mp3"}}
	model, cmd := m.Update(scanDoneMsg{entries: entries})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	got, err := model.(scanModel).Result()
	if err != nil || len(got) != 1 {
		t.Fatalf("unexpected result %v, %v", got, err)
	}
}

func TestScanModelQuitCancels(t *testing.T) {
	m := newScanModel(library.ScanOptions{Dir: "music"})
	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, err := model.(scanModel).Result(); !errors.Is(err, errScanCancelled) {
		t.Fatalf("expected errScanCancelled, got %v", err)
	}
}

func TestServeRequiresFileListWithoutScan(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"serve", t.TempDir()})
	err := cmd.Execute()
	if !errors.Is(err, library.ErrNoFileList) {
		t.Fatalf("expected ErrNoFileList, got %v", err)
	}
}
