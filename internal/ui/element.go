package ui

import (
	"log/slog"
	"sync"
	"time"

	"github.com/olivier-w/audiovisual/internal/capture"
	"github.com/olivier-w/audiovisual/internal/events"
	"github.com/olivier-w/audiovisual/internal/player"
	"github.com/olivier-w/audiovisual/internal/queue"
	"github.com/olivier-w/audiovisual/internal/spectral"
)

// element is the playable the model drives. *player.Player implements it.
type element interface {
	spectral.Element
	Done() <-chan struct{}
	Position() time.Duration
	Duration() time.Duration
	Seek(delta time.Duration) error
	Live() bool
	TitleUpdates() <-chan string
	Close()
}

var _ element = (*player.Player)(nil)

func openPlayer(logger *slog.Logger) func(*queue.FileItem) (element, error) {
	return func(item *queue.FileItem) (element, error) {
		var (
			p   *player.Player
			err error
		)
		if item.Live() {
			p, err = player.OpenStream(item.URL(), logger)
		} else {
			p, err = player.Open(item.Path(), logger)
		}
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

func openMicrophone(logger *slog.Logger) func() (queue.Capture, error) {
	return func() (queue.Capture, error) {
		mic, err := capture.OpenMicrophone(logger)
		if err != nil {
			return nil, err
		}
		return mic, nil
	}
}

// silentElement stands in for a player while a capture feeds the
// analyser and no file is loaded. It never produces audio.
type silentElement struct {
	bus *events.Bus

	mu     sync.Mutex
	paused bool
	closed bool
}

func newSilentElement(logger *slog.Logger) *silentElement {
	return &silentElement{bus: events.NewBus(logger), paused: true}
}

func (e *silentElement) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return player.ErrClosed
	}
	e.paused = false
	return nil
}

func (e *silentElement) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
}

func (e *silentElement) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *silentElement) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *silentElement) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		e.bus.Close()
	}
}

func (e *silentElement) SampleRate() int             { return 44100 }
func (e *silentElement) ChannelCount() int           { return 2 }
func (e *silentElement) Route(spectral.Router)       {}
func (e *silentElement) Events() *events.Bus         { return e.bus }
func (e *silentElement) Done() <-chan struct{}       { return nil }
func (e *silentElement) Position() time.Duration     { return 0 }
func (e *silentElement) Duration() time.Duration     { return 0 }
func (e *silentElement) Seek(time.Duration) error    { return player.ErrNotSeekable }
func (e *silentElement) Live() bool                  { return true }
func (e *silentElement) TitleUpdates() <-chan string { return nil }
