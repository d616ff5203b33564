package visualizer

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

var lastLoopID atomic.Int64

// FrameMsg requests one animation frame from the loop that scheduled it.
type FrameMsg struct {
	Time  time.Time
	loop  int64
	frame int
}

// Loop schedules animation frames at a fixed rate. At most one frame is
// pending; stopping the loop invalidates it, so a frame delivered after
// Stop is ignored.
type Loop struct {
	id      int64
	fps     int
	frame   int
	running bool
}

// NewLoop creates a stopped loop ticking fps times per second.
func NewLoop(fps int) *Loop {
	if fps <= 0 {
		fps = 60
	}
	return &Loop{id: lastLoopID.Add(1), fps: fps}
}

// Running reports whether a frame is pending.
func (l *Loop) Running() bool { return l.running }

// Start schedules the first frame. Starting a running loop does nothing.
func (l *Loop) Start() tea.Cmd {
	if l.running {
		return nil
	}
	l.running = true
	l.frame++
	return l.tick()
}

// Stop cancels the pending frame.
func (l *Loop) Stop() {
	if !l.running {
		return
	}
	l.running = false
	l.frame++
}

// Accept reports whether msg is this loop's pending frame. When it is, the
// returned command schedules the next one.
func (l *Loop) Accept(msg FrameMsg) (tea.Cmd, bool) {
	if !l.running || msg.loop != l.id || msg.frame != l.frame {
		return nil, false
	}
	l.frame++
	return l.tick(), true
}

func (l *Loop) tick() tea.Cmd {
	id, frame := l.id, l.frame
	return tea.Tick(time.Second/time.Duration(l.fps), func(t time.Time) tea.Msg {
		return FrameMsg{Time: t, loop: id, frame: frame}
	})
}
