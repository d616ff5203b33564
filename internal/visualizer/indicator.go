package visualizer

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
)

// fadeDuration is how long the play/pause indicator stays on screen.
const fadeDuration = 500 * time.Millisecond

var lastIndicatorID atomic.Int64

type indicatorTickMsg struct {
	id  int64
	gen int
}

// Indicator flashes a play or pause icon after a toggle and fades it out,
// easing its opacity with a critically damped spring.
type Indicator struct {
	id      int64
	gen     int
	fps     int
	spring  harmonica.Spring
	pos     float64
	vel     float64
	elapsed time.Duration
	playing bool
	visible bool
}

func NewIndicator(fps int) *Indicator {
	if fps <= 0 {
		fps = 60
	}
	return &Indicator{
		id:     lastIndicatorID.Add(1),
		fps:    fps,
		spring: harmonica.NewSpring(harmonica.FPS(fps), 8.0, 1.0),
	}
}

// Flash shows the icon for the new playing state and starts the fade.
func (in *Indicator) Flash(playing bool) tea.Cmd {
	in.playing = playing
	in.visible = true
	in.pos, in.vel = 1, 0
	in.elapsed = 0
	in.gen++
	return in.tick()
}

// Visible reports whether the icon is still shown.
func (in *Indicator) Visible() bool { return in.visible }

// Opacity returns the current fade level in [0,1].
func (in *Indicator) Opacity() float64 {
	if !in.visible {
		return 0
	}
	return clamp01(in.pos)
}

// Update advances the fade on the indicator's own ticks.
func (in *Indicator) Update(msg tea.Msg) tea.Cmd {
	m, ok := msg.(indicatorTickMsg)
	if !ok || m.id != in.id || m.gen != in.gen || !in.visible {
		return nil
	}
	in.elapsed += time.Second / time.Duration(in.fps)
	in.pos, in.vel = in.spring.Update(in.pos, in.vel, 0)
	if in.elapsed >= fadeDuration || in.pos < 0.02 {
		in.visible = false
		return nil
	}
	return in.tick()
}

// View renders the icon, faint once it has faded past half.
func (in *Indicator) View(style lipgloss.Style) string {
	if !in.visible {
		return ""
	}
	icon := "❚❚"
	if in.playing {
		icon = "▶"
	}
	if in.pos < 0.5 {
		style = style.Faint(true)
	}
	return style.Render(icon)
}

func (in *Indicator) tick() tea.Cmd {
	id, gen := in.id, in.gen
	return tea.Tick(time.Second/time.Duration(in.fps), func(time.Time) tea.Msg {
		return indicatorTickMsg{id: id, gen: gen}
	})
}

func clamp01(v float64) float64 {
	return max(0, min(v, 1))
}
