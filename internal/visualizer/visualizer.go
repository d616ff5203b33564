// Package visualizer draws the waveform and spectrum of the playing audio
// on a Braille canvas, driven by Bubble Tea frame ticks.
package visualizer

import (
	"io"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/audiovisual/internal/config"
	"github.com/olivier-w/audiovisual/internal/events"
	"github.com/olivier-w/audiovisual/internal/spectral"
)

// Options configures a Visualizer.
type Options struct {
	NumFreq   int
	NumWave   int
	WaveWidth int
	FPS       int

	FreqColor lipgloss.Color
	WaveColor lipgloss.Color
	TextColor lipgloss.Color
	AltColor  lipgloss.Color

	Session spectral.Options
	Logger  *slog.Logger
}

// OptionsFromConfig builds visualizer options from cfg.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	v, a := cfg.Visual, cfg.Analyser
	return Options{
		NumFreq:   v.NumFreq,
		NumWave:   v.NumWave,
		WaveWidth: v.WaveWidth,
		FPS:       v.FPS,
		FreqColor: lipgloss.Color(v.FreqColor),
		WaveColor: lipgloss.Color(v.WaveColor),
		TextColor: lipgloss.Color(v.TextColor),
		AltColor:  lipgloss.Color(v.AltColor),
		Session: spectral.Options{
			FFTSize:        a.FFTSize,
			Smoothing:      a.Smoothing,
			Delay:          time.Duration(a.Delay * float64(time.Second)),
			ByteTimeDomain: a.ByteTimeDomain,
			Logger:         logger,
		},
		Logger: logger,
	}
}

// Visualizer owns the analysis session of the current element and renders
// it. It is driven from a Bubble Tea Update loop and is not safe for
// concurrent use, except for the progress value which is written by the
// element's event goroutine.
type Visualizer struct {
	opts    Options
	logger  *slog.Logger
	session *spectral.Session

	el        spectral.Element
	updateSub events.SubscriptionID
	progress  atomic.Uint64

	waveform []float32
	spectrum []float32
	state    *State
	canvas   *Canvas
	segs     []Segment

	loop      *Loop
	indicator *Indicator

	playing  bool
	updating bool
	stream   spectral.Stream

	width, height int
	frame         string

	freqStyle lipgloss.Style
	waveStyle lipgloss.Style
	textStyle lipgloss.Style
	altStyle  lipgloss.Style
}

// New creates a detached visualizer.
func New(opts Options) *Visualizer {
	def := config.DefaultConfig().Visual
	if opts.NumFreq <= 0 {
		opts.NumFreq = def.NumFreq
	}
	if opts.NumWave <= 0 {
		opts.NumWave = def.NumWave
	}
	if opts.WaveWidth <= 0 {
		opts.WaveWidth = def.WaveWidth
	}
	if opts.FPS <= 0 {
		opts.FPS = def.FPS
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Session.Logger == nil {
		opts.Session.Logger = logger
	}
	return &Visualizer{
		opts:      opts,
		logger:    logger,
		session:   spectral.NewSession(opts.Session),
		state:     NewState(opts.NumFreq, opts.NumWave),
		canvas:    NewCanvas(0, 0),
		loop:      NewLoop(opts.FPS),
		indicator: NewIndicator(opts.FPS),
		updating:  true,
		freqStyle: lipgloss.NewStyle().Foreground(opts.FreqColor),
		waveStyle: lipgloss.NewStyle().Foreground(opts.WaveColor),
		textStyle: lipgloss.NewStyle().Foreground(opts.TextColor),
		altStyle:  lipgloss.NewStyle().Foreground(opts.AltColor),
	}
}

// Session returns the analysis session.
func (v *Visualizer) Session() *spectral.Session { return v.session }

// Attached reports whether an element is attached.
func (v *Visualizer) Attached() bool { return v.el != nil }

// Attach replaces the current element with el. The session pauses el;
// call SetPlaying to start it.
func (v *Visualizer) Attach(el spectral.Element) error {
	if el == v.el {
		return nil
	}
	v.Detach()
	if err := v.session.Attach(el); err != nil {
		return err
	}
	v.el = el
	v.waveform = make([]float32, v.session.WaveformSize())
	v.spectrum = make([]float32, v.session.SpectrumSize())
	v.setProgress(0)
	v.updateSub = el.Events().Subscribe(events.TimeUpdate, func(e events.Event) {
		v.setProgress(e.Progress)
	})
	return nil
}

// Detach stops drawing and releases the session and its buffers.
func (v *Visualizer) Detach() {
	if v.el == nil {
		return
	}
	v.loop.Stop()
	v.waveform = nil
	v.spectrum = nil
	if err := v.session.Close(); err != nil {
		v.logger.Warn("closing analysis session", slog.Any("error", err))
	}
	v.el.Events().Unsubscribe(v.updateSub)
	v.el = nil
	v.updateSub = 0
	v.stream = nil
	v.frame = ""
}

// SetPlaying plays the element, or stream when non-nil, or pauses. The
// returned command drives the frame loop when both playing and updating.
func (v *Visualizer) SetPlaying(playing bool, stream spectral.Stream) (tea.Cmd, error) {
	changed := playing != v.playing
	v.playing = playing
	v.stream = stream
	var err error
	if v.el != nil {
		if playing {
			err = v.session.Play(stream)
		} else {
			v.session.Pause()
		}
	}
	cmds := []tea.Cmd{v.syncLoop()}
	if changed {
		cmds = append(cmds, v.indicator.Flash(playing))
	}
	return tea.Batch(cmds...), err
}

// SetUpdating turns drawing on or off without touching playback.
func (v *Visualizer) SetUpdating(updating bool) tea.Cmd {
	v.updating = updating
	return v.syncLoop()
}

// Updating reports whether frames are drawn.
func (v *Visualizer) Updating() bool { return v.updating }

// Animating reports whether the frame loop is running.
func (v *Visualizer) Animating() bool { return v.loop.Running() }

func (v *Visualizer) syncLoop() tea.Cmd {
	if v.playing && v.updating && v.el != nil {
		return v.loop.Start()
	}
	v.loop.Stop()
	return nil
}

// Update handles frame and indicator ticks.
func (v *Visualizer) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case FrameMsg:
		next, ok := v.loop.Accept(msg)
		if !ok {
			return nil
		}
		v.Frame()
		return next
	case indicatorTickMsg:
		return v.indicator.Update(msg)
	}
	return nil
}

// Frame samples the session and redraws the canvas. Nothing is drawn
// unless audio is streaming or playing; the loop keeps ticking so that
// playback starting later is picked up.
func (v *Visualizer) Frame() {
	if v.el == nil || v.waveform == nil || !v.updating {
		return
	}
	if !v.session.Streaming() && !v.session.Playing() {
		return
	}
	v.session.FillWaveform(v.waveform)
	v.session.FillSpectrum(v.spectrum)
	v.state.Update(v.waveform, v.spectrum)

	v.canvas.Clear()
	v.segs = CatmullRom(v.segs, v.state.WaveXs, v.state.WaveYs)
	v.canvas.Curve(v.segs, v.opts.WaveWidth)
	v.canvas.Bars(v.state.FreqXs, v.state.FreqYs)
	v.frame = v.canvas.Render(v.freqStyle, v.waveStyle)
}

// State returns the data of the last frame.
func (v *Visualizer) State() *State { return v.state }

// Resize sets the area in cells. One row is kept for the progress line.
func (v *Visualizer) Resize(width, height int) {
	if width == v.width && height == v.height {
		return
	}
	v.width, v.height = width, height
	v.canvas.Resize(width, max(height-1, 0))
	w, h := v.canvas.Dots()
	v.state.Resize(float64(w), float64(h))
	v.frame = ""
}

// Progress returns the last reported playback position in [0,1].
func (v *Visualizer) Progress() float64 {
	return math.Float64frombits(v.progress.Load())
}

func (v *Visualizer) setProgress(p float64) {
	v.progress.Store(math.Float64bits(clamp01(p)))
}

// View renders the canvas above a progress line.
func (v *Visualizer) View() string {
	if v.width <= 0 || v.height <= 0 {
		return ""
	}
	cols, rows := v.canvas.Cells()
	frame := v.frame
	if frame == "" {
		frame = strings.TrimSuffix(strings.Repeat(strings.Repeat(" ", cols)+"\n", rows), "\n")
	}
	if icon := v.indicator.View(v.textStyle.Bold(true)); icon != "" && rows > 0 {
		frame = overlayCenter(frame, icon, cols, rows)
	}
	if rows == 0 {
		return v.progressLine()
	}
	return frame + "\n" + v.progressLine()
}

func (v *Visualizer) progressLine() string {
	filled := int(math.Round(v.Progress() * float64(v.width)))
	filled = max(0, min(filled, v.width))
	return v.textStyle.Render(strings.Repeat("━", filled)) +
		v.altStyle.Render(strings.Repeat("━", v.width-filled))
}

// overlayCenter replaces the middle row of frame with icon centered.
func overlayCenter(frame, icon string, cols, rows int) string {
	lines := strings.Split(frame, "\n")
	mid := rows / 2
	if mid >= len(lines) {
		return frame
	}
	pad := max(0, (cols-lipgloss.Width(icon))/2)
	lines[mid] = lipgloss.PlaceHorizontal(cols, lipgloss.Left, strings.Repeat(" ", pad)+icon)
	return strings.Join(lines, "\n")
}
