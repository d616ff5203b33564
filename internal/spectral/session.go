// Package spectral provides the audio analysis node: a small audio graph
// that taps a playing element (or a live stream) into an analyser and
// exposes waveform and spectrum samples for rendering.
package spectral

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/olivier-w/audiovisual/internal/events"
)

var (
	// ErrNotPlayable is returned by Attach for a nil or closed element.
	ErrNotPlayable = errors.New("spectral: element is not playable")
	// ErrNotAttached is returned by operations that need an element.
	ErrNotAttached = errors.New("spectral: session is not attached")
)

// Element is a playable media element.
type Element interface {
	Play() error
	Pause()
	Paused() bool
	Closed() bool
	SampleRate() int
	ChannelCount() int
	// Route installs the output path for decoded PCM.
	Route(r Router)
	Events() *events.Bus
}

// State is the session lifecycle state.
type State int

const (
	Unattached State = iota
	Idle
	PlayingElement
	PlayingStream
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PlayingElement:
		return "playing"
	case PlayingStream:
		return "streaming"
	default:
		return "unattached"
	}
}

// Options configures a Session.
type Options struct {
	FFTSize   int
	Smoothing float64
	// Delay is how far output lags the analyser.
	Delay time.Duration
	// ByteTimeDomain restricts the analyser to 8-bit time-domain data;
	// FillWaveform then converts bytes to floats.
	ByteTimeDomain bool
	Logger         *slog.Logger
}

// DefaultOptions mirrors the defaults of the config package.
func DefaultOptions() Options {
	return Options{
		FFTSize:   2048,
		Smoothing: 0.8,
		Delay:     250 * time.Millisecond,
	}
}

// Session is the analysis node. Exactly one of the element source or one
// live stream feeds the analyser at a time.
//
// mu serializes lifecycle operations; graphMu guards the connections and
// is the only lock taken on the audio path, so switching sources and
// reading samples never observe a half-connected graph.
type Session struct {
	opts   Options
	logger *slog.Logger

	mu           sync.Mutex
	el           Element
	state        State
	audioPlaying bool
	canPlaySub   events.SubscriptionID
	streams      map[string]*streamSource

	graphMu  sync.Mutex
	graph    graph
	analyser *Analyser
	byteBuf  []byte
}

// NewSession creates an unattached session.
func NewSession(opts Options) *Session {
	def := DefaultOptions()
	if opts.FFTSize == 0 {
		opts.FFTSize = def.FFTSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a := NewAnalyser(opts.FFTSize, opts.Smoothing, !opts.ByteTimeDomain)
	return &Session{
		opts:     opts,
		logger:   logger,
		streams:  make(map[string]*streamSource),
		analyser: a,
		byteBuf:  make([]byte, a.BinCount()),
		graph:    graph{gain: 1},
	}
}

// Open creates a session attached to el.
func Open(el Element, opts Options) (*Session, error) {
	s := NewSession(opts)
	if err := s.Attach(el); err != nil {
		return nil, err
	}
	return s, nil
}

// Attach binds the session to el, pausing it and routing its output
// through the graph. Attaching to the current element is a no-op;
// attaching to another element detaches the previous one first.
func (s *Session) Attach(el Element) error {
	if el == nil || el.Closed() {
		return ErrNotPlayable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.el == el {
		return nil
	}
	if s.el != nil {
		s.detachLocked()
	}

	el.Pause()
	s.el = el
	s.state = Idle
	s.audioPlaying = false

	s.graphMu.Lock()
	s.graph = graph{sourceToAnalyser: true, analyserToGain: true, gain: s.graph.gain}
	s.graphMu.Unlock()
	s.analyser.Reset()

	el.Route(s.route(el))
	s.canPlaySub = el.Events().Subscribe(events.CanPlay, s.onCanPlay)
	s.logger.Debug("analysis session attached",
		slog.Int("fft_size", s.analyser.FFTSize()),
		slog.Bool("float_time_domain", s.analyser.SupportsFloatTimeDomain()))
	return nil
}

func (s *Session) route(el Element) Router {
	channels := el.ChannelCount()
	delayBytes := int(s.opts.Delay.Seconds()*float64(el.SampleRate())) * channels * 2
	return func(pcm io.Reader) io.Reader {
		chain := &outputChain{src: pcm, session: s, channels: channels}
		if delayBytes <= 0 {
			return chain
		}
		return &delayReader{src: chain, pending: delayBytes}
	}
}

// onCanPlay resumes the element when it became ready while the session
// wanted it playing.
func (s *Session) onCanPlay(events.Event) {
	s.mu.Lock()
	el, want := s.el, s.audioPlaying
	s.mu.Unlock()
	if el != nil && want && el.Paused() {
		if err := el.Play(); err != nil {
			s.logger.Warn("resume on canplay failed", slog.Any("error", err))
		}
	}
}

// Close detaches from the element, releasing event subscriptions, the
// output route and all cached stream sources. Closing an unattached
// session is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.el != nil {
		s.detachLocked()
	}
	return nil
}

func (s *Session) detachLocked() {
	el := s.el
	el.Events().Unsubscribe(s.canPlaySub)
	if !el.Closed() {
		el.Pause()
		el.Route(nil)
	}

	s.graphMu.Lock()
	s.graph = graph{gain: s.graph.gain}
	s.graphMu.Unlock()

	for id, n := range s.streams {
		n.stream.SetSink(nil)
		delete(s.streams, id)
	}
	s.el = nil
	s.canPlaySub = 0
	s.state = Unattached
	s.audioPlaying = false
	s.logger.Debug("analysis session closed")
}

// AddStream caches a graph node for stream without connecting it.
func (s *Session) AddStream(stream Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addStreamLocked(stream)
}

func (s *Session) addStreamLocked(stream Stream) *streamSource {
	if n, ok := s.streams[stream.ID()]; ok {
		return n
	}
	n := &streamSource{id: stream.ID(), stream: stream, session: s}
	s.streams[n.id] = n
	stream.SetSink(n)
	return n
}

// RemoveStream drops the cached node for stream, reverting to the element
// source if it was connected.
func (s *Session) RemoveStream(stream Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.streams[stream.ID()]
	if !ok {
		return
	}
	s.graphMu.Lock()
	connected := s.graph.stream == n.id
	s.graphMu.Unlock()
	if connected {
		s.stopStreamLocked()
		if s.state == PlayingStream {
			s.state = Idle
		}
	}
	n.stream.SetSink(nil)
	delete(s.streams, n.id)
}

// StartStreaming connects stream to the analyser in place of the element
// source.
func (s *Session) StartStreaming(stream Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.el == nil {
		return ErrNotAttached
	}
	s.startStreamLocked(stream)
	s.state = PlayingStream
	return nil
}

// StopStreaming reconnects the element source.
func (s *Session) StopStreaming() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopStreamLocked()
	if s.state == PlayingStream {
		s.state = Idle
	}
}

func (s *Session) startStreamLocked(stream Stream) {
	n := s.addStreamLocked(stream)
	s.graphMu.Lock()
	s.graph.sourceToAnalyser = false
	s.graph.analyserToGain = false
	s.graph.stream = n.id
	s.graphMu.Unlock()
	s.logger.Debug("streaming started", slog.String("stream", n.id))
}

func (s *Session) stopStreamLocked() {
	s.graphMu.Lock()
	defer s.graphMu.Unlock()
	if s.graph.stream == "" {
		return
	}
	s.graph.stream = ""
	s.graph.sourceToAnalyser = s.el != nil
	s.graph.analyserToGain = s.el != nil
}

func (s *Session) streamingLocked() bool {
	s.graphMu.Lock()
	defer s.graphMu.Unlock()
	return s.graph.stream != ""
}

// Play starts playback. With a stream that is not already streaming, the
// element is paused and the stream feeds the analyser. Without a stream,
// if the element is paused, streaming stops and the element resumes.
func (s *Session) Play(stream Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.el == nil {
		return ErrNotAttached
	}

	switch {
	case stream != nil && !s.streamingLocked():
		s.el.Pause()
		s.startStreamLocked(stream)
		s.state = PlayingStream
	case stream == nil && s.el.Paused():
		s.stopStreamLocked()
		s.audioPlaying = true
		s.state = PlayingElement
		if err := s.el.Play(); err != nil {
			return err
		}
	}
	return nil
}

// Pause stops both streaming and element playback.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.el == nil || s.pausedLocked() {
		return
	}
	s.stopStreamLocked()
	s.el.Pause()
	s.audioPlaying = false
	s.state = Idle
}

func (s *Session) pausedLocked() bool {
	return !s.streamingLocked() && !s.audioPlaying
}

// Paused reports whether neither the element nor a stream is playing.
func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pausedLocked()
}

// Streaming reports whether a live stream feeds the analyser.
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamingLocked()
}

// Playing reports whether the element is playing through the graph.
func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.el != nil && s.audioPlaying && !s.el.Paused()
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StreamCount returns the number of cached stream nodes.
func (s *Session) StreamCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

// Gain returns the linear output gain.
func (s *Session) Gain() float64 {
	s.graphMu.Lock()
	defer s.graphMu.Unlock()
	return s.graph.gain
}

// SetGain sets the linear output gain. Negative values clamp to zero.
func (s *Session) SetGain(v float64) {
	if v < 0 {
		v = 0
	}
	s.graphMu.Lock()
	s.graph.gain = v
	s.graphMu.Unlock()
}

// WaveformSize is the number of time-domain samples per frame.
func (s *Session) WaveformSize() int { return s.analyser.BinCount() }

// SpectrumSize is the number of frequency bins per frame.
func (s *Session) SpectrumSize() int { return s.analyser.BinCount() }

// FillWaveform copies the current time-domain samples into buf. When the
// analyser only provides bytes they are converted to [-1,1].
func (s *Session) FillWaveform(buf []float32) {
	s.graphMu.Lock()
	defer s.graphMu.Unlock()
	if len(buf) > s.analyser.FFTSize() {
		buf = buf[:s.analyser.FFTSize()]
	}
	if s.analyser.SupportsFloatTimeDomain() {
		s.analyser.FloatTimeDomain(buf)
		return
	}
	if cap(s.byteBuf) < len(buf) {
		s.byteBuf = make([]byte, len(buf))
	}
	b := s.byteBuf[:len(buf)]
	s.analyser.ByteTimeDomain(b)
	BytesToFloat(buf, b)
}

// FillSpectrum copies the current decibel magnitudes into buf.
func (s *Session) FillSpectrum(buf []float32) {
	s.graphMu.Lock()
	defer s.graphMu.Unlock()
	s.analyser.FloatFrequency(buf)
}
