// Package player is the playable media element: it decodes an audio file,
// routes the PCM through an optional processing chain to the audio device
// and reports progress on an event bus.
package player

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/olivier-w/audiovisual/internal/events"
	"github.com/olivier-w/audiovisual/internal/spectral"
)

var (
	// ErrClosed is returned by Play on a closed player.
	ErrClosed = errors.New("player: closed")
	// ErrNotSeekable is returned by Seek on a live stream.
	ErrNotSeekable = errors.New("player: live stream is not seekable")
)

// timeUpdateInterval matches the cadence browsers use for timeupdate.
const timeUpdateInterval = 250 * time.Millisecond

// countingReader wraps an io.Reader and tracks bytes read.
type countingReader struct {
	reader io.Reader
	pos    int64
	eof    bool
	mu     sync.Mutex
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.mu.Lock()
	cr.pos += int64(n)
	if err != nil {
		cr.eof = true
	}
	cr.mu.Unlock()
	return n, err
}

// exhausted reports whether the source reached total bytes or stopped
// producing data. Live sources have no total.
func (cr *countingReader) exhausted(total int64) bool {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.eof || (total > 0 && cr.pos >= total)
}

func (cr *countingReader) Pos() int64 {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.pos
}

func (cr *countingReader) SetPos(pos int64) {
	cr.mu.Lock()
	cr.pos = pos
	cr.eof = false
	cr.mu.Unlock()
}

// Player plays one decoded file. It starts paused; Play begins output.
// Player implements spectral.Element.
type Player struct {
	logger *slog.Logger
	bus    *events.Bus

	file    io.Closer
	decoder audioDecoder
	counter *countingReader
	output  output
	device  devicePlayer
	route   spectral.Router
	titles  titleFeed

	bytesPerSec int64
	duration    time.Duration

	mu      sync.Mutex
	paused  bool
	ended   bool
	closed  bool
	done    chan struct{}
	stopMon chan struct{}
	monDone chan struct{}

	closeOnce sync.Once
}

// Open decodes the file at path and prepares it for playback on the
// default audio device. logger may be nil.
func Open(path string, logger *slog.Logger) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	ctx, err := initOto()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	return newPlayer(dec, f, otoOutput{ctx: ctx}, logger), nil
}

// OpenStream plays a live HTTP audio stream decoded by ffmpeg. The
// player never seeks and ends when the stream does.
func OpenStream(url string, logger *slog.Logger) (*Player, error) {
	ctx, err := initOto()
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	pipe, err := startLivePipe(url, logger)
	if err != nil {
		return nil, err
	}
	p := newPlayer(pipe, pipe, otoOutput{ctx: ctx}, logger)
	// Many streams carry no ICY metadata; the title then stays put.
	if w, err := newICYTitleWatcher(url); err == nil {
		p.followTitles(w)
	} else {
		logger.Debug("no stream titles", slog.String("url", url), slog.Any("error", err))
	}
	return p, nil
}

// TitleUpdates delivers stream titles announced by a live source. It is
// nil for files.
func (p *Player) TitleUpdates() <-chan string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.titles == nil {
		return nil
	}
	return p.titles.Updates()
}

// Live reports whether the player is fed by a live stream.
func (p *Player) Live() bool {
	return p.decoder.Length() < 0
}

func newPlayer(dec audioDecoder, file io.Closer, out output, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	bytesPerSec := int64(dec.SampleRate() * dec.ChannelCount() * bitDepth)
	var dur time.Duration
	if bytesPerSec > 0 && dec.Length() > 0 {
		dur = time.Duration(float64(dec.Length()) / float64(bytesPerSec) * float64(time.Second))
	}

	p := &Player{
		logger:      logger,
		bus:         events.NewBus(logger),
		file:        file,
		decoder:     dec,
		counter:     &countingReader{reader: dec},
		output:      out,
		bytesPerSec: bytesPerSec,
		duration:    dur,
		paused:      true,
		done:        make(chan struct{}),
		stopMon:     make(chan struct{}),
		monDone:     make(chan struct{}),
	}
	p.mu.Lock()
	p.rebuildLocked()
	p.mu.Unlock()

	go p.monitor()
	return p
}

// rebuildLocked recreates the device player over the current decoder
// position and route. Buffered device audio is dropped.
func (p *Player) rebuildLocked() {
	if p.device != nil {
		p.device.Pause()
	}
	r := newConverter(p.counter, p.decoder.SampleRate(), p.decoder.ChannelCount())
	if p.route != nil {
		r = p.route(r)
	}
	p.device = p.output.NewPlayer(r)
	if !p.paused {
		p.device.Play()
	}
}

// monitor publishes canplay on its first tick, then timeupdate while
// playing and ended once the decoder is exhausted and the device drained.
func (p *Player) monitor() {
	defer close(p.monDone)

	ticker := time.NewTicker(timeUpdateInterval)
	defer ticker.Stop()
	announced := false
	for {
		select {
		case <-p.stopMon:
			return
		case <-ticker.C:
		}
		if !announced {
			announced = true
			p.bus.Publish(events.Event{Type: events.CanPlay})
		}
		ended, active := p.poll()
		if !active {
			continue
		}
		p.bus.Publish(events.Event{Type: events.TimeUpdate, Progress: p.progress()})
		if ended {
			p.bus.Publish(events.Event{Type: events.Ended, Progress: 1})
		}
	}
}

// poll reports whether playback is active and whether it just ended.
func (p *Player) poll() (ended, active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.paused {
		return false, false
	}
	if p.counter.exhausted(p.decoder.Length()) && !p.device.IsPlaying() {
		p.ended = true
		p.paused = true
		close(p.done)
		return true, true
	}
	return false, true
}

func (p *Player) progress() float64 {
	total := p.decoder.Length()
	if total <= 0 {
		return 0
	}
	return min(float64(p.counter.Pos())/float64(total), 1)
}

// Events returns the bus carrying this player's media events.
func (p *Player) Events() *events.Bus { return p.bus }

// SampleRate is the rate of PCM handed to the route.
func (p *Player) SampleRate() int { return sampleRate }

// ChannelCount is the channel count of PCM handed to the route.
func (p *Player) ChannelCount() int { return channelCount }

// Route installs r between the decoder and the device.
func (p *Player) Route(r spectral.Router) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.route = r
	p.rebuildLocked()
}

// Done returns a channel that closes when playback finishes. Playing again
// after the end installs a fresh channel.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Play starts or resumes playback. After the end it restarts from the
// beginning.
func (p *Player) Play() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if !p.paused {
		p.mu.Unlock()
		return nil
	}
	if p.ended {
		if err := p.seekLocked(0); err != nil {
			p.mu.Unlock()
			return fmt.Errorf("restarting playback: %w", err)
		}
		p.ended = false
		p.done = make(chan struct{})
	}
	p.paused = false
	p.device.Play()
	p.mu.Unlock()

	p.bus.Publish(events.Event{Type: events.Play, Progress: p.progress()})
	return nil
}

// Pause pauses playback.
func (p *Player) Pause() {
	p.mu.Lock()
	if p.closed || p.paused {
		p.mu.Unlock()
		return
	}
	p.paused = true
	p.device.Pause()
	p.mu.Unlock()

	p.bus.Publish(events.Event{Type: events.Pause, Progress: p.progress()})
}

// Paused returns whether playback is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Closed reports whether Close has been called.
func (p *Player) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Position returns the current decode position.
func (p *Player) Position() time.Duration {
	if p.bytesPerSec == 0 {
		return 0
	}
	secs := float64(p.counter.Pos()) / float64(p.bytesPerSec)
	return time.Duration(secs * float64(time.Second))
}

// Duration returns the total duration of the track.
func (p *Player) Duration() time.Duration {
	return p.duration
}

// Seek moves playback by delta from the current position.
func (p *Player) Seek(delta time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.decoder.Length() < 0 {
		return ErrNotSeekable
	}
	pos := p.counter.Pos() + int64(delta.Seconds()*float64(p.bytesPerSec))
	pos = max(0, min(pos, p.decoder.Length()))
	if frame := int64(p.decoder.ChannelCount() * bitDepth); frame > 0 {
		pos -= pos % frame
	}
	if err := p.seekLocked(pos); err != nil {
		return err
	}
	if p.ended {
		p.ended = false
		p.done = make(chan struct{})
	}
	return nil
}

func (p *Player) seekLocked(pos int64) error {
	pos, err := p.decoder.Seek(pos, io.SeekStart)
	if err != nil {
		return err
	}
	p.counter.SetPos(pos)
	p.rebuildLocked()
	return nil
}

// Close stops playback and releases the file. Safe to call more than once.
func (p *Player) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.paused = true
		if p.device != nil {
			p.device.Pause()
		}
		titles := p.titles
		p.mu.Unlock()

		if titles != nil {
			_ = titles.Close()
		}
		close(p.stopMon)
		<-p.monDone
		p.bus.Close()
		if p.file != nil {
			if err := p.file.Close(); err != nil {
				p.logger.Debug("closing audio file", slog.Any("error", err))
			}
		}
	})
}

var _ spectral.Element = (*Player)(nil)
