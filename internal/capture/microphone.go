// Package capture provides live audio sources that feed the analyser in
// place of a playing file.
package capture

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/olivier-w/audiovisual/internal/spectral"
)

// ErrNoInput is returned when no capture device is available.
var ErrNoInput = errors.New("capture: no audio input device")

const (
	micSampleRate      = 44100
	micFramesPerBuffer = 1024
)

// inputStream is the blocking-read subset of *portaudio.Stream.
type inputStream interface {
	Start() error
	Read() error
	Stop() error
	Close() error
}

var nextID atomic.Uint64

// Microphone captures mono samples from the default input device and
// forwards them to the sink installed by the analysis session.
type Microphone struct {
	id     string
	label  string
	logger *slog.Logger

	input   inputStream
	buf     []float32
	release func()

	mu   sync.Mutex
	sink spectral.Sink
	err  error

	stop      chan struct{}
	ended     chan struct{}
	closeOnce sync.Once
}

// OpenMicrophone starts capturing from the default input device.
func OpenMicrophone(logger *slog.Logger) (*Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInput, err)
	}
	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: %v", ErrNoInput, err)
	}
	buf := make([]float32, micFramesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, micSampleRate, len(buf), buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("opening input stream: %w", err)
	}
	m, err := newMicrophone(dev.Name, stream, buf, logger)
	if err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, err
	}
	m.release = func() { portaudio.Terminate() }
	return m, nil
}

func newMicrophone(label string, input inputStream, buf []float32, logger *slog.Logger) (*Microphone, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := input.Start(); err != nil {
		return nil, fmt.Errorf("starting input stream: %w", err)
	}
	m := &Microphone{
		id:     "mic-" + strconv.FormatUint(nextID.Add(1), 10),
		label:  label,
		logger: logger,
		input:  input,
		buf:    buf,
		stop:   make(chan struct{}),
		ended:  make(chan struct{}),
	}
	go m.run()
	return m, nil
}

func (m *Microphone) run() {
	defer close(m.ended)
	for {
		select {
		case <-m.stop:
			return
		default:
		}
		if err := m.input.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				continue
			}
			select {
			case <-m.stop:
			default:
				m.mu.Lock()
				m.err = err
				m.mu.Unlock()
				m.logger.Warn("microphone capture ended", slog.String("device", m.label), slog.Any("error", err))
			}
			return
		}
		m.mu.Lock()
		sink := m.sink
		m.mu.Unlock()
		if sink != nil {
			sink.WriteSamples(m.buf)
		}
	}
}

// ID identifies the capture for the analysis session.
func (m *Microphone) ID() string { return m.id }

// Label is the input device name.
func (m *Microphone) Label() string { return m.label }

// SetSink routes captured samples to s; nil stops forwarding.
func (m *Microphone) SetSink(s spectral.Sink) {
	m.mu.Lock()
	m.sink = s
	m.mu.Unlock()
}

// Ended closes when capture stops, either through Close or a device error.
func (m *Microphone) Ended() <-chan struct{} { return m.ended }

// Err returns the device error that ended capture, if any.
func (m *Microphone) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Close stops capture and releases the device. Safe to call more than once.
func (m *Microphone) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.stop)
		if stopErr := m.input.Stop(); stopErr != nil {
			m.logger.Debug("stopping input stream", slog.Any("error", stopErr))
		}
		<-m.ended
		err = m.input.Close()
		if m.release != nil {
			m.release()
		}
	})
	return err
}

var _ spectral.Stream = (*Microphone)(nil)
