package spectral

import (
	"encoding/binary"
	"io"
)

// Router wraps an element's decoded PCM stream (16-bit little-endian,
// interleaved) before it reaches the output device. A nil Router means
// direct output.
type Router func(pcm io.Reader) io.Reader

// Sink receives mono samples in [-1,1] from a live stream.
type Sink interface {
	WriteSamples(p []float32)
}

// Stream is a live audio source that can feed the analyser in place of the
// element.
type Stream interface {
	// ID identifies the stream; the session caches graph nodes by it.
	ID() string
	// SetSink routes captured samples to s. A nil sink detaches.
	SetSink(s Sink)
}

// graph holds the connections between the element source, the analyser,
// the output gain and the cached stream sources. Guarded by Session.graphMu.
type graph struct {
	sourceToAnalyser bool
	analyserToGain   bool
	stream           string // id of the stream connected to the analyser
	gain             float64
}

// streamSource is the cached node for one live stream.
type streamSource struct {
	id      string
	stream  Stream
	session *Session
}

func (n *streamSource) WriteSamples(p []float32) {
	s := n.session
	s.graphMu.Lock()
	connected := s.graph.stream == n.id
	s.graphMu.Unlock()
	if connected {
		s.analyser.WriteSamples(p)
	}
}

// outputChain is the element's source → analyser → gain path. It taps
// decoded PCM into the analyser and silences output whenever the element
// source is not connected through to the gain node.
type outputChain struct {
	src      io.Reader
	session  *Session
	channels int
	partial  []byte // bytes of an incomplete frame carried between reads
	odd      []byte // trailing half sample held back from the last read
	mono     []float32
}

func (c *outputChain) Read(p []byte) (int, error) {
	n := copy(p, c.odd)
	c.odd = c.odd[:0]
	m, err := c.src.Read(p[n:])
	n += m
	// Output only whole samples so gain never splits one across reads.
	if n%2 == 1 && err == nil && len(p) > 1 {
		n--
		c.odd = append(c.odd, p[n])
	}
	if n == 0 {
		return n, err
	}
	s := c.session
	s.graphMu.Lock()
	g := s.graph
	s.graphMu.Unlock()

	if g.sourceToAnalyser {
		c.tap(p[:n])
	}
	switch {
	case !g.sourceToAnalyser || !g.analyserToGain:
		clear(p[:n])
	case g.gain != 1:
		applyGain(p[:n], g.gain)
	}
	return n, err
}

// tap mixes complete frames to mono and feeds them to the analyser.
func (c *outputChain) tap(p []byte) {
	frameSize := 2 * c.channels
	data := p
	if len(c.partial) > 0 {
		data = append(c.partial, p...)
	}
	frames := len(data) / frameSize
	if cap(c.mono) < frames {
		c.mono = make([]float32, frames)
	}
	mono := c.mono[:frames]
	PCMToMono(mono, data[:frames*frameSize], c.channels)
	c.partial = append(c.partial[:0], data[frames*frameSize:]...)
	c.session.analyser.WriteSamples(mono)
}

// PCMToMono averages interleaved 16-bit little-endian frames into dst.
func PCMToMono(dst []float32, pcm []byte, channels int) {
	if channels < 1 {
		channels = 1
	}
	frameSize := 2 * channels
	for i := range dst {
		off := i * frameSize
		if off+frameSize > len(pcm) {
			return
		}
		var sum int32
		for ch := range channels {
			sum += int32(int16(binary.LittleEndian.Uint16(pcm[off+2*ch:])))
		}
		dst[i] = float32(sum) / float32(channels) / 32768
	}
}

// applyGain scales 16-bit little-endian samples in place, clipping.
func applyGain(pcm []byte, gain float64) {
	for i := 0; i+1 < len(pcm); i += 2 {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[i:]))) * gain
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		binary.LittleEndian.PutUint16(pcm[i:], uint16(int16(v)))
	}
}

// delayReader emits a fixed run of silence before passing src through, so
// output lags the analyser by the configured delay.
type delayReader struct {
	src     io.Reader
	pending int
}

func (d *delayReader) Read(p []byte) (int, error) {
	if d.pending > 0 {
		n := len(p)
		if n > d.pending {
			n = d.pending
		}
		clear(p[:n])
		d.pending -= n
		return n, nil
	}
	return d.src.Read(p)
}
