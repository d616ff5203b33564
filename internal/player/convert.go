package player

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// newConverter adapts 16-bit PCM at rate/channels to the device format.
// Mono is duplicated to both sides; channels beyond the first two are
// dropped. Rate conversion is linear interpolation.
func newConverter(r io.Reader, rate, channels int) io.Reader {
	if rate == sampleRate && channels == channelCount {
		return r
	}
	if channels < 1 {
		channels = 1
	}
	return &resampler{
		src:      bufio.NewReader(r),
		channels: channels,
		step:     float64(rate) / sampleRate,
		in:       make([]byte, channels*bitDepth),
	}
}

type resampler struct {
	src      *bufio.Reader
	channels int
	step     float64
	in       []byte

	started bool
	frac    float64
	cur     [2]float64
	nxt     [2]float64
	last    bool // nxt is a copy of cur; the source is exhausted
	done    bool
	err     error
}

func (r *resampler) readFrame() ([2]float64, error) {
	if _, err := io.ReadFull(r.src, r.in); err != nil {
		return [2]float64{}, err
	}
	left := float64(int16(binary.LittleEndian.Uint16(r.in)))
	right := left
	if r.channels > 1 {
		right = float64(int16(binary.LittleEndian.Uint16(r.in[2:])))
	}
	return [2]float64{left, right}, nil
}

func (r *resampler) endOfSource(err error) {
	r.last = true
	r.nxt = r.cur
	if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		r.err = err
	}
}

func (r *resampler) Read(p []byte) (int, error) {
	if len(p) < frameSize {
		return 0, io.ErrShortBuffer
	}
	if !r.started {
		r.started = true
		f, err := r.readFrame()
		if err != nil {
			r.done = true
			r.endOfSource(err)
		} else {
			r.cur = f
			if r.nxt, err = r.readFrame(); err != nil {
				r.endOfSource(err)
			}
		}
	}

	n := 0
	for !r.done && n+frameSize <= len(p) {
		for ch := range channelCount {
			v := math.Round(r.cur[ch] + (r.nxt[ch]-r.cur[ch])*r.frac)
			binary.LittleEndian.PutUint16(p[n+bitDepth*ch:], uint16(int16(v)))
		}
		n += frameSize

		r.frac += r.step
		for r.frac >= 1 && !r.done {
			r.frac--
			if r.last {
				r.done = true
				break
			}
			r.cur = r.nxt
			f, err := r.readFrame()
			if err != nil {
				r.endOfSource(err)
				continue
			}
			r.nxt = f
		}
	}

	if n == 0 && r.done {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	return n, nil
}
