package spectral

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// minDecibels is the floor reported for silent bins.
const minDecibels = -200.0

// Analyser turns the most recent fftSize mono samples into time-domain and
// smoothed frequency-domain data. Buffers are allocated once; the Get
// methods do not allocate.
type Analyser struct {
	mu        sync.Mutex
	fftSize   int
	smoothing float64
	floatTD   bool

	ring     *ringBuffer
	window   []float64
	frame    []float32
	real     []float64
	coeffs   []complex128
	fft      *fourier.FFT
	smoothed []float64
}

// NewAnalyser creates an analyser. fftSize must be a power of two.
// smoothing is the time constant applied between successive spectrum
// reads, in [0,1). floatTimeDomain reports whether the analyser can
// produce float time-domain samples directly.
func NewAnalyser(fftSize int, smoothing float64, floatTimeDomain bool) *Analyser {
	ones := make([]float64, fftSize)
	for i := range ones {
		ones[i] = 1
	}
	return &Analyser{
		fftSize:   fftSize,
		smoothing: smoothing,
		floatTD:   floatTimeDomain,
		ring:      newRingBuffer(fftSize),
		window:    window.Blackman(ones),
		frame:     make([]float32, fftSize),
		real:      make([]float64, fftSize),
		coeffs:    make([]complex128, fftSize/2+1),
		fft:       fourier.NewFFT(fftSize),
		smoothed:  make([]float64, fftSize/2),
	}
}

// FFTSize returns the transform size.
func (a *Analyser) FFTSize() int { return a.fftSize }

// BinCount returns the number of frequency bins, fftSize/2.
func (a *Analyser) BinCount() int { return a.fftSize / 2 }

// SupportsFloatTimeDomain reports whether FloatTimeDomain is usable.
func (a *Analyser) SupportsFloatTimeDomain() bool { return a.floatTD }

// WriteSamples feeds mono samples in [-1,1].
func (a *Analyser) WriteSamples(p []float32) {
	a.mu.Lock()
	a.ring.write(p)
	a.mu.Unlock()
}

// Reset drops buffered samples and spectrum history.
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ring.reset()
	clear(a.smoothed)
}

// FloatTimeDomain copies the most recent len(dst) samples into dst.
// len(dst) may not exceed FFTSize.
func (a *Analyser) FloatTimeDomain(dst []float32) {
	a.mu.Lock()
	a.ring.latest(dst)
	a.mu.Unlock()
}

// ByteTimeDomain copies the most recent len(dst) samples into dst as
// unsigned bytes, 128 being silence.
func (a *Analyser) ByteTimeDomain(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	frame := a.frame[:len(dst)]
	a.ring.latest(frame)
	for i, v := range frame {
		b := 128 * (1 + float64(v))
		switch {
		case b < 0:
			b = 0
		case b > 255:
			b = 255
		}
		dst[i] = byte(b)
	}
}

// FloatFrequency writes up to BinCount decibel magnitudes into dst. Each
// call advances the smoothing state, so it should be called once per frame.
func (a *Analyser) FloatFrequency(dst []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.ring.latest(a.frame)
	for i, v := range a.frame {
		a.real[i] = float64(v) * a.window[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.real)

	scale := 1 / float64(a.fftSize)
	tau := a.smoothing
	for k := range a.smoothed {
		mag := cmplx.Abs(a.coeffs[k]) * scale
		a.smoothed[k] = tau*a.smoothed[k] + (1-tau)*mag
		if k >= len(dst) {
			continue
		}
		db := minDecibels
		if a.smoothed[k] > 0 {
			db = math.Max(20*math.Log10(a.smoothed[k]), minDecibels)
		}
		dst[k] = float32(db)
	}
}

// BytesToFloat converts unsigned 8-bit time-domain samples to [-1,1].
func BytesToFloat(dst []float32, src []byte) {
	for i, b := range src {
		if i >= len(dst) {
			return
		}
		dst[i] = (float32(b) - 128) / 128
	}
}
