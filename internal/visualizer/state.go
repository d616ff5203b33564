package visualizer

// State is the per-frame visual data: bar magnitudes in [0,1], reduced
// wave amplitudes, and the screen coordinates derived from them. Slices
// are allocated once per resolution and reused across frames.
type State struct {
	Freq []float32
	Wave []float32

	FreqXs, FreqYs []float64
	WaveXs, WaveYs []float64

	width, height float64
}

// NewState allocates a state for numFreq bars and numWave wave points.
func NewState(numFreq, numWave int) *State {
	s := &State{}
	s.SetResolution(numFreq, numWave)
	return s
}

// SetResolution reallocates the arrays whose length changed.
func (s *State) SetResolution(numFreq, numWave int) {
	if numFreq != len(s.Freq) {
		s.Freq = make([]float32, numFreq)
		s.FreqXs = make([]float64, numFreq)
		s.FreqYs = make([]float64, numFreq)
	}
	if numWave != len(s.Wave) {
		s.Wave = make([]float32, numWave)
		s.WaveXs = make([]float64, numWave)
		s.WaveYs = make([]float64, numWave)
	}
	s.layout()
}

// Resize records the drawing area. A width change recomputes the cached x
// coordinates; magnitudes are left untouched.
func (s *State) Resize(w, h float64) {
	s.height = h
	if w == s.width {
		return
	}
	s.width = w
	s.layout()
}

// Size returns the drawing area.
func (s *State) Size() (w, h float64) { return s.width, s.height }

// layout places bar i's right edge at (i+1)*w/numFreq and wave point i at
// i*w/numWave.
func (s *State) layout() {
	if n := len(s.FreqXs); n > 0 {
		dx := s.width / float64(n)
		for i := range s.FreqXs {
			s.FreqXs[i] = float64(i+1) * dx
		}
	}
	if n := len(s.WaveXs); n > 0 {
		dx := s.width / float64(n)
		for i := range s.WaveXs {
			s.WaveXs[i] = float64(i) * dx
		}
	}
}

// Update reduces fresh analyser samples into the state. spectrum holds
// decibel magnitudes and is normalized in place.
func (s *State) Update(waveform, spectrum []float32) {
	ReduceWave(s.Wave, waveform)
	NormalizeSpectrum(spectrum)
	ReduceFreq(s.Freq, spectrum)

	h := s.height
	for i, v := range s.Wave {
		s.WaveYs[i] = (float64(v)/6 + 0.5) * h
	}
	for i, v := range s.Freq {
		s.FreqYs[i] = h - float64(v)*h/3
	}
}
