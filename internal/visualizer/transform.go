package visualizer

import "math"

// Average returns the mean of buf[lo:hi]. Ranges of length one or less
// return buf[lo]; lo past the end returns 0.
func Average(buf []float32, lo, hi int) float32 {
	if lo < 0 {
		lo = 0
	}
	if lo >= len(buf) {
		return 0
	}
	if hi-lo <= 1 {
		return buf[lo]
	}
	hi = min(hi, len(buf))
	var sum float64
	for _, v := range buf[lo:hi] {
		sum += float64(v)
	}
	return float32(sum / float64(hi-lo))
}

// FreqStep returns the first spectrum bin of bar i when numBins bins are
// spread over numBars bars. Edges grow as a power law, so low bars cover
// few bins and high bars many. The first bar always starts at bin 0.
func FreqStep(i, numBars, numBins int) int {
	if i <= 0 || numBars <= 0 {
		return 0
	}
	n := float64(numBins)
	m := float64(numBars)
	step := math.Floor(n / 2 * math.Pow(n/math.Sqrt(m), float64(i)/m-1))
	return min(int(step), numBins)
}

// NormalizeFreq maps a decibel magnitude linearly so that -100 dB is 0 and
// -30 dB is 1. Values outside that range are not clamped.
func NormalizeFreq(db float64) float64 {
	return 1 - (db+30)/-70
}

// CalcFreq applies the curve (base^x - 1) / (base - 1), clamped to [0,1].
// A base of 1 is the identity curve.
func CalcFreq(x, base float64) float64 {
	var y float64
	if base == 1 {
		y = x
	} else {
		y = (math.Pow(base, x) - 1) / (base - 1)
	}
	return max(0, min(y, 1))
}

// barBase is the curve base for bar i: 100 for the first bar, falling
// linearly towards 0 for the last.
func barBase(i, numBars int) float64 {
	return 100 - float64(i)*100/float64(numBars)
}

// ReduceWave fills dst with the averages of consecutive, equal-width
// slices of waveform. The slice width is len(waveform)/len(dst), floored.
func ReduceWave(dst, waveform []float32) {
	if len(dst) == 0 {
		return
	}
	step := len(waveform) / len(dst)
	if step == 0 {
		step = 1
	}
	for i := range dst {
		dst[i] = Average(waveform, i*step, (i+1)*step)
	}
}

// NormalizeSpectrum converts decibel bins to the normalized scale in place.
func NormalizeSpectrum(spectrum []float32) {
	for i, db := range spectrum {
		spectrum[i] = float32(NormalizeFreq(float64(db)))
	}
}

// ReduceFreq fills dst with one curved magnitude per bar from an already
// normalized spectrum.
func ReduceFreq(dst, spectrum []float32) {
	numBars, numBins := len(dst), len(spectrum)
	for i := range dst {
		lo := FreqStep(i, numBars, numBins)
		hi := FreqStep(i+1, numBars, numBins)
		avg := Average(spectrum, lo, hi)
		dst[i] = float32(CalcFreq(float64(avg), barBase(i, numBars)))
	}
}
