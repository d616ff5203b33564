package main

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpectrumBarsSilenceIsFlat(t *testing.T) {
	bars := spectrumBars(make([]float32, 256), 256, 16)
	require.Len(t, bars, 16)
	for i, v := range bars {
		assert.Zero(t, v, "bar %d", i)
	}
}

func TestSpectrumBarsToneRaisesLowBars(t *testing.T) {
	samples := make([]float32, 1024)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / 44100))
	}
	bars := spectrumBars(samples, 1024, 16)
	require.Len(t, bars, 16)
	var peak float64
	for _, v := range bars {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		peak = max(peak, v)
	}
	assert.Positive(t, peak)
}

func TestPlotBarsCaption(t *testing.T) {
	out := plotBars([]float64{0, 0.5, 1}, 0, 5, "tone.wav at 0s")
	assert.Contains(t, out, "tone.wav at 0s")
	assert.GreaterOrEqual(t, strings.Count(out, "\n"), 5)
}

func TestSpectrumCommandRejectsMissingFile(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"spectrum", filepath.Join(t.TempDir(), "missing.wav")})
	assert.Error(t, cmd.Execute())
}
