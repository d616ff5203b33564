package player

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pcm16(samples ...int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return b
}

func samples16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}

func convertAll(t *testing.T, pcm []byte, rate, channels int) []int16 {
	t.Helper()
	out, err := io.ReadAll(newConverter(bytes.NewReader(pcm), rate, channels))
	require.NoError(t, err)
	return samples16(out)
}

func TestConverterPassesDeviceFormatThrough(t *testing.T) {
	r := bytes.NewReader(nil)
	assert.Same(t, r, newConverter(r, sampleRate, channelCount))
}

func TestConverterUpmixesMono(t *testing.T) {
	got := convertAll(t, pcm16(100, -200), sampleRate, 1)
	assert.Equal(t, []int16{100, 100, -200, -200}, got)
}

func TestConverterDownsamples(t *testing.T) {
	in := pcm16(0, 0, 10, 10, 20, 20, 30, 30)
	got := convertAll(t, in, 2*sampleRate, 2)
	assert.Equal(t, []int16{0, 0, 20, 20}, got)
}

func TestConverterUpsamplesLinearly(t *testing.T) {
	got := convertAll(t, pcm16(0, 100), sampleRate/2, 1)
	assert.Equal(t, []int16{0, 0, 50, 50, 100, 100, 100, 100}, got)
}

func TestConverterDropsExtraChannels(t *testing.T) {
	got := convertAll(t, pcm16(1, 2, 3, 4, 5, 6), sampleRate, 3)
	assert.Equal(t, []int16{1, 2, 4, 5}, got)
}

func TestConverterEmptySource(t *testing.T) {
	assert.Empty(t, convertAll(t, nil, 22050, 1))
}

func writeWAV(t *testing.T, rate, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func TestWAVDecoderReadsAndSeeks(t *testing.T) {
	path := writeWAV(t, 8000, 1, []int{0, 1000, -1000, 32767, -32768, 7})
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec, err := newDecoder(f)
	require.NoError(t, err)
	assert.Equal(t, 8000, dec.SampleRate())
	assert.Equal(t, 1, dec.ChannelCount())
	assert.Equal(t, int64(12), dec.Length())

	small := make([]byte, 3) // forces pending bytes between reads
	var all []byte
	for {
		n, err := dec.Read(small)
		all = append(all, small[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, []int16{0, 1000, -1000, 32767, -32768, 7}, samples16(all))

	pos, err := dec.Seek(7, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos, "seek aligns to a frame")
	rest, err := io.ReadAll(dec)
	require.NoError(t, err)
	assert.Equal(t, []int16{32767, -32768, 7}, samples16(rest))
}

func TestNewDecoderRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = newDecoder(f)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
