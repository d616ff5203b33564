package player

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olivier-w/audiovisual/internal/spectral"
)

// ReadSamples decodes up to n mono samples of the file at path, starting at
// offset, at the device rate. Fewer samples are returned when the file ends
// first. It does not open the audio device.
func ReadSamples(path string, offset time.Duration, n int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := newDecoder(f)
	if err != nil {
		return nil, err
	}
	frame := int64(dec.ChannelCount() * bitDepth)
	pos := int64(offset.Seconds()*float64(dec.SampleRate())) * frame
	pos = max(0, min(pos, dec.Length()))
	if _, err := dec.Seek(pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to %s: %w", offset, err)
	}

	pcm := make([]byte, n*frameSize)
	read, err := io.ReadFull(newConverter(dec, dec.SampleRate(), dec.ChannelCount()), pcm)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	out := make([]float32, read/frameSize)
	spectral.PCMToMono(out, pcm[:read], channelCount)
	return out, nil
}
