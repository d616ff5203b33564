package player

import (
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
)

const (
	// Output format of the audio device. Decoded PCM is converted to it.
	sampleRate   = 44100
	channelCount = 2
	bitDepth     = 2 // 16-bit = 2 bytes
	frameSize    = channelCount * bitDepth
)

// output creates device players. *oto.Context satisfies it through
// otoOutput; tests substitute a fake.
type output interface {
	NewPlayer(r io.Reader) devicePlayer
}

// devicePlayer is the subset of *oto.Player used here.
type devicePlayer interface {
	Play()
	Pause()
	IsPlaying() bool
}

type otoOutput struct {
	ctx *oto.Context
}

func (o otoOutput) NewPlayer(r io.Reader) devicePlayer {
	return o.ctx.NewPlayer(r)
}

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

func initOto() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channelCount,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}
