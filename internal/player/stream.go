package player

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
)

// ErrNoFFmpeg is returned when live playback is requested without ffmpeg
// on PATH.
var ErrNoFFmpeg = errors.New("ffmpeg not found (required for live stream playback)")

// ffmpegArgs asks ffmpeg to decode url to raw PCM in the device format on
// stdout, reconnecting when the server drops the connection.
func ffmpegArgs(url string) []string {
	return []string{
		"-nostdin", "-hide_banner", "-loglevel", "error",
		"-reconnect", "1", "-reconnect_streamed", "1",
		"-i", url,
		"-vn",
		"-ac", strconv.Itoa(channelCount),
		"-ar", strconv.Itoa(sampleRate),
		"-f", "s16le",
		"pipe:1",
	}
}

// livePipe is an unbounded decoder over an ffmpeg subprocess. It reports
// no length, which marks the player live.
type livePipe struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	exited chan struct{}
	once   sync.Once
}

func startLivePipe(url string, logger *slog.Logger) (*livePipe, error) {
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, ErrNoFFmpeg
	}
	cmd := exec.Command(bin, ffmpegArgs(url)...)
	cmd.Stderr = io.Discard
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("setting up ffmpeg stream: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg stream: %w", err)
	}

	lp := &livePipe{cmd: cmd, stdout: stdout, exited: make(chan struct{})}
	go func() {
		defer close(lp.exited)
		if err := cmd.Wait(); err != nil {
			logger.Debug("ffmpeg exited", slog.String("url", url), slog.Any("error", err))
		}
	}()
	return lp, nil
}

func (lp *livePipe) Read(p []byte) (int, error)     { return lp.stdout.Read(p) }
func (lp *livePipe) Seek(int64, int) (int64, error) { return 0, ErrNotSeekable }
func (lp *livePipe) Length() int64                  { return -1 }
func (lp *livePipe) SampleRate() int                { return sampleRate }
func (lp *livePipe) ChannelCount() int              { return channelCount }

// Close kills ffmpeg and waits for it to be reaped.
func (lp *livePipe) Close() error {
	lp.once.Do(func() {
		_ = lp.stdout.Close()
		if lp.cmd.Process != nil {
			_ = lp.cmd.Process.Kill()
		}
		<-lp.exited
	})
	return nil
}

// titleFeed announces stream titles for as long as it is open.
type titleFeed interface {
	Updates() <-chan string
	Close() error
}

// followTitles attaches feed to the player, which closes it on Close.
// A closed player closes feed immediately.
func (p *Player) followTitles(feed titleFeed) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = feed.Close()
		return
	}
	p.titles = feed
	p.mu.Unlock()
}
