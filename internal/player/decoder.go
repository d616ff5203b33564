package player

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// ErrUnsupportedFormat is returned for files no decoder handles.
var ErrUnsupportedFormat = errors.New("player: unsupported format")

// audioDecoder produces 16-bit little-endian interleaved PCM at the
// source's native rate and channel count.
type audioDecoder interface {
	io.ReadSeeker
	// Length is the total PCM size in bytes.
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// newDecoder picks a decoder by file extension.
func newDecoder(f *os.File) (audioDecoder, error) {
	ext := strings.ToLower(filepath.Ext(f.Name()))
	switch ext {
	case ".mp3":
		return newMP3Decoder(f)
	case ".wav":
		return newWAVDecoder(f)
	case ".flac":
		return newFLACDecoder(f)
	case ".ogg", ".oga":
		return newOGGDecoder(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// pcmState tracks the output position of a converting decoder and the
// converted bytes not yet returned to the caller.
type pcmState struct {
	pending  []byte
	pos      int64
	total    int64
	channels int
}

func (s *pcmState) drain(p []byte) (int, bool) {
	if len(s.pending) == 0 {
		return 0, false
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	s.pos += int64(n)
	return n, true
}

// deliver copies raw into p and keeps the remainder pending. raw must not
// be reused until drained.
func (s *pcmState) deliver(p, raw []byte) int {
	n := copy(p, raw)
	s.pending = raw[n:]
	s.pos += int64(n)
	return n
}

// target resolves a Seek request to a clamped, frame-aligned byte offset.
func (s *pcmState) target(offset int64, whence int) int64 {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = s.pos + offset
	case io.SeekEnd:
		pos = s.total + offset
	}
	pos = max(0, min(pos, s.total))
	return pos - pos%s.frameBytes()
}

func (s *pcmState) frameBytes() int64 { return int64(s.channels * bitDepth) }

func (s *pcmState) moved(pos int64) {
	s.pending = nil
	s.pos = pos
}

func grow(b []byte, n int) []byte {
	if cap(b) < n {
		return make([]byte, n)
	}
	return b[:n]
}

func putSample(b []byte, v int) {
	v = max(-32768, min(v, 32767))
	binary.LittleEndian.PutUint16(b, uint16(int16(v)))
}

// --- MP3 ---

type mp3Decoder struct {
	dec *mp3.Decoder
}

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}
	return &mp3Decoder{dec: dec}, nil
}

func (d *mp3Decoder) Read(p []byte) (int, error) { return d.dec.Read(p) }
func (d *mp3Decoder) Seek(offset int64, whence int) (int64, error) {
	return d.dec.Seek(offset, whence)
}
func (d *mp3Decoder) Length() int64     { return d.dec.Length() }
func (d *mp3Decoder) SampleRate() int   { return d.dec.SampleRate() }
func (d *mp3Decoder) ChannelCount() int { return 2 } // go-mp3 always decodes to stereo

// --- WAV ---

type wavDecoder struct {
	pcmState
	file       *os.File
	pcmStart   int64
	sampleRate int
	width      int // source bytes per sample
	src, raw   []byte
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	width := int(dec.BitDepth) / 8
	switch width {
	case 1, 2, 3, 4:
	default:
		return nil, fmt.Errorf("%w: %d-bit WAV", ErrUnsupportedFormat, dec.BitDepth)
	}
	if channels < 1 {
		return nil, errors.New("invalid WAV channel count")
	}

	pcmStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("getting PCM start position: %w", err)
	}
	frames := dec.PCMLen() / int64(channels*width)

	return &wavDecoder{
		pcmState:   pcmState{total: frames * int64(channels*bitDepth), channels: channels},
		file:       f,
		pcmStart:   pcmStart,
		sampleRate: int(dec.SampleRate),
		width:      width,
	}, nil
}

func (d *wavDecoder) sample(b []byte) int {
	switch d.width {
	case 1:
		return (int(b[0]) - 128) << 8 // 8-bit WAV is unsigned
	case 2:
		return int(int16(binary.LittleEndian.Uint16(b)))
	case 3:
		s := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if s&0x800000 != 0 {
			s |= ^0xFFFFFF
		}
		return int(s >> 8)
	default:
		return int(int32(binary.LittleEndian.Uint32(b)) >> 16)
	}
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}
	// Stop at the end of the data chunk; trailing chunks are not audio.
	samples := min(max(len(p)/bitDepth, 1), int((d.total-d.pos)/bitDepth))
	if samples <= 0 {
		return 0, io.EOF
	}
	d.src = grow(d.src, samples*d.width)
	n, err := io.ReadFull(d.file, d.src)
	got := n / d.width
	if got == 0 {
		if err == nil || errors.Is(err, io.ErrUnexpectedEOF) {
			err = io.EOF
		}
		return 0, err
	}

	d.raw = grow(d.raw, got*bitDepth)
	for i := range got {
		putSample(d.raw[i*bitDepth:], d.sample(d.src[i*d.width:]))
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	return d.deliver(p, d.raw), err
}

func (d *wavDecoder) Seek(offset int64, whence int) (int64, error) {
	pos := d.target(offset, whence)
	frame := pos / d.frameBytes()
	src := frame * int64(d.channels*d.width)
	if _, err := d.file.Seek(d.pcmStart+src, io.SeekStart); err != nil {
		return d.pos, err
	}
	d.moved(pos)
	return pos, nil
}

func (d *wavDecoder) Length() int64     { return d.total }
func (d *wavDecoder) SampleRate() int   { return d.sampleRate }
func (d *wavDecoder) ChannelCount() int { return d.channels }

// --- FLAC ---

type flacDecoder struct {
	pcmState
	stream     *flac.Stream
	sampleRate int
	bps        int
	raw        []byte
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	info := stream.Info
	channels := int(info.NChannels)
	return &flacDecoder{
		pcmState:   pcmState{total: int64(info.NSamples) * int64(channels*bitDepth), channels: channels},
		stream:     stream,
		sampleRate: int(info.SampleRate),
		bps:        int(info.BitsPerSample),
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}
	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	samples := int(frame.Subframes[0].NSamples)
	d.raw = grow(d.raw, samples*d.channels*bitDepth)
	for i := range samples {
		for ch := range d.channels {
			v := int(frame.Subframes[ch].Samples[i])
			switch {
			case d.bps > 16:
				v >>= d.bps - 16
			case d.bps < 16:
				v <<= 16 - d.bps
			}
			putSample(d.raw[(i*d.channels+ch)*bitDepth:], v)
		}
	}
	return d.deliver(p, d.raw), nil
}

func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	pos := d.target(offset, whence)
	if _, err := d.stream.Seek(uint64(pos / d.frameBytes())); err != nil {
		return d.pos, err
	}
	d.moved(pos)
	return pos, nil
}

func (d *flacDecoder) Length() int64     { return d.total }
func (d *flacDecoder) SampleRate() int   { return d.sampleRate }
func (d *flacDecoder) ChannelCount() int { return d.channels }

// --- OGG Vorbis ---

type oggDecoder struct {
	pcmState
	reader  *oggvorbis.Reader
	samples []float32
	raw     []byte
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	channels := reader.Channels()
	return &oggDecoder{
		pcmState: pcmState{total: reader.Length() * int64(channels*bitDepth), channels: channels},
		reader:   reader,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}
	want := max(len(p)/bitDepth, d.channels)
	if cap(d.samples) < want {
		d.samples = make([]float32, want)
	}
	n, err := d.reader.Read(d.samples[:want])
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	d.raw = grow(d.raw, n*bitDepth)
	for i, s := range d.samples[:n] {
		putSample(d.raw[i*bitDepth:], int(max(-1, min(s, 1))*32767))
	}
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return d.deliver(p, d.raw), err
}

func (d *oggDecoder) Seek(offset int64, whence int) (int64, error) {
	pos := d.target(offset, whence)
	if err := d.reader.SetPosition(pos / d.frameBytes()); err != nil {
		return d.pos, err
	}
	d.moved(pos)
	return pos, nil
}

func (d *oggDecoder) Length() int64     { return d.total }
func (d *oggDecoder) SampleRate() int   { return d.reader.SampleRate() }
func (d *oggDecoder) ChannelCount() int { return d.channels }
