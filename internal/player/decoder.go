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

// ErrUnsupportedFormat is returned by Decode for files it has no decoder for.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// pcm is decoded audio in its source layout, before conversion to the
// player's fixed output format.
type pcm struct {
	samples  []int16
	rate     int
	channels int
}

// Decode reads the whole file at path and returns it as 44.1kHz stereo
// 16-bit PCM.
func Decode(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var src pcm
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		src, err = decodeMP3(f)
	case ".wav":
		src, err = decodeWAV(f)
	case ".flac":
		src, err = decodeFLAC(f)
	case ".ogg":
		src, err = decodeOGG(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if src.rate <= 0 || src.channels <= 0 {
		return nil, fmt.Errorf("decode %s: bad stream format (%d Hz, %d channels)", filepath.Base(path), src.rate, src.channels)
	}
	return &Buffer{Samples: resample(toStereo(src.samples, src.channels), src.rate, SampleRate)}, nil
}

// go-mp3 always produces 16-bit LE stereo.
func decodeMP3(r io.Reader) (pcm, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return pcm{}, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return pcm{}, err
	}
	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return pcm{samples: out, rate: dec.SampleRate(), channels: 2}, nil
}

func decodeWAV(f *os.File) (pcm, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return pcm{}, errors.New("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return pcm{}, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	depth := int(dec.BitDepth)
	width := depth / 8
	if width < 1 || width > 4 {
		return pcm{}, fmt.Errorf("unsupported WAV bit depth %d", depth)
	}
	raw := make([]byte, dec.PCMLen())
	n, err := io.ReadFull(f, raw)
	if err != nil && err != io.ErrUnexpectedEOF {
		return pcm{}, err
	}
	raw = raw[:n-n%width]

	out := make([]int16, len(raw)/width)
	for i := range out {
		off := i * width
		var s int32
		switch depth {
		case 8:
			// 8-bit WAV is unsigned
			s = (int32(raw[off]) - 128) << 8
		case 16:
			s = int32(int16(binary.LittleEndian.Uint16(raw[off:])))
		case 24:
			v := int32(raw[off]) | int32(raw[off+1])<<8 | int32(raw[off+2])<<16
			if v&0x800000 != 0 {
				v |= ^0xFFFFFF
			}
			s = v >> 8
		case 32:
			s = int32(binary.LittleEndian.Uint32(raw[off:])) >> 16
		}
		out[i] = clamp16(int(s))
	}
	return pcm{samples: out, rate: int(dec.SampleRate), channels: int(dec.NumChans)}, nil
}

func decodeFLAC(r io.Reader) (pcm, error) {
	stream, err := flac.New(r)
	if err != nil {
		return pcm{}, err
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	bps := int(info.BitsPerSample)
	out := make([]int16, 0, int(info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return pcm{}, err
		}
		n := int(frame.Subframes[0].NSamples)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				s := int(frame.Subframes[ch].Samples[i])
				switch {
				case bps > 16:
					s >>= bps - 16
				case bps < 16:
					s <<= 16 - bps
				}
				out = append(out, clamp16(s))
			}
		}
	}
	return pcm{samples: out, rate: int(info.SampleRate), channels: channels}, nil
}

func decodeOGG(r io.Reader) (pcm, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return pcm{}, err
	}
	channels := reader.Channels()
	out := make([]int16, 0, int(reader.Length())*channels)
	chunk := make([]float32, 4096*channels)
	for {
		n, err := reader.Read(chunk)
		for _, s := range chunk[:n] {
			if s > 1 {
				s = 1
			} else if s < -1 {
				s = -1
			}
			out = append(out, int16(s*32767))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return pcm{}, err
		}
	}
	return pcm{samples: out, rate: reader.SampleRate(), channels: channels}, nil
}

// toStereo maps mono to both channels and keeps the first two of wider
// layouts.
func toStereo(in []int16, channels int) []int16 {
	if channels == 2 {
		return in
	}
	frames := len(in) / channels
	out := make([]int16, frames*2)
	for i := 0; i < frames; i++ {
		l := in[i*channels]
		r := l
		if channels > 1 {
			r = in[i*channels+1]
		}
		out[i*2] = l
		out[i*2+1] = r
	}
	return out
}

// resample converts interleaved stereo between rates with linear
// interpolation.
func resample(in []int16, from, to int) []int16 {
	if from == to || len(in) < 4 {
		return in
	}
	frames := len(in) / 2
	outFrames := int(int64(frames) * int64(to) / int64(from))
	out := make([]int16, outFrames*2)
	step := float64(from) / float64(to)
	for i := 0; i < outFrames; i++ {
		pos := float64(i) * step
		j := int(pos)
		frac := pos - float64(j)
		k := j + 1
		if k >= frames {
			k = frames - 1
		}
		for ch := 0; ch < 2; ch++ {
			a := float64(in[j*2+ch])
			b := float64(in[k*2+ch])
			out[i*2+ch] = int16(a + (b-a)*frac)
		}
	}
	return out
}

func clamp16(s int) int16 {
	if s > 32767 {
		return 32767
	}
	if s < -32768 {
		return -32768
	}
	return int16(s)
}
