package player

import (
	"math"
	"time"
)

const (
	SampleRate   = 44100
	Channels     = 2
	bytesPerSamp = 2
	bytesPerSec  = SampleRate * Channels * bytesPerSamp
)

// Buffer holds a decoded track as interleaved stereo int16 at SampleRate.
type Buffer struct {
	Samples []int16
}

// Frames returns the number of stereo frames.
func (b *Buffer) Frames() int { return len(b.Samples) / Channels }

// Duration returns the playing time of the buffer.
func (b *Buffer) Duration() time.Duration {
	return frameDuration(b.Frames())
}

// Window copies up to len(dst) interleaved samples ending at pos into dst.
// The result is shorter than dst near the start of the track and empty
// past its end.
func (b *Buffer) Window(pos time.Duration, dst []int16) []int16 {
	end := frameAt(pos) * Channels
	if end > len(b.Samples) {
		end = len(b.Samples)
	}
	if end <= 0 {
		return dst[:0]
	}
	start := end - len(dst)
	if start < 0 {
		start = 0
	}
	start -= start % Channels
	n := copy(dst, b.Samples[start:end])
	return dst[:n]
}

// Peaks returns n normalised (0..1) absolute peak levels across the track,
// for drawing a waveform overview.
func (b *Buffer) Peaks(n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	frames := b.Frames()
	if frames == 0 {
		return out
	}
	for i := range out {
		lo := i * frames / n
		hi := (i + 1) * frames / n
		if hi <= lo {
			hi = lo + 1
		}
		var peak int
		for f := lo; f < hi && f < frames; f++ {
			for ch := 0; ch < Channels; ch++ {
				s := int(b.Samples[f*Channels+ch])
				if s < 0 {
					s = -s
				}
				if s > peak {
					peak = s
				}
			}
		}
		out[i] = math.Min(1, float64(peak)/32767)
	}
	return out
}

func frameAt(pos time.Duration) int {
	if pos <= 0 {
		return 0
	}
	return int(math.Round(pos.Seconds() * SampleRate))
}

func frameDuration(frames int) time.Duration {
	return time.Duration(float64(frames) / SampleRate * float64(time.Second))
}
