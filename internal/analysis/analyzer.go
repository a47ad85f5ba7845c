// Package analysis turns PCM windows into frequency-bin snapshots and
// derives the named bands that drive visual parameters.
package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	DefaultFFTSize = 1024

	defaultSmoothing = 0.8
	minDecibels      = -100.0
	maxDecibels      = -30.0
)

// Analyzer is the frequency tap consumed by the render loop. Each call to
// Process yields FFTSize/2 bin magnitudes scaled to 0..255 on a decibel
// range, with temporal smoothing between calls.
type Analyzer struct {
	fftSize   int
	smoothing float64
	window    []float64
	frame     []float64
	mags      []float64
	bins      []uint8
}

// NewAnalyzer creates an analyzer. fftSize is rounded up to a power of two.
func NewAnalyzer(fftSize int) *Analyzer {
	if fftSize < 32 {
		fftSize = DefaultFFTSize
	}
	n := 1
	for n < fftSize {
		n <<= 1
	}
	return &Analyzer{
		fftSize:   n,
		smoothing: defaultSmoothing,
		window:    window.Hann(n),
		frame:     make([]float64, n),
		mags:      make([]float64, n/2),
		bins:      make([]uint8, n/2),
	}
}

// FFTSize returns the number of mono frames consumed per Process call.
func (a *Analyzer) FFTSize() int { return a.fftSize }

// BinCount returns the length of the slices returned by Process.
func (a *Analyzer) BinCount() int { return len(a.bins) }

// Reset drops smoothing history, e.g. on track change.
func (a *Analyzer) Reset() {
	for i := range a.mags {
		a.mags[i] = 0
		a.bins[i] = 0
	}
}

// Process analyses the newest FFTSize frames of interleaved samples. It
// returns nil when no samples are available. The returned slice is reused
// by the next call.
func (a *Analyzer) Process(samples []int16, channels int) []uint8 {
	if channels < 1 {
		channels = 1
	}
	frames := len(samples) / channels
	if frames == 0 {
		return nil
	}

	// Mix to mono, right-aligned so the newest audio sits at the end of
	// the window; missing history is zero padded.
	pad := a.fftSize - frames
	if pad < 0 {
		samples = samples[(frames-a.fftSize)*channels:]
		pad = 0
	}
	for i := 0; i < pad; i++ {
		a.frame[i] = 0
	}
	for i := pad; i < a.fftSize; i++ {
		idx := (i - pad) * channels
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(samples[idx+c])
		}
		a.frame[i] = sum / float64(channels) / 32768.0 * a.window[i]
	}

	spectrum := fft.FFTReal(a.frame)

	scale := 255 / (maxDecibels - minDecibels)
	for k := range a.mags {
		mag := cmplx.Abs(spectrum[k]) / float64(a.fftSize)
		a.mags[k] = a.mags[k]*a.smoothing + mag*(1-a.smoothing)
		if a.mags[k] <= 0 {
			a.bins[k] = 0
			continue
		}
		db := 20 * math.Log10(a.mags[k])
		v := (db - minDecibels) * scale
		switch {
		case v <= 0 || math.IsNaN(v):
			a.bins[k] = 0
		case v >= 255:
			a.bins[k] = 255
		default:
			a.bins[k] = uint8(v)
		}
	}
	return a.bins
}
