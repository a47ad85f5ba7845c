// Package visualizer draws audio-reactive layers onto a gg canvas.
package visualizer

import (
	"github.com/fogleman/gg"

	"github.com/olivier-w/lyricviz/internal/analysis"
	"github.com/olivier-w/lyricviz/internal/beat"
)

// Style draws one visualization layer. Implementations keep their own
// animation state, so each render session owns its own instances.
type Style interface {
	Name() string
	Draw(dc *gg.Context, fr *Frame)
}

// Frame carries the per-frame inputs shared by every style.
type Frame struct {
	Width, Height float64

	Time float64 // playback position, seconds
	Dt   float64 // wall time since the previous frame, seconds

	Bins    []uint8 // may be nil
	Samples []int16 // interleaved stereo, most recent window; may be nil

	Beat   beat.Features
	Levels analysis.Levels
	Knobs  analysis.Knobs

	Palette *Palette

	Speed     float64
	Intensity float64
	Trails    bool
	Particles int
}

// Builtin lists constructors for the built-in styles, particles first.
var Builtin = []func() Style{
	func() Style { return NewParticleField() },
	func() Style { return NewSpectrum() },
	func() Style { return NewWaveform() },
	func() Style { return NewMatrix() },
	func() Style { return NewRings() },
	func() Style { return NewLissajous() },
	func() Style { return NewWaterfall() },
}

// step converts a frame delta into a 60fps-relative multiplier so motion
// speed doesn't depend on the render rate.
func step(dt float64) float64 {
	if !(dt > 0) {
		return 1
	}
	s := dt * 60
	if s > 4 {
		return 4
	}
	return s
}
