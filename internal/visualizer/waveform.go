package visualizer

import (
	"math"

	"github.com/fogleman/gg"
)

const waveformCols = 160

// Waveform draws spring-smoothed left and right traces across the middle of
// the canvas.
type Waveform struct {
	left  springField
	right springField
}

// NewWaveform creates a new waveform style.
func NewWaveform() *Waveform {
	w := &Waveform{
		left:  newSpringField(14, 0.8),
		right: newSpringField(14, 0.8),
	}
	w.left.resize(waveformCols)
	w.right.resize(waveformCols)
	return w
}

func (w *Waveform) Name() string { return "waveform" }

func (w *Waveform) Draw(dc *gg.Context, fr *Frame) {
	w.left.tune(fr.Dt)
	w.right.tune(fr.Dt)

	frames := len(fr.Samples) / 2
	spf := float64(frames) / waveformCols
	for c := range waveformCols {
		lo := int(float64(c) * spf)
		hi := int(float64(c+1) * spf)
		if hi > frames {
			hi = frames
		}
		var l, r float64
		if hi > lo {
			for i := lo; i < hi; i++ {
				l += float64(fr.Samples[i*2]) / 32768
				r += float64(fr.Samples[i*2+1]) / 32768
			}
			l /= float64(hi - lo)
			r /= float64(hi - lo)
		}
		w.left.step(c, l)
		w.right.step(c, r)
	}

	mid := fr.Height / 2
	amp := fr.Height * 0.4 * (1 + fr.Knobs.Pulse/255) * math.Max(0.25, fr.Intensity)
	dx := fr.Width / (waveformCols - 1)

	dc.SetLineWidth(1)
	dc.SetColor(WithAlpha(fr.Palette.At(0.5), 0.25))
	dc.DrawLine(0, mid, fr.Width, mid)
	dc.Stroke()

	width := 2 + 4*fr.Beat.Intensity
	trace := func(s *springField, hue float64) {
		for c := range waveformCols {
			y := mid - clampUnit(s.pos[c]*4)*amp
			if c == 0 {
				dc.MoveTo(0, y)
				continue
			}
			dc.LineTo(float64(c)*dx, y)
		}
		dc.SetLineWidth(width)
		dc.SetColor(fr.Palette.At(hue + fr.Beat.Phase*0.1))
		dc.Stroke()
	}
	trace(&w.left, 0.2)
	trace(&w.right, 0.7)
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
