package visualizer

import (
	"image/color"

	"github.com/fogleman/gg"
)

const (
	waterfallBands = 36
	waterfallRows  = 48
)

// Waterfall draws a scrolling spectrogram: the newest spectrum sits on the
// top row and older rows fade as they move down.
type Waterfall struct {
	smooth  springField
	mags    [waterfallBands]float64
	history [waterfallRows][waterfallBands]float64
	head    int
}

func NewWaterfall() *Waterfall {
	w := &Waterfall{smooth: newSpringField(8.5, 0.72)}
	w.smooth.resize(waterfallBands)
	return w
}

func (w *Waterfall) Name() string { return "waterfall" }

func (w *Waterfall) Draw(dc *gg.Context, fr *Frame) {
	groupBins(fr.Bins, w.mags[:])
	w.smooth.tune(fr.Dt)

	w.head = (w.head + waterfallRows - 1) % waterfallRows
	row := &w.history[w.head]
	for i := range waterfallBands {
		row[i] = clamp01(w.smooth.step(i, w.mags[i]/255))
	}

	cellW := fr.Width / waterfallBands
	cellH := fr.Height / waterfallRows
	fade := color.RGBA{R: 18, G: 22, B: 32, A: 255}
	for r := range waterfallRows {
		age := float64(r) / waterfallRows
		vals := &w.history[(w.head+r)%waterfallRows]
		for c, v := range vals {
			if v < 0.02 {
				continue
			}
			col := lerpColor(fr.Palette.At(v), fade, age*0.65)
			dc.SetColor(WithAlpha(col, (0.35+0.65*v)*fr.Intensity))
			dc.DrawRectangle(float64(c)*cellW, float64(r)*cellH, cellW+0.5, cellH+0.5)
			dc.Fill()
		}
	}
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	t = clamp01(t)
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
