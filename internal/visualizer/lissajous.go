package visualizer

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/fogleman/gg"
)

const lissajousSteps = 256

// Lissajous draws a stereo phase-space scope: left drives x, right drives
// y, and a spring-smoothed cursor leaves a fading trail.
type Lissajous struct {
	trail  Trail
	spring harmonica.Spring
	cx, cy float64
	vx, vy float64
}

func NewLissajous() *Lissajous {
	l := &Lissajous{
		spring: harmonica.NewSpring(harmonica.FPS(240), 18.0, 0.7),
		cx:     0.5,
		cy:     0.5,
	}
	l.trail.SetCap(lissajousSteps * 2)
	return l
}

func (l *Lissajous) Name() string { return "lissajous" }

func (l *Lissajous) Draw(dc *gg.Context, fr *Frame) {
	frames := len(fr.Samples) / 2
	if frames > 0 {
		stride := max(1, frames/lissajousSteps)
		for i := 0; i < frames; i += stride {
			left := float64(fr.Samples[i*2]) / 32768
			right := float64(fr.Samples[i*2+1]) / 32768
			l.cx, l.vx = l.spring.Update(l.cx, l.vx, (left+1)*0.5)
			l.cy, l.vy = l.spring.Update(l.cy, l.vy, (right+1)*0.5)
			l.trail.Push(Point{X: finite(l.cx), Y: finite(l.cy)})
		}
	}
	n := l.trail.Len()
	if n < 2 {
		return
	}

	size := math.Min(fr.Width, fr.Height) * 0.8 * (0.9 + 0.2*fr.Beat.Intensity*fr.Intensity)
	ox := (fr.Width - size) / 2
	oy := (fr.Height - size) / 2
	at := func(p Point) (float64, float64) {
		return ox + clamp01(p.X)*size, oy + (1-clamp01(p.Y))*size
	}

	dc.SetLineCapRound()
	prevX, prevY := at(l.trail.At(0))
	for i := 1; i < n; i++ {
		x, y := at(l.trail.At(i))
		age := 1 - float64(i)/float64(n-1)
		dc.SetColor(WithAlpha(fr.Palette.At(0.1+0.75*float64(i)/float64(n)), 0.15+0.85*(1-age)))
		dc.SetLineWidth(1 + 2*(1-age))
		dc.DrawLine(prevX, prevY, x, y)
		dc.Stroke()
		prevX, prevY = x, y
	}
	dc.DrawCircle(prevX, prevY, 3+4*fr.Beat.Intensity)
	dc.SetRGB(1, 0.99, 0.82)
	dc.Fill()
}
