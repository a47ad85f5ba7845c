package visualizer

import (
	"math"

	"github.com/fogleman/gg"
)

const spectrumBands = 48

// Spectrum draws mirrored log-spaced frequency bars rising from the bottom
// edge, smoothed with springs.
type Spectrum struct {
	bars springField
	mags [spectrumBands]float64
}

// NewSpectrum creates a new spectrum style.
func NewSpectrum() *Spectrum {
	s := &Spectrum{bars: newSpringField(9, 0.7)}
	s.bars.resize(spectrumBands)
	return s
}

func (s *Spectrum) Name() string { return "spectrum" }

func (s *Spectrum) Draw(dc *gg.Context, fr *Frame) {
	groupBins(fr.Bins, s.mags[:])
	s.bars.tune(fr.Dt)

	gap := 2.0
	barW := (fr.Width - gap*float64(spectrumBands+1)) / spectrumBands
	if barW < 1 {
		barW, gap = fr.Width/spectrumBands, 0
	}
	maxH := fr.Height * 0.45 * math.Max(0.25, fr.Intensity)
	flash := 0.0
	if fr.Beat.IsBeat {
		flash = fr.Beat.Intensity
	}

	for i := range spectrumBands {
		level := clamp01(s.bars.step(i, s.mags[i]/255))
		h := level * maxH
		if h < 1 {
			continue
		}
		x := gap + float64(i)*(barW+gap)
		c := fr.Palette.At(float64(i)/spectrumBands + fr.Knobs.Color/1024)

		dc.DrawRectangle(x, fr.Height-h, barW, h)
		dc.SetColor(WithAlpha(c, 0.75+0.25*flash))
		dc.Fill()

		// Faint reflection from the top edge.
		dc.DrawRectangle(x, 0, barW, h*0.35)
		dc.SetColor(WithAlpha(c, 0.2))
		dc.Fill()
	}
}

// groupBins averages bins into len(out) logarithmically spaced bands.
func groupBins(bins []uint8, out []float64) {
	n := len(bins)
	if n == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}
	bands := len(out)
	for b := range bands {
		lo := int(math.Pow(float64(n), float64(b)/float64(bands)))
		hi := int(math.Pow(float64(n), float64(b+1)/float64(bands)))
		if lo < 0 {
			lo = 0
		}
		if hi <= lo {
			hi = lo + 1
		}
		if hi > n {
			hi = n
		}
		if lo >= hi {
			out[b] = 0
			continue
		}
		sum := 0
		for _, v := range bins[lo:hi] {
			sum += int(v)
		}
		out[b] = float64(sum) / float64(hi-lo)
	}
}
