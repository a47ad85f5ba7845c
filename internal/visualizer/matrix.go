package visualizer

import (
	"math"
	"math/rand"

	"github.com/fogleman/gg"
)

const matrixTrailLen = 12

// Matrix draws falling glyph rain. Each column follows a slice of the
// spectrum: louder bins start drops more often and make them fall faster.
type Matrix struct {
	columns []matrixCol
	rng     *rand.Rand
}

type matrixCol struct {
	active bool
	headY  float64 // fractional row position of the falling head
	speed  float64 // rows per 60fps frame
	chars  [matrixTrailLen]byte
}

// NewMatrix creates a new matrix style.
func NewMatrix() *Matrix {
	return &Matrix{rng: rand.New(rand.NewSource(42))}
}

func (m *Matrix) Name() string { return "matrix" }

func (m *Matrix) randomChar() byte {
	n := m.rng.Intn(36)
	if n < 10 {
		return byte('0' + n)
	}
	return byte('A' + n - 10)
}

func (m *Matrix) Draw(dc *gg.Context, fr *Frame) {
	rowH := math.Max(8, dc.FontHeight()*1.1)
	colW := rowH * 0.8
	cols := int(fr.Width / colW)
	rows := int(fr.Height/rowH) + 1
	if cols < 1 {
		return
	}

	if len(m.columns) != cols {
		m.columns = make([]matrixCol, cols)
		for i := range m.columns {
			for j := range m.columns[i].chars {
				m.columns[i].chars[j] = m.randomChar()
			}
		}
	}

	s := step(fr.Dt)
	boost := 1 + fr.Knobs.Motion/255
	n := len(fr.Bins)
	for c := range m.columns {
		var mag float64
		if n > 0 {
			mag = float64(fr.Bins[c*n/cols]) / 255
		}
		col := &m.columns[c]
		if !col.active {
			chance := mag * 0.15 * s
			if fr.Beat.IsBeat {
				chance += 0.1
			}
			if m.rng.Float64() < chance {
				col.active = true
				col.headY = 0
				col.speed = 0.3 + mag*1.2
				for j := range col.chars {
					col.chars[j] = m.randomChar()
				}
			}
			continue
		}
		col.headY += col.speed * s * boost * math.Max(0.1, fr.Speed)
		col.chars[0] = m.randomChar()
		if int(col.headY)-matrixTrailLen > rows {
			col.active = false
		}
	}

	var glyph [1]byte
	for c := range m.columns {
		col := &m.columns[c]
		if !col.active {
			continue
		}
		head := int(col.headY)
		x := float64(c)*colW + colW/2
		for t := range matrixTrailLen {
			row := head - t
			if row < 0 || row >= rows {
				continue
			}
			fade := 1 - float64(t)/matrixTrailLen
			clr := fr.Palette.At(0.3 + 0.4*float64(c)/float64(cols))
			if t == 0 {
				clr = fr.Palette.At(0.95)
				clr.R, clr.G, clr.B = lighten(clr.R), lighten(clr.G), lighten(clr.B)
			}
			glyph[0] = col.chars[t]
			dc.SetColor(WithAlpha(clr, fade))
			dc.DrawStringAnchored(string(glyph[:]), x, float64(row)*rowH, 0.5, 0.5)
		}
	}
}

func lighten(v uint8) uint8 {
	return uint8(255 - (255-int(v))/3)
}
