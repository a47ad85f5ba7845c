package visualizer

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// springField smooths a row of values (bar heights, trace samples) with one
// spring per slot. The spring is re-tuned when the frame delta drifts, so
// export at a fixed rate and live preview settle the same way.
type springField struct {
	frequency float64
	damping   float64
	delta     float64
	spring    harmonica.Spring

	pos []float64
	vel []float64
}

func newSpringField(frequency, damping float64) springField {
	s := springField{frequency: frequency, damping: damping}
	s.tune(0)
	return s
}

func (s *springField) tune(dt float64) {
	if !(dt > 0) || dt > 0.25 {
		dt = harmonica.FPS(60)
	}
	if math.Abs(dt-s.delta) < 1e-4 {
		return
	}
	s.delta = dt
	s.spring = harmonica.NewSpring(dt, s.frequency, s.damping)
}

func (s *springField) resize(n int) {
	if len(s.pos) == n {
		return
	}
	s.pos = make([]float64, n)
	s.vel = make([]float64, n)
}

func (s *springField) step(i int, target float64) float64 {
	p, v := s.spring.Update(s.pos[i], s.vel[i], target)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		p, v = target, 0
	}
	s.pos[i] = p
	s.vel[i] = v
	return p
}
