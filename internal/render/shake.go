package render

import (
	"math"
	"math/rand"

	"github.com/charmbracelet/harmonica"
)

// shaker kicks the camera on loud bass and springs it back to rest.
type shaker struct {
	rng    *rand.Rand
	spring harmonica.Spring
	delta  float64

	x, y   float64
	vx, vy float64
}

func newShaker(seed int64) *shaker {
	return &shaker{rng: rand.New(rand.NewSource(seed))}
}

// update applies a kick of up to amount pixels and advances the spring by
// dt seconds. It returns the current offset.
func (s *shaker) update(amount, dt float64) (float64, float64) {
	if !(dt > 0) || dt > 0.25 {
		dt = harmonica.FPS(60)
	}
	if math.Abs(dt-s.delta) > 1e-4 {
		s.delta = dt
		s.spring = harmonica.NewSpring(dt, 18, 0.35)
	}
	if amount > 0 {
		angle := s.rng.Float64() * 2 * math.Pi
		s.vx += math.Cos(angle) * amount * 40
		s.vy += math.Sin(angle) * amount * 40
	}
	s.x, s.vx = s.spring.Update(s.x, s.vx, 0)
	s.y, s.vy = s.spring.Update(s.y, s.vy, 0)
	if math.IsNaN(s.x) || math.IsNaN(s.y) {
		s.reset()
	}
	return s.x, s.y
}

func (s *shaker) reset() {
	s.x, s.y, s.vx, s.vy = 0, 0, 0, 0
}

// shakeAmount is the kick size in pixels for a bass level, or 0 below the
// threshold.
func shakeAmount(bass, threshold, intensity, height float64) float64 {
	if bass <= threshold || threshold >= 255 {
		return 0
	}
	over := (bass - threshold) / (255 - threshold)
	return over * intensity * 12 * height / 720
}
