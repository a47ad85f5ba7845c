package visualizer

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/fogleman/gg"
)

const (
	// DefaultParticles is the pool size used when none is configured.
	DefaultParticles = 150

	maxTrail = 512
)

// Particle is one pooled particle. It is never destroyed; leaving the canvas
// wraps it to the opposite edge.
type Particle struct {
	X, Y           float64
	BaseSize, Size float64
	SpeedX, SpeedY float64
	Color          color.RGBA
	Trail          Trail

	hue float64 // palette position
}

// Input is everything the physics step reads for one frame.
type Input struct {
	Motion float64 // 0..255, scales velocity
	Pulse  float64 // 0..255, scales size

	Width, Height float64

	Speed     float64
	Intensity float64

	// Per-axis velocity factors.
	SpeedX, SpeedY float64

	Trails bool
}

// Renderer is the rasterize step for particles, separate from the physics
// so alternative backends can share ParticleSystem.
type Renderer interface {
	Trail(t *Trail, head Point, width float64, c color.RGBA)
	Circle(x, y, r float64, c color.RGBA)
}

// ParticleSystem owns a fixed pool of particles.
type ParticleSystem struct {
	particles []Particle
	width     float64
	height    float64
	colorKey  string
	recolors  int
}

// NewParticleSystem spreads n particles at random over a w×h canvas.
func NewParticleSystem(n int, w, h float64, rng *rand.Rand) *ParticleSystem {
	if n < 0 {
		n = 0
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	w, h = positive(w, 1), positive(h, 1)
	scale := math.Max(0.25, h/720)

	ps := &ParticleSystem{
		particles: make([]Particle, n),
		width:     w,
		height:    h,
	}
	for i := range ps.particles {
		p := &ps.particles[i]
		p.X = rng.Float64() * w
		p.Y = rng.Float64() * h
		p.BaseSize = (1 + rng.Float64()*3) * scale
		p.Size = p.BaseSize
		p.SpeedX = (rng.Float64()*2 - 1) * 1.5 * scale
		p.SpeedY = (rng.Float64()*2 - 1) * 1.5 * scale
		p.hue = rng.Float64()
		p.Color = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return ps
}

// Particles exposes the pool for drawing and inspection.
func (ps *ParticleSystem) Particles() []Particle { return ps.particles }

// TrailCapacity is the trail length for the given intensity and speed.
func TrailCapacity(intensity, speed float64) int {
	v := 5 + 15*intensity*speed
	if math.IsNaN(v) || v < 1 {
		return 5
	}
	if v > maxTrail {
		return maxTrail
	}
	return int(math.Floor(v))
}

// SetColors recolors the pool from p. It only does work when the palette or
// sentiment override changed, and reports whether it did.
func (ps *ParticleSystem) SetColors(p *Palette) bool {
	key := p.Key()
	if key == ps.colorKey && ps.recolors > 0 {
		return false
	}
	for i := range ps.particles {
		ps.particles[i].Color = p.At(ps.particles[i].hue)
	}
	ps.colorKey = key
	ps.recolors++
	return true
}

// Update advances every particle by one frame.
func (ps *ParticleSystem) Update(in Input) {
	w, h := in.Width, in.Height
	if !(w > 0) || !(h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return
	}
	if w != ps.width || h != ps.height {
		ps.rescale(w, h)
	}

	motionBoost := 1 + finite(in.Motion)/255
	pulse := finite(in.Pulse) / 255
	speed := finite(in.Speed)
	intensity := finite(in.Intensity)
	fx := finite(in.SpeedX) * speed * motionBoost
	fy := finite(in.SpeedY) * speed * motionBoost
	capacity := TrailCapacity(intensity, speed)

	for i := range ps.particles {
		p := &ps.particles[i]

		if in.Trails {
			p.Trail.SetCap(capacity)
			p.Trail.Push(Point{X: p.X, Y: p.Y})
		} else {
			p.Trail.Clear()
		}

		p.X += p.SpeedX * fx
		p.Y += p.SpeedY * fy

		var wrapped bool
		p.X, wrapped = wrap(p.X, w)
		if y, wy := wrap(p.Y, h); wy {
			p.Y, wrapped = y, true
		}
		// A wrapped trail would streak across the whole canvas.
		if wrapped {
			p.Trail.Clear()
		}

		p.Size = p.BaseSize * (1 + pulse*2*intensity)
	}
}

// Draw emits trails (oldest to newest, then to the head) and the particle
// bodies to r.
func (ps *ParticleSystem) Draw(r Renderer, trails bool) {
	for i := range ps.particles {
		p := &ps.particles[i]
		if trails && p.Trail.Len() > 0 {
			r.Trail(&p.Trail, Point{X: p.X, Y: p.Y}, p.Size/2, p.Color)
		}
		r.Circle(p.X, p.Y, p.Size, p.Color)
	}
}

func (ps *ParticleSystem) rescale(w, h float64) {
	sx, sy := w/ps.width, h/ps.height
	for i := range ps.particles {
		p := &ps.particles[i]
		p.X *= sx
		p.Y *= sy
		p.Trail.Clear()
	}
	ps.width, ps.height = w, h
}

func wrap(v, size float64) (float64, bool) {
	if v >= 0 && v <= size {
		return v, false
	}
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	return v, true
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func positive(v, fallback float64) float64 {
	if !(v > 0) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// GGRenderer rasterizes particles on the CPU with gg.
type GGRenderer struct {
	DC *gg.Context
}

func (g GGRenderer) Trail(t *Trail, head Point, width float64, c color.RGBA) {
	dc := g.DC
	first := t.At(0)
	dc.MoveTo(first.X, first.Y)
	for i := 1; i < t.Len(); i++ {
		p := t.At(i)
		dc.LineTo(p.X, p.Y)
	}
	dc.LineTo(head.X, head.Y)
	dc.SetLineWidth(math.Max(0.5, width))
	dc.SetColor(WithAlpha(c, 0.6))
	dc.Stroke()
}

func (g GGRenderer) Circle(x, y, r float64, c color.RGBA) {
	g.DC.DrawCircle(x, y, math.Max(0.5, r))
	g.DC.SetColor(c)
	g.DC.Fill()
}

// ParticleField is the particle style: a drifting field that swells with
// the pulse band and speeds up with the motion band.
type ParticleField struct {
	ps   *ParticleSystem
	rng  *rand.Rand
	size int
}

// NewParticleField returns an empty particle style; the pool is built on
// the first frame once the canvas size is known.
func NewParticleField() *ParticleField {
	return &ParticleField{rng: rand.New(rand.NewSource(rand.Int63()))}
}

func (f *ParticleField) Name() string { return "particles" }

// System returns the underlying pool, nil before the first frame.
func (f *ParticleField) System() *ParticleSystem { return f.ps }

func (f *ParticleField) Draw(dc *gg.Context, fr *Frame) {
	n := fr.Particles
	if n <= 0 {
		n = DefaultParticles
	}
	if f.ps == nil || f.size != n {
		f.ps = NewParticleSystem(n, fr.Width, fr.Height, f.rng)
		f.size = n
	}
	f.ps.SetColors(fr.Palette)

	s := step(fr.Dt)
	f.ps.Update(Input{
		Motion:    fr.Knobs.Motion,
		Pulse:     fr.Knobs.Pulse,
		Width:     fr.Width,
		Height:    fr.Height,
		Speed:     fr.Speed,
		Intensity: fr.Intensity,
		SpeedX:    s,
		SpeedY:    s,
		Trails:    fr.Trails,
	})
	f.ps.Draw(GGRenderer{DC: dc}, fr.Trails)
}
