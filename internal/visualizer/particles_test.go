package visualizer

import (
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/fogleman/gg"
)

func newTestSystem(n int) *ParticleSystem {
	return NewParticleSystem(n, 1280, 720, rand.New(rand.NewSource(3)))
}

func baseInput() Input {
	return Input{Width: 1280, Height: 720, Speed: 1, Intensity: 1, SpeedX: 1, SpeedY: 1, Trails: true}
}

func TestTrailRingOrder(t *testing.T) {
	var tr Trail
	tr.SetCap(4)
	for i := range 10 {
		tr.Push(Point{X: float64(i)})
	}
	if tr.Len() != 4 || tr.Cap() != 4 {
		t.Fatalf("len=%d cap=%d", tr.Len(), tr.Cap())
	}
	for i := range 4 {
		if got := tr.At(i).X; got != float64(6+i) {
			t.Fatalf("At(%d) = %v, want %v", i, got, 6+i)
		}
	}
	tr.SetCap(4)
	if tr.Len() != 4 {
		t.Fatal("same capacity should keep history")
	}
	tr.SetCap(2)
	if tr.Len() != 0 || tr.Cap() != 2 {
		t.Fatalf("capacity change should reset, len=%d cap=%d", tr.Len(), tr.Cap())
	}
	tr.Push(Point{X: 1})
	tr.Clear()
	if tr.Len() != 0 {
		t.Fatal("clear left points behind")
	}
}

func TestTrailZeroCapacityIgnoresPush(t *testing.T) {
	var tr Trail
	tr.Push(Point{X: 1})
	if tr.Len() != 0 {
		t.Fatal("push into an unsized trail should be dropped")
	}
}

func TestTrailCapacity(t *testing.T) {
	tests := []struct {
		intensity, speed float64
		want             int
	}{
		{1, 1, 20},
		{0, 1, 5},
		{0.5, 1.5, 16},
		{math.NaN(), 1, 5},
		{1000, 1000, maxTrail},
	}
	for _, tt := range tests {
		if got := TrailCapacity(tt.intensity, tt.speed); got != tt.want {
			t.Errorf("TrailCapacity(%v,%v) = %d, want %d", tt.intensity, tt.speed, got, tt.want)
		}
	}
}

func TestParticleTrailHoldsMostRecentPositions(t *testing.T) {
	ps := newTestSystem(1)
	p := &ps.particles[0]
	p.X, p.Y = 640, 360
	p.SpeedX, p.SpeedY = 1, 0.5

	in := baseInput()
	capacity := TrailCapacity(in.Intensity, in.Speed)
	var seen []Point
	for range capacity + 15 {
		seen = append(seen, Point{X: p.X, Y: p.Y})
		ps.Update(in)
	}
	if p.Trail.Len() != capacity {
		t.Fatalf("trail has %d points, want %d", p.Trail.Len(), capacity)
	}
	want := seen[len(seen)-capacity:]
	for i := range capacity {
		if p.Trail.At(i) != want[i] {
			t.Fatalf("trail[%d] = %+v, want %+v", i, p.Trail.At(i), want[i])
		}
	}
}

func TestUpdateDoesNotAllocateOnceTrailsAreFull(t *testing.T) {
	ps := newTestSystem(DefaultParticles)
	in := baseInput()
	for range 40 {
		ps.Update(in)
	}
	allocs := testing.AllocsPerRun(200, func() {
		ps.Update(in)
	})
	if allocs != 0 {
		t.Fatalf("Update allocated %v times per run", allocs)
	}
}

func TestUpdateWrapsAroundEdges(t *testing.T) {
	ps := newTestSystem(1)
	p := &ps.particles[0]
	p.X, p.Y = 1279, 1
	p.SpeedX, p.SpeedY = 5, -5
	for range 4 {
		ps.Update(baseInput())
	}
	if p.X < 0 || p.X > 1280 || p.Y < 0 || p.Y > 720 {
		t.Fatalf("particle escaped the canvas: %v,%v", p.X, p.Y)
	}
	if p.X > 100 || p.Y < 600 {
		t.Fatalf("expected wrap to the opposite edges, got %v,%v", p.X, p.Y)
	}
	if p.Trail.Len() > 3 {
		t.Fatalf("trail should restart after wrapping, has %d points", p.Trail.Len())
	}
}

func TestUpdateSizeAndMotion(t *testing.T) {
	ps := newTestSystem(1)
	p := &ps.particles[0]
	p.X, p.Y = 100, 100
	p.SpeedX, p.SpeedY = 2, 0

	in := baseInput()
	in.Pulse = 255
	in.Motion = 255
	in.Intensity = 0.5
	ps.Update(in)

	if math.Abs(p.Size-p.BaseSize*2) > 1e-9 {
		t.Fatalf("size = %v, want %v", p.Size, p.BaseSize*2)
	}
	// motionBoost 2 doubles the per-frame step.
	if math.Abs(p.X-104) > 1e-9 {
		t.Fatalf("x = %v, want 104", p.X)
	}
}

func TestTrailsDisabledClearsHistory(t *testing.T) {
	ps := newTestSystem(4)
	in := baseInput()
	for range 5 {
		ps.Update(in)
	}
	in.Trails = false
	ps.Update(in)
	for i, p := range ps.Particles() {
		if p.Trail.Len() != 0 {
			t.Fatalf("particle %d kept %d trail points", i, p.Trail.Len())
		}
	}
}

func TestUpdateIgnoresDegenerateCanvas(t *testing.T) {
	ps := newTestSystem(2)
	before := ps.particles[0].X
	in := baseInput()
	in.Width = math.NaN()
	ps.Update(in)
	in.Width, in.Height = 0, 0
	ps.Update(in)
	if ps.particles[0].X != before {
		t.Fatal("degenerate canvas should leave particles untouched")
	}
	in = baseInput()
	in.Motion, in.Pulse, in.Speed = math.NaN(), math.Inf(1), math.NaN()
	ps.Update(in)
	if math.IsNaN(ps.particles[0].X) || math.IsNaN(ps.particles[0].Size) {
		t.Fatal("NaN leaked into particle state")
	}
}

func TestSetColorsOnlyOnChange(t *testing.T) {
	ps := newTestSystem(8)
	neon := NewPalette("neon", "")
	if !ps.SetColors(neon) {
		t.Fatal("first SetColors should recolor")
	}
	if ps.SetColors(NewPalette("neon", "")) {
		t.Fatal("same palette should not recolor")
	}
	if !ps.SetColors(NewPalette("neon", "#ff0000")) {
		t.Fatal("sentiment change should recolor")
	}
	if !ps.SetColors(NewPalette("ocean", "#ff0000")) {
		t.Fatal("palette change should recolor")
	}
}

type recorder struct {
	trails  int
	circles int
	points  int
}

func (r *recorder) Trail(t *Trail, head Point, width float64, c color.RGBA) {
	r.trails++
	r.points += t.Len()
}

func (r *recorder) Circle(x, y, radius float64, c color.RGBA) {
	r.circles++
}

func TestDrawEmitsTrailsAndBodies(t *testing.T) {
	ps := newTestSystem(10)
	in := baseInput()
	for range 3 {
		ps.Update(in)
	}
	var rec recorder
	ps.Draw(&rec, true)
	if rec.circles != 10 {
		t.Fatalf("expected 10 circles, got %d", rec.circles)
	}
	if rec.trails == 0 || rec.points == 0 {
		t.Fatal("expected trails to be drawn")
	}

	rec = recorder{}
	ps.Draw(&rec, false)
	if rec.trails != 0 || rec.circles != 10 {
		t.Fatalf("trails off: %+v", rec)
	}
}

func TestStylesDrawWithoutInput(t *testing.T) {
	dc := gg.NewContext(64, 48)
	for _, ctor := range Builtin {
		s := ctor()
		fr := &Frame{Width: 64, Height: 48, Dt: 1.0 / 30, Palette: NewPalette("fire", ""), Speed: 1, Intensity: 1}
		for range 3 {
			s.Draw(dc, fr)
		}
		fr.Bins = make([]uint8, 256)
		for i := range fr.Bins {
			fr.Bins[i] = uint8(i)
		}
		fr.Samples = make([]int16, 2048)
		for i := range fr.Samples {
			fr.Samples[i] = int16((i % 200) * 100)
		}
		fr.Knobs.Motion, fr.Knobs.Pulse = 200, 200
		fr.Beat.IsBeat, fr.Beat.Intensity = true, 1
		for range 3 {
			s.Draw(dc, fr)
		}
	}
}
