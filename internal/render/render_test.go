package render

import (
	"context"
	"image"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/fogleman/gg"

	"github.com/olivier-w/lyricviz/internal/keyframe"
	"github.com/olivier-w/lyricviz/internal/lyrics"
	"github.com/olivier-w/lyricviz/internal/settings"
	"github.com/olivier-w/lyricviz/internal/visualizer"
)

type countingStyle struct {
	name   string
	frames int
	last   visualizer.Frame
}

func (c *countingStyle) Name() string { return c.name }

func (c *countingStyle) Draw(dc *gg.Context, fr *visualizer.Frame) {
	c.frames++
	c.last = *fr
}

func smallConfig() settings.Visual {
	cfg := settings.Default()
	cfg.Width, cfg.Height = 160, 90
	cfg.ParticleCount = 20
	return cfg
}

func TestLookupFallsBackToParticles(t *testing.T) {
	st, id := Lookup("no-such-style")
	if id != DefaultStyle || st.Name() != DefaultStyle {
		t.Fatalf("Lookup fallback = %q / %q", id, st.Name())
	}
	for _, want := range []string{"particles", "spectrum", "waveform", "matrix", "rings", "lissajous", "waterfall"} {
		if _, id := Lookup(want); id != want {
			t.Errorf("Lookup(%q) resolved to %q", want, id)
		}
	}
}

func TestNextStyleCycles(t *testing.T) {
	ids := Styles()
	if len(ids) < 7 || ids[0] != DefaultStyle {
		t.Fatalf("unexpected style order %v", ids)
	}
	id := ids[0]
	for range ids {
		id = NextStyle(id)
	}
	if id != ids[0] {
		t.Fatalf("cycling through every style should wrap, ended at %q", id)
	}
	if NextStyle("bogus") != DefaultStyle {
		t.Fatal("unknown style should restart at the default")
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	a := NewSession(smallConfig(), nil, Meta{})
	b := NewSession(smallConfig(), nil, Meta{})
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids %q and %q", a.ID, b.ID)
	}
}

func TestFrameWithoutAudio(t *testing.T) {
	s := NewSession(smallConfig(), nil, Meta{Title: "Song", Artist: "Band"})
	now := time.Unix(0, 0)
	var img *image.RGBA
	for i := range 10 {
		img = s.Frame(Input{Time: float64(i) / 30, Now: now.Add(time.Duration(i) * time.Second / 30)})
	}
	if img.Bounds().Dx() != 160 || img.Bounds().Dy() != 90 {
		t.Fatalf("canvas is %v", img.Bounds())
	}
	if s.Features().IsBeat {
		t.Fatal("silence should not beat")
	}
	s.Frame(Input{Time: math.NaN(), Now: now.Add(time.Second)})
}

func TestFrameDrivesStyleWithRoutedKnobs(t *testing.T) {
	probe := &countingStyle{name: "probe-knobs"}
	Register(probe.name, func() visualizer.Style { return probe })

	cfg := smallConfig()
	cfg.Style = probe.name
	cfg.FrequencyMapping.Pulse = "treble"
	s := NewSession(cfg, nil, Meta{})

	bins := make([]uint8, 256)
	for i := 100; i < 255; i++ {
		bins[i] = 200
	}
	s.Frame(Input{Bins: bins, Time: 1, Now: time.Unix(1, 0)})
	if probe.frames != 1 {
		t.Fatalf("style drawn %d times", probe.frames)
	}
	if probe.last.Knobs.Pulse != 200 {
		t.Fatalf("pulse knob = %v, want treble level 200", probe.last.Knobs.Pulse)
	}
	if probe.last.Width != 160 || probe.last.Particles != 20 {
		t.Fatalf("frame = %+v", probe.last)
	}
}

func TestLineStyleOverride(t *testing.T) {
	base := &countingStyle{name: "probe-base"}
	over := &countingStyle{name: "probe-override"}
	Register(base.name, func() visualizer.Style { return base })
	Register(over.name, func() visualizer.Style { return over })

	cfg := smallConfig()
	cfg.Style = base.name
	lines := []lyrics.Line{{Text: "hello", Start: 1, End: 2, Style: over.name, Sentiment: "#00ff00"}}
	s := NewSession(cfg, lines, Meta{})

	s.Frame(Input{Time: 0.5, Now: time.Unix(0, 0)})
	s.Frame(Input{Time: 1.5, Now: time.Unix(1, 0)})
	s.Frame(Input{Time: 2.5, Now: time.Unix(2, 0)})
	if base.frames != 2 || over.frames != 1 {
		t.Fatalf("base drew %d, override drew %d", base.frames, over.frames)
	}
	if c := over.last.Palette.At(0.5); c.G < 200 {
		t.Fatalf("sentiment color not applied: %+v", c)
	}
	if base.last.Palette.Key() != visualizer.NewPalette(cfg.Palette, "").Key() {
		t.Fatal("palette should revert after the line ends")
	}
}

func TestLineStateAnimations(t *testing.T) {
	line := lyrics.Line{Text: "abcd", Start: 10, End: 14}
	cfg := smallConfig()
	cfg.TextRevealDuration = 1
	s := NewSession(cfg, nil, Meta{})

	tests := []struct {
		anim     string
		t        float64
		check    func(tr keyframe.Transform, text string) bool
		describe string
	}{
		{settings.AnimFade, 10, func(tr keyframe.Transform, _ string) bool { return tr.Opacity == 0 }, "fade starts invisible"},
		{settings.AnimFade, 12, func(tr keyframe.Transform, _ string) bool { return tr.Opacity == 1 }, "fade completes"},
		{settings.AnimSlide, 10, func(tr keyframe.Transform, _ string) bool { return tr.Y > 0 }, "slide starts below"},
		{settings.AnimPop, 11, func(tr keyframe.Transform, _ string) bool { return math.Abs(tr.Scale-1) < 1e-9 }, "pop lands at scale 1"},
		{settings.AnimTypewriter, 10.5, func(_ keyframe.Transform, text string) bool { return text == "ab" }, "typewriter reveals half"},
		{settings.AnimKeyframes, 10, func(tr keyframe.Transform, _ string) bool { return tr.Opacity == 0 }, "keyframes without data fade in"},
	}
	for _, tt := range tests {
		s.cfg.TextAnimation = tt.anim
		tr, text := s.lineState(line, tt.t)
		if !tt.check(tr, text) {
			t.Errorf("%s: got %+v %q", tt.describe, tr, text)
		}
	}

	s.cfg.TextAnimation = settings.AnimKeyframes
	line.Keyframes = []keyframe.Keyframe{
		{Time: 0, X: -50, Scale: 1, Opacity: 1},
		{Time: 1, X: 50, Scale: 1, Opacity: 1},
	}
	tr, _ := s.lineState(line, 12)
	if tr.X != 0 {
		t.Fatalf("keyframed x at mid-line = %v", tr.X)
	}
}

func TestFadingLineStillDrawnAfterGap(t *testing.T) {
	cfg := smallConfig()
	cfg.FadeDuration = 1
	lines := []lyrics.Line{{Text: "gone", Start: 0, End: 1}}
	s := NewSession(cfg, lines, Meta{})
	s.Frame(Input{Time: 0.5, Now: time.Unix(0, 0)})
	s.Frame(Input{Time: 1.2, Now: time.Unix(0, int64(500*time.Millisecond))})
	if idx, op := s.tracker.Fading(time.Unix(0, int64(500*time.Millisecond))); idx != 0 || op != 1 {
		t.Fatalf("fading = %d, %v", idx, op)
	}
}

func TestShakeAmount(t *testing.T) {
	if shakeAmount(150, 180, 1, 720) != 0 {
		t.Fatal("below threshold should not shake")
	}
	if got := shakeAmount(255, 180, 1, 720); math.Abs(got-12) > 1e-9 {
		t.Fatalf("full bass shake = %v", got)
	}
	if shakeAmount(255, 255, 1, 720) != 0 {
		t.Fatal("threshold 255 disables shake")
	}
}

func TestShakerSettles(t *testing.T) {
	sh := newShaker(1)
	x, y := sh.update(10, 1.0/60)
	if x == 0 && y == 0 {
		t.Fatal("kick should move the camera")
	}
	for range 600 {
		x, y = sh.update(0, 1.0/60)
	}
	if math.Abs(x) > 0.01 || math.Abs(y) > 0.01 {
		t.Fatalf("camera did not settle: %v,%v", x, y)
	}
}

func TestBlendModes(t *testing.T) {
	newImg := func(v uint8) *image.RGBA {
		img := image.NewRGBA(image.Rect(0, 0, 2, 1))
		for i := range img.Pix {
			img.Pix[i] = v
		}
		img.Pix[3], img.Pix[7] = 255, 255
		return img
	}
	tests := []struct {
		mode string
		want uint8
	}{
		{settings.BlendNormal, 255},
		{settings.BlendMultiply, 128},
		{settings.BlendScreen, 255},
		{settings.BlendOverlay, 255},
	}
	for _, tt := range tests {
		dst := newImg(128)
		blend(dst, newImg(255), tt.mode, 1, 0, 0)
		if got := dst.Pix[0]; got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.mode, got, tt.want)
		}
	}

	dst := newImg(0)
	blend(dst, newImg(255), settings.BlendNormal, 0.5, 1, 0)
	if dst.Pix[0] != 0 || dst.Pix[4] < 127 || dst.Pix[4] > 128 {
		t.Fatalf("offset/opacity blend gave %v", dst.Pix)
	}
}

func TestStillBackgroundIsComposited(t *testing.T) {
	cfg := smallConfig()
	cfg.Style = "probe-bg"
	Register("probe-bg", func() visualizer.Style { return &countingStyle{name: "probe-bg"} })
	cfg.CameraShake = false
	s := NewSession(cfg, nil, Meta{})

	red := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(red.Pix); i += 4 {
		red.Pix[i], red.Pix[i+3] = 255, 255
	}
	s.SetBackground(NewStill(red))
	img := s.Frame(Input{Time: 0, Now: time.Unix(0, 0)})
	c := img.RGBAAt(80, 45)
	if c.R < 130 || c.R < c.G || c.R < c.B {
		t.Fatalf("expected red-tinted center, got %+v", c)
	}
}

func TestLoadFace(t *testing.T) {
	for _, family := range []string{"", "mono", "sans", "unknown-family"} {
		if _, err := LoadFace(family, 24); err != nil {
			t.Errorf("LoadFace(%q): %v", family, err)
		}
	}
	if _, err := LoadFace("/does/not/exist.ttf", 24); err == nil {
		t.Fatal("expected error for a missing font file")
	}
}

func TestOpenBackground(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	png := filepath.Join(dir, "cover.png")
	dc := gg.NewContext(4, 4)
	dc.SetRGB(0, 0, 1)
	dc.Clear()
	if err := dc.SavePNG(png); err != nil {
		t.Fatal(err)
	}
	bg, closer, err := OpenBackground(ctx, png, 64, 36)
	if err != nil {
		t.Fatalf("OpenBackground(png): %v", err)
	}
	defer closer.Close()
	if img := bg.FrameAt(3); img == nil || img.Bounds().Dx() != 4 {
		t.Fatalf("unexpected still frame %v", img)
	}

	bg, closer, err = OpenBackground(ctx, "", 64, 36)
	if err != nil || bg != nil || closer == nil {
		t.Fatalf("empty path = %v, %v, %v", bg, closer, err)
	}
	if _, _, err := OpenBackground(ctx, filepath.Join(dir, "notes.txt"), 64, 36); err == nil {
		t.Fatal("expected error for unsupported background")
	}
	if _, _, err := OpenBackground(ctx, filepath.Join(dir, "missing.png"), 64, 36); err == nil {
		t.Fatal("expected error for missing image")
	}
}

func TestColorKnobTintsBackdrop(t *testing.T) {
	Register("blank-color", func() visualizer.Style { return &countingStyle{name: "blank-color"} })
	cfg := smallConfig()
	cfg.Style = "blank-color"
	cfg.CameraShake = false
	cfg.FrequencyMapping.Color = "treble"

	quiet := make([]uint8, 256)
	bright := make([]uint8, 256)
	for i := 100; i < 255; i++ {
		bright[i] = 200
	}

	top := func(bins []uint8) [3]uint8 {
		s := NewSession(cfg, nil, Meta{})
		img := s.Frame(Input{Bins: bins, Time: 1, Now: time.Unix(1, 0)})
		c := img.RGBAAt(80, 2)
		return [3]uint8{c.R, c.G, c.B}
	}
	if a, b := top(quiet), top(bright); a == b {
		t.Fatalf("color knob did not change the backdrop: %v", a)
	}
}
