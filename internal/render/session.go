// Package render composes one visualization frame from audio bins, lyric
// timing and visual settings.
package render

import (
	"image"
	"math"
	"time"

	"github.com/fogleman/gg"
	"github.com/google/uuid"

	"github.com/olivier-w/lyricviz/internal/analysis"
	"github.com/olivier-w/lyricviz/internal/beat"
	"github.com/olivier-w/lyricviz/internal/lyrics"
	"github.com/olivier-w/lyricviz/internal/settings"
	"github.com/olivier-w/lyricviz/internal/visualizer"
)

// Meta describes the track for the title card.
type Meta struct {
	Title  string
	Artist string
}

// Input is one frame's worth of external state.
type Input struct {
	Bins    []uint8 // frequency magnitudes 0..255; nil when audio isn't ready
	Samples []int16 // recent interleaved stereo PCM; may be nil
	Time    float64 // playback position in seconds
	Now     time.Time
}

// Session owns every piece of per-track render state. It is bound to a
// single track; a new track gets a new Session. Frame must only be called
// from one goroutine.
type Session struct {
	ID string

	cfg   settings.Visual
	lines []lyrics.Line
	meta  Meta

	detector *beat.Detector
	tracker  *lyrics.Tracker
	shake    *shaker
	back     backdrop

	styleID string
	styles  map[string]visualizer.Style

	dc      *gg.Context
	fonts   fonts
	palette *visualizer.Palette
	palKey  string

	features beat.Features
	levels   analysis.Levels
	lastNow  time.Time
	frame    visualizer.Frame
}

// NewSession builds a session rendering at cfg.Width×cfg.Height.
func NewSession(cfg settings.Visual, lines []lyrics.Line, meta Meta) *Session {
	cfg.Sanitize()
	s := &Session{
		ID:       uuid.NewString(),
		cfg:      cfg,
		lines:    lines,
		meta:     meta,
		detector: beat.NewDetector(),
		tracker:  lyrics.NewTracker(cfg.FadeOut()),
		shake:    newShaker(time.Now().UnixNano()),
		styles:   map[string]visualizer.Style{},
	}
	s.SetStyle(cfg.Style)
	s.Resize(cfg.Width, cfg.Height)
	s.setPalette(cfg.Palette, "")
	return s
}

// Resize changes the canvas size. Style state survives; fonts are reloaded
// at the new scale.
func (s *Session) Resize(w, h int) {
	if w < 2 || h < 2 {
		return
	}
	if s.dc != nil && s.dc.Width() == w && s.dc.Height() == h {
		return
	}
	s.dc = gg.NewContext(w, h)
	s.fonts = loadFonts(s.cfg.FontFamily, s.cfg.FontSize, float64(h))
}

// Size returns the canvas size in pixels.
func (s *Session) Size() (int, int) { return s.dc.Width(), s.dc.Height() }

// SetStyle switches the session's default style. Unknown ids fall back to
// the default style.
func (s *Session) SetStyle(id string) {
	s.styleID = s.style(id).Name()
}

// StyleID returns the current default style id.
func (s *Session) StyleID() string { return s.styleID }

// SetBackground installs a background asset; nil removes it.
func (s *Session) SetBackground(bg Background) { s.back.asset = bg }

// Features returns the beat features of the last rendered frame.
func (s *Session) Features() beat.Features { return s.features }

// Levels returns the band levels of the last rendered frame.
func (s *Session) Levels() analysis.Levels { return s.levels }

// Seek tells the detector about a transport seek so it doesn't have to
// infer it from the time jump.
func (s *Session) Seek(t float64) {
	s.detector.Seek(t)
	s.shake.reset()
}

// Image returns the canvas. It is overwritten by every Frame call.
func (s *Session) Image() *image.RGBA {
	return s.dc.Image().(*image.RGBA)
}

// Frame renders one frame and returns the canvas. It never fails: missing
// or malformed input degrades to a quieter frame.
func (s *Session) Frame(in Input) *image.RGBA {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	dt := 1 / float64(s.cfg.FPS)
	if !s.lastNow.IsZero() {
		if d := now.Sub(s.lastNow).Seconds(); d > 0 && d < 0.25 {
			dt = d
		}
	}
	s.lastNow = now

	t := in.Time
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		t = 0
	}

	s.features = s.detector.Analyze(in.Bins, t)
	s.levels = analysis.Measure(in.Bins)
	knobs := s.cfg.FrequencyMapping.Resolve(s.levels, s.features)

	active := lyrics.Active(s.lines, t)
	s.tracker.Update(active, now)

	styleID := s.styleID
	if active >= 0 {
		line := s.lines[active]
		s.setPalette(firstNonEmpty(line.Palette, s.cfg.Palette), line.Sentiment)
		if line.Style != "" {
			styleID = line.Style
		}
	} else {
		s.setPalette(s.cfg.Palette, "")
	}

	var ox, oy float64
	if s.cfg.CameraShake {
		amount := shakeAmount(s.levels.Bass, s.cfg.ShakeThreshold, s.cfg.CameraShakeIntensity, float64(s.dc.Height()))
		ox, oy = s.shake.update(amount, dt)
	}

	dc := s.dc
	dc.Identity()
	s.back.draw(dc, s, s.levels.Bass, knobs.Color, t, int(math.Round(ox)), int(math.Round(oy)))

	dc.Push()
	dc.Translate(ox, oy)

	fr := &s.frame
	*fr = visualizer.Frame{
		Width:     float64(dc.Width()),
		Height:    float64(dc.Height()),
		Time:      t,
		Dt:        dt,
		Bins:      in.Bins,
		Samples:   in.Samples,
		Beat:      s.features,
		Levels:    s.levels,
		Knobs:     knobs,
		Palette:   s.palette,
		Speed:     s.cfg.ParticleSpeed,
		Intensity: s.cfg.Intensity,
		Trails:    s.cfg.TrailsEnabled,
		Particles: s.cfg.ParticleCount,
	}
	dc.SetFontFace(s.fonts.small)
	s.style(styleID).Draw(dc, fr)

	if idx, op := s.tracker.Fading(now); idx >= 0 && idx < len(s.lines) {
		s.drawLine(dc, s.lines[idx], t, op)
	}
	if active >= 0 {
		s.drawLine(dc, s.lines[active], t, 1)
	}
	s.drawTitle(dc, t)

	dc.Pop()
	return s.Image()
}

// style returns the cached instance for id, creating it on first use.
func (s *Session) style(id string) visualizer.Style {
	key := normalizeID(id)
	if st, ok := s.styles[key]; ok {
		return st
	}
	st, resolved := Lookup(key)
	if cached, ok := s.styles[resolved]; ok {
		st = cached
	}
	s.styles[resolved] = st
	s.styles[key] = st
	return st
}

func (s *Session) setPalette(name, sentiment string) {
	key := name + "\x00" + sentiment
	if s.palette != nil && key == s.palKey {
		return
	}
	s.palette = visualizer.NewPalette(name, sentiment)
	s.palKey = key
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
