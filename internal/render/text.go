package render

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/olivier-w/lyricviz/internal/keyframe"
	"github.com/olivier-w/lyricviz/internal/lyrics"
	"github.com/olivier-w/lyricviz/internal/settings"
	"github.com/olivier-w/lyricviz/internal/visualizer"
)

var (
	textColor   = color.RGBA{R: 245, G: 245, B: 245, A: 255}
	shadowColor = color.RGBA{A: 150}
)

// lineState returns the transform and the visible text of line at t for the
// configured text animation.
func (s *Session) lineState(line lyrics.Line, t float64) (keyframe.Transform, string) {
	tr := keyframe.Identity()
	p := 1.0
	if reveal := s.cfg.TextRevealDuration; reveal > 0 {
		p = keyframe.Progress(line.Start, line.Start+reveal, t)
	}
	text := line.Text

	switch s.cfg.TextAnimation {
	case settings.AnimKeyframes:
		if len(line.Keyframes) > 0 {
			tr = keyframe.Interpolate(line.Keyframes, line.Start, line.End, t)
		} else {
			tr.Opacity = keyframe.Ease(keyframe.EaseOut, p)
		}
	case settings.AnimFade:
		tr.Opacity = keyframe.Ease(keyframe.EaseOut, p)
	case settings.AnimSlide:
		e := keyframe.Ease(keyframe.EaseOut, p)
		tr.Y = (1 - e) * s.cfg.FontSize * 1.5
		tr.Opacity = e
	case settings.AnimPop:
		tr.Scale = 0.6 + 0.4*keyframe.Ease(keyframe.Bounce, p)
		tr.Opacity = keyframe.Ease(keyframe.EaseOut, math.Min(1, p*2))
	case settings.AnimTypewriter:
		runes := []rune(text)
		n := int(math.Ceil(p * float64(len(runes))))
		text = string(runes[:n])
	}
	return tr, text
}

// drawLine draws one lyric line with its animation, multiplied by alpha.
func (s *Session) drawLine(dc *gg.Context, line lyrics.Line, t, alpha float64) {
	tr, text := s.lineState(line, t)
	op := clamp01(tr.Opacity * alpha)
	if op <= 0 || text == "" {
		return
	}

	w, h := float64(dc.Width()), float64(dc.Height())
	unit := h / 720
	dc.SetFontFace(s.fonts.lyric)
	tw, _ := dc.MeasureString(text)
	fit := 1.0
	if tw > w*0.9 {
		fit = w * 0.9 / tw
	}
	scale := tr.Scale * fit * (1 + 0.06*s.features.Intensity*s.cfg.Intensity)
	if !(scale > 0) {
		return
	}

	dc.Push()
	defer dc.Pop()
	dc.Translate(w/2+tr.X*unit, h*0.72+tr.Y*unit)
	dc.Rotate(gg.Radians(tr.Rotation))
	dc.Scale(scale, scale)

	dc.SetColor(visualizer.WithAlpha(shadowColor, op))
	dc.DrawStringAnchored(text, 2*unit, 2*unit, 0.5, 0.5)

	if s.cfg.Karaoke && len(line.Words) > 0 && text == line.Text {
		s.drawKaraoke(dc, line, t, op)
		return
	}
	dc.SetColor(visualizer.WithAlpha(textColor, op))
	dc.DrawStringAnchored(text, 0, 0, 0.5, 0.5)
}

// drawKaraoke lays the line's words out centered on the origin and colors
// the ones already sung.
func (s *Session) drawKaraoke(dc *gg.Context, line lyrics.Line, t, op float64) {
	sung, progress := line.SungWords(t)
	highlight := s.palette.At(0.8)
	space, _ := dc.MeasureString(" ")

	total := -space
	for _, w := range line.Words {
		ww, _ := dc.MeasureString(w.Text)
		total += ww + space
	}

	x := -total / 2
	for i, w := range line.Words {
		c := textColor
		switch {
		case i < sung-1:
			c = highlight
		case i == sung-1:
			c = lerpRGBA(textColor, highlight, progress)
		}
		dc.SetColor(visualizer.WithAlpha(c, op))
		dc.DrawStringAnchored(w.Text, x, 0, 0, 0.5)
		ww, _ := dc.MeasureString(w.Text)
		x += ww + space
	}
}

// drawTitle shows the track title and artist until shortly before the first
// lyric line.
func (s *Session) drawTitle(dc *gg.Context, t float64) {
	if s.meta.Title == "" {
		return
	}
	first := 5.0
	if len(s.lines) > 0 {
		first = s.lines[0].Start
	}
	op := clamp01((first - t) / 0.6)
	if op <= 0 {
		return
	}
	w, h := float64(dc.Width()), float64(dc.Height())

	dc.SetFontFace(s.fonts.title)
	dc.SetColor(visualizer.WithAlpha(textColor, op))
	dc.DrawStringAnchored(s.meta.Title, w/2, h*0.45, 0.5, 0.5)
	if s.meta.Artist != "" {
		dc.SetFontFace(s.fonts.lyric)
		dc.SetColor(visualizer.WithAlpha(s.palette.At(0.6), op))
		dc.DrawStringAnchored(s.meta.Artist, w/2, h*0.58, 0.5, 0.5)
	}
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	t = clamp01(t)
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
