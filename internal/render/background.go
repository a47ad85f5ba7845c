package render

import (
	"context"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/olivier-w/lyricviz/internal/media"
	"github.com/olivier-w/lyricviz/internal/video"
)

// Background supplies the asset drawn behind every layer. FrameAt returns
// nil while nothing is ready, which leaves the gradient showing.
type Background interface {
	FrameAt(t float64) image.Image
}

// Still is a static image background.
type Still struct {
	img image.Image
}

// LoadStill reads a PNG or JPEG background.
func LoadStill(path string) (*Still, error) {
	img, err := gg.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("load background %s: %w", path, err)
	}
	return &Still{img: img}, nil
}

// NewStill wraps an already decoded image.
func NewStill(img image.Image) *Still { return &Still{img: img} }

func (s *Still) FrameAt(float64) image.Image { return s.img }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenBackground loads the asset at path for a w x h canvas. Videos get
// their own ffmpeg decoder, so every caller must Close what it opened.
// An empty path returns a nil Background.
func OpenBackground(ctx context.Context, path string, w, h int) (Background, io.Closer, error) {
	switch media.ClassifyBackground(path) {
	case media.ImageBackground:
		st, err := LoadStill(path)
		if err != nil {
			return nil, nil, err
		}
		return st, nopCloser{}, nil
	case media.VideoBackground:
		vs, err := video.NewSession(ctx, path, w, h)
		if err != nil {
			return nil, nil, fmt.Errorf("open background video %s: %w", path, err)
		}
		return vs, vs, nil
	default:
		if path == "" {
			return nil, nopCloser{}, nil
		}
		return nil, nil, fmt.Errorf("unsupported background %s", path)
	}
}

// backdrop draws the palette gradient and the optional asset.
type backdrop struct {
	asset   Background
	scratch *gg.Context
}

// bass and hue are knob values in 0..255; hue rotates the gradient along the
// palette.
func (b *backdrop) draw(dc *gg.Context, s *Session, bass, hue float64, t float64, dx, dy int) {
	w, h := float64(dc.Width()), float64(dc.Height())
	level := bass / 255

	top, bottom := s.palette.Background(level*s.cfg.Intensity, clamp01(hue/255)*0.5)
	grad := gg.NewLinearGradient(0, 0, 0, h)
	grad.AddColorStop(0, top)
	grad.AddColorStop(1, bottom)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	if b.asset == nil {
		return
	}
	img := b.asset.FrameAt(t)
	if img == nil {
		return
	}
	src := img.Bounds()
	if src.Dx() <= 0 || src.Dy() <= 0 {
		return
	}

	if b.scratch == nil || b.scratch.Width() != dc.Width() || b.scratch.Height() != dc.Height() {
		b.scratch = gg.NewContext(dc.Width(), dc.Height())
	}
	sc := b.scratch
	sc.SetRGBA(0, 0, 0, 0)
	sc.Clear()

	// Cover the canvas, then breathe with the bass.
	cover := math.Max(w/float64(src.Dx()), h/float64(src.Dy()))
	zoom := cover * (1 + 0.06*level*s.cfg.Intensity)
	sc.Push()
	sc.ScaleAbout(zoom, zoom, w/2, h/2)
	sc.DrawImageAnchored(img, int(w/2), int(h/2), 0.5, 0.5)
	sc.Pop()

	opacity := 0.55 + 0.45*level
	blend(dc.Image().(*image.RGBA), sc.Image().(*image.RGBA), s.cfg.BackgroundBlendMode, opacity, dx, dy)
}
