package render

import (
	"image"

	"github.com/olivier-w/lyricviz/internal/settings"
)

// blend composites src onto dst at (dx,dy) using mode, scaled by opacity.
// Both images must share dst's bounds size.
func blend(dst, src *image.RGBA, mode string, opacity float64, dx, dy int) {
	if opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	fn := blendFunc(mode)

	for y := 0; y < h; y++ {
		sy := y - dy
		if sy < 0 || sy >= src.Rect.Dy() {
			continue
		}
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		srow := src.Pix[sy*src.Stride : sy*src.Stride+src.Rect.Dx()*4]
		for x := 0; x < w; x++ {
			sx := x - dx
			if sx < 0 || sx >= src.Rect.Dx() {
				continue
			}
			si := sx * 4
			sa := srow[si+3]
			if sa == 0 {
				continue
			}
			k := opacity * float64(sa) / 255
			di := x * 4
			for c := 0; c < 3; c++ {
				d := float64(drow[di+c]) / 255
				s := float64(srow[si+c]) / float64(sa)
				out := d + (fn(d, s)-d)*k
				drow[di+c] = uint8(clamp01(out)*255 + 0.5)
			}
			drow[di+3] = 255
		}
	}
}

func blendFunc(mode string) func(d, s float64) float64 {
	switch mode {
	case settings.BlendMultiply:
		return func(d, s float64) float64 { return d * s }
	case settings.BlendScreen:
		return func(d, s float64) float64 { return 1 - (1-d)*(1-s) }
	case settings.BlendOverlay:
		return func(d, s float64) float64 {
			if d < 0.5 {
				return 2 * d * s
			}
			return 1 - 2*(1-d)*(1-s)
		}
	default:
		return func(_, s float64) float64 { return s }
	}
}
