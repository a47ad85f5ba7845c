package visualizer

import (
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultPalette is used for unknown or empty palette names.
const DefaultPalette = "neon"

// hsl is a palette's color for position t in [0,1). Hue is in degrees.
type hsl func(t float64) (h, s, l float64)

var palettes = map[string]hsl{
	"neon": func(t float64) (float64, float64, float64) {
		return 280 + t*160, 1, 0.6
	},
	"sunset": func(t float64) (float64, float64, float64) {
		return 330 + t*60, 0.9, 0.55 + 0.1*t
	},
	"ocean": func(t float64) (float64, float64, float64) {
		return 180 + t*60, 0.8, 0.45 + 0.2*t
	},
	"matrix": func(t float64) (float64, float64, float64) {
		return 110 + t*20, 1, 0.3 + 0.3*t
	},
	"fire": func(t float64) (float64, float64, float64) {
		return t * 45, 1, 0.5
	},
	"pastel": func(t float64) (float64, float64, float64) {
		return t * 360, 0.7, 0.85
	},
	"grayscale": func(t float64) (float64, float64, float64) {
		return 0, 0, 0.3 + 0.6*t
	},
	"sepia": func(t float64) (float64, float64, float64) {
		return 30 + 10*t, 0.35 + 0.15*t, 0.4 + 0.35*t
	},
	"autumn": func(t float64) (float64, float64, float64) {
		return 15 + 30*t, 0.8, 0.4 + 0.15*t
	},
	"winter": func(t float64) (float64, float64, float64) {
		return 190 + 40*t, 0.3 + 0.3*t, 0.75 + 0.2*t
	},
	"spring": func(t float64) (float64, float64, float64) {
		return 90 + 60*t, 0.6, 0.65
	},
	"cyberpunk": func(t float64) (float64, float64, float64) {
		if t < 0.5 {
			return 300 + 20*t, 1, 0.55
		}
		return 170 + 20*t, 1, 0.55
	},
	"nature": func(t float64) (float64, float64, float64) {
		return 70 + 70*t, 0.5 + 0.2*t, 0.35 + 0.15*t
	},
}

// PaletteNames lists the known palettes in alphabetical order.
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Palette maps a position in [0,1) to a color. A valid sentiment hex color
// replaces the named generator with variations around that color.
type Palette struct {
	name      string
	sentiment string
	gen       hsl
}

// NewPalette resolves a palette by name with an optional "#rrggbb" sentiment
// override.
func NewPalette(name, sentiment string) *Palette {
	name = strings.ToLower(strings.TrimSpace(name))
	gen, ok := palettes[name]
	if !ok {
		name = DefaultPalette
		gen = palettes[name]
	}
	p := &Palette{name: name, gen: gen}

	if c, err := colorful.Hex(strings.TrimSpace(sentiment)); err == nil {
		h, s, l := c.Hsl()
		p.sentiment = c.Hex()
		p.gen = func(t float64) (float64, float64, float64) {
			return h + (t-0.5)*30, s, clamp01(l + (t-0.5)*0.3)
		}
	}
	return p
}

// Name returns the resolved palette name.
func (p *Palette) Name() string { return p.name }

// Key identifies the colors this palette produces.
func (p *Palette) Key() string {
	if p == nil {
		return ""
	}
	return p.name + p.sentiment
}

// At returns the palette color at t, wrapped into [0,1).
func (p *Palette) At(t float64) color.RGBA {
	if p == nil {
		p = NewPalette(DefaultPalette, "")
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		t = 0
	}
	t -= math.Floor(t)
	h, s, l := p.gen(t)
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	r, g, b := colorful.Hsl(h, clamp01(s), clamp01(l)).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Background returns a dark top and bottom color derived from the palette,
// brightened by level (0..1). shift moves both stops along the palette.
func (p *Palette) Background(level, shift float64) (top, bottom color.RGBA) {
	level = clamp01(level)
	dim := func(c color.RGBA, f float64) color.RGBA {
		return color.RGBA{
			R: uint8(float64(c.R) * f),
			G: uint8(float64(c.G) * f),
			B: uint8(float64(c.B) * f),
			A: 255,
		}
	}
	return dim(p.At(0.1+shift), 0.08+0.1*level), dim(p.At(0.9+shift), 0.18+0.15*level)
}

// WithAlpha returns c with its alpha scaled by a (0..1), premultiplied.
func WithAlpha(c color.RGBA, a float64) color.RGBA {
	a = clamp01(a)
	return color.RGBA{
		R: uint8(float64(c.R) * a),
		G: uint8(float64(c.G) * a),
		B: uint8(float64(c.B) * a),
		A: uint8(float64(c.A) * a),
	}
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
