package video

import (
	"fmt"
	"image"
	"strings"

	"github.com/muesli/termenv"
)

// asciiRamp runs from darkest to brightest.
const asciiRamp = " .:-=+*#%@"

const ansiReset = "\x1b[0m"

// Preview turns a rendered canvas into terminal text. With colour it packs
// two pixel rows into each cell using "▀" with the top pixel as foreground
// and the bottom one as background; without colour it maps luminance onto
// an ASCII ramp.
type Preview struct {
	profile termenv.Profile
	sb      strings.Builder
}

// NewPreview uses the colour profile detected from the environment.
func NewPreview() *Preview {
	return &Preview{profile: termenv.EnvColorProfile()}
}

// NewPreviewProfile forces a colour profile.
func NewPreviewProfile(p termenv.Profile) *Preview {
	return &Preview{profile: p}
}

// Color reports whether the preview emits colour escapes.
func (p *Preview) Color() bool { return p.profile != termenv.Ascii }

// CellSize returns the largest cols x rows cell grid that fits in the
// available space while matching the canvas aspect ratio. Cells are taken
// to be twice as tall as they are wide.
func (p *Preview) CellSize(maxCols, maxRows, canvasW, canvasH int) (int, int) {
	if maxCols <= 0 || maxRows <= 0 || canvasW <= 0 || canvasH <= 0 {
		return 0, 0
	}
	aspect := float64(canvasW) / float64(canvasH)
	// One cell is half as wide as tall; rows are counted in cells.
	cols := maxCols
	rows := int(float64(cols) / aspect / 2)
	if rows > maxRows {
		rows = maxRows
		cols = int(float64(rows) * aspect * 2)
	}
	return max(cols, 1), max(rows, 1)
}

// Render samples img with nearest-neighbour into cols x rows cells.
func (p *Preview) Render(img *image.RGBA, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 || img.Rect.Dx() <= 0 || img.Rect.Dy() <= 0 {
		return ""
	}
	p.sb.Reset()
	p.sb.Grow(cols * rows * 24)
	if p.Color() {
		p.renderHalfBlock(img, cols, rows)
	} else {
		p.renderASCII(img, cols, rows)
	}
	return p.sb.String()
}

func (p *Preview) renderHalfBlock(img *image.RGBA, cols, rows int) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	pixelRows := rows * 2
	var lastFg, lastBg string
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			x := col * w / cols
			tr, tg, tb := sample(img, x, row*2*h/pixelRows)
			br, bg, bb := sample(img, x, (row*2+1)*h/pixelRows)

			fg := p.seq(tr, tg, tb, false)
			bgc := p.seq(br, bg, bb, true)
			if fg != lastFg {
				p.sb.WriteString(fg)
				lastFg = fg
			}
			if bgc != lastBg {
				p.sb.WriteString(bgc)
				lastBg = bgc
			}
			p.sb.WriteString("▀")
		}
		p.sb.WriteString(ansiReset)
		lastFg, lastBg = "", ""
		if row < rows-1 {
			p.sb.WriteByte('\n')
		}
	}
}

func (p *Preview) renderASCII(img *image.RGBA, cols, rows int) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			r, g, b := sample(img, col*w/cols, row*h/rows)
			p.sb.WriteByte(brightnessChar(luminance(r, g, b)))
		}
		if row < rows-1 {
			p.sb.WriteByte('\n')
		}
	}
}

// seq returns the escape sequence selecting an RGB colour in the preview's
// profile.
func (p *Preview) seq(r, g, b uint8, bg bool) string {
	if p.profile == termenv.TrueColor {
		if bg {
			return fmt.Sprintf("\x1b[48;2;%d;%d;%dm", r, g, b)
		}
		return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", r, g, b)
	}
	c := p.profile.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b))
	if c == nil {
		return ""
	}
	return termenv.CSI + c.Sequence(bg) + "m"
}

func sample(img *image.RGBA, x, y int) (uint8, uint8, uint8) {
	off := img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)
	if off < 0 || off+2 >= len(img.Pix) {
		return 0, 0, 0
	}
	return img.Pix[off], img.Pix[off+1], img.Pix[off+2]
}

// luminance computes perceived brightness (ITU-R BT.601).
func luminance(r, g, b uint8) uint8 {
	return uint8((299*int(r) + 587*int(g) + 114*int(b)) / 1000)
}

func brightnessChar(lum uint8) byte {
	return asciiRamp[int(lum)*(len(asciiRamp)-1)/255]
}
