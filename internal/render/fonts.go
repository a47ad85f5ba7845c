package render

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

var builtinFonts = map[string][]byte{
	"":        gobold.TTF,
	"sans":    goregular.TTF,
	"regular": goregular.TTF,
	"bold":    gobold.TTF,
	"mono":    gomono.TTF,
}

// LoadFace returns a font face for family at the given point size. family
// is either a built-in name (sans, bold, mono) or a path to a TTF file.
func LoadFace(family string, points float64) (font.Face, error) {
	if points < 1 {
		points = 1
	}
	family = strings.TrimSpace(family)
	if ext := strings.ToLower(filepath.Ext(family)); ext == ".ttf" || ext == ".otf" {
		face, err := gg.LoadFontFace(family, points)
		if err != nil {
			return nil, fmt.Errorf("load font %s: %w", family, err)
		}
		return face, nil
	}

	data, ok := builtinFonts[strings.ToLower(family)]
	if !ok {
		data = builtinFonts[""]
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse built-in font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: points, Hinting: font.HintingFull}), nil
}

// fonts holds the faces one session draws with.
type fonts struct {
	lyric font.Face
	small font.Face
	title font.Face
}

func loadFonts(family string, size, height float64) fonts {
	scale := height / 720
	lyric, err := LoadFace(family, size*scale)
	if err != nil {
		log.Printf("[render] font: %v, using built-in", err)
		lyric, _ = LoadFace("", size*scale)
	}
	small, _ := LoadFace("mono", max(6, 14*scale))
	title, _ := LoadFace("", size*1.4*scale)
	return fonts{lyric: lyric, small: small, title: title}
}
