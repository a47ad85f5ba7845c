package visualizer

import (
	"math"
	"testing"
)

func TestEveryPaletteIsDistinct(t *testing.T) {
	names := PaletteNames()
	if len(names) != 13 {
		t.Fatalf("expected 13 palettes, got %d", len(names))
	}
	seen := map[[3]uint8]string{}
	for _, name := range names {
		p := NewPalette(name, "")
		if p.Name() != name {
			t.Fatalf("palette %q resolved to %q", name, p.Name())
		}
		c := p.At(0.35)
		key := [3]uint8{c.R, c.G, c.B}
		if other, dup := seen[key]; dup {
			t.Fatalf("%s and %s produce the same color", name, other)
		}
		seen[key] = name
		if c.A != 255 {
			t.Fatalf("%s: expected opaque color", name)
		}
	}
}

func TestUnknownPaletteFallsBack(t *testing.T) {
	if got := NewPalette("plaid", "").Name(); got != DefaultPalette {
		t.Fatalf("got %q", got)
	}
}

func TestSentimentOverridesPalette(t *testing.T) {
	p := NewPalette("ocean", "#ff0000")
	c := p.At(0.5)
	if c.R < 200 || c.G > 40 || c.B > 40 {
		t.Fatalf("expected red-ish color, got %+v", c)
	}
	if p.Key() == NewPalette("ocean", "").Key() {
		t.Fatal("sentiment should change the key")
	}
	if NewPalette("ocean", "not-a-color").Key() != NewPalette("ocean", "").Key() {
		t.Fatal("invalid sentiment should be ignored")
	}
}

func TestAtWrapsAndGuards(t *testing.T) {
	p := NewPalette("pastel", "")
	if p.At(1.25) != p.At(0.25) {
		t.Fatal("At should wrap t into [0,1)")
	}
	if p.At(math.NaN()) != p.At(0) {
		t.Fatal("NaN should read as 0")
	}
	var nilPalette *Palette
	if nilPalette.At(0.2) != NewPalette(DefaultPalette, "").At(0.2) {
		t.Fatal("nil palette should behave like the default")
	}
}

func TestWithAlpha(t *testing.T) {
	c := WithAlpha(NewPalette("grayscale", "").At(0.999), 0.5)
	if c.A != 127 {
		t.Fatalf("alpha = %d", c.A)
	}
	if c.R > c.A {
		t.Fatal("color must stay premultiplied")
	}
}

func TestBackgroundShiftMovesAlongPalette(t *testing.T) {
	p := NewPalette("neon", "")
	top, bottom := p.Background(0.5, 0)
	shiftedTop, shiftedBottom := p.Background(0.5, 0.4)
	if top == shiftedTop && bottom == shiftedBottom {
		t.Fatalf("shift left the gradient unchanged: %+v %+v", top, bottom)
	}
	if again, _ := p.Background(0.5, 1); again != top {
		t.Fatal("a full turn should wrap back to the same colors")
	}
}
