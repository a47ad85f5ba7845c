package video

import (
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"
)

func TestParseFraction(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"24000/1001", 24000.0 / 1001},
		{"25", 25},
		{"1/0", 0},
		{"", 0},
		{"x/1", 0},
	}
	for _, tt := range tests {
		if got := parseFraction(tt.in); got != tt.want {
			t.Errorf("parseFraction(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseProbe(t *testing.T) {
	out := []byte(`{
		"streams": [{"codec_type": "video", "width": 1920, "height": 1080, "r_frame_rate": "30/1", "avg_frame_rate": "0/0"}],
		"format": {"duration": "12.5"}
	}`)
	p, err := parseProbe(out)
	if err != nil {
		t.Fatal(err)
	}
	if !p.HasVideo || p.Width != 1920 || p.Height != 1080 || p.FPS != 30 {
		t.Fatalf("probe = %+v", p)
	}
	if p.Duration != 12500*time.Millisecond {
		t.Fatalf("duration = %v", p.Duration)
	}

	audioOnly, err := parseProbe([]byte(`{"streams": [], "format": {"duration": "3"}}`))
	if err != nil || audioOnly.HasVideo {
		t.Fatalf("audio only = %+v, %v", audioOnly, err)
	}
	if _, err := parseProbe([]byte("{")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFitFrame(t *testing.T) {
	tests := []struct {
		w, h, sw, sh int
		wantW, wantH int
	}{
		{1280, 720, 1920, 1080, 1280, 720},
		{1280, 720, 1080, 1920, 404, 720},
		{640, 640, 1920, 1080, 640, 360},
		{0, 720, 1920, 1080, 2, 2},
	}
	for _, tt := range tests {
		w, h := FitFrame(tt.w, tt.h, tt.sw, tt.sh)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("FitFrame(%d,%d,%d,%d) = %dx%d, want %dx%d", tt.w, tt.h, tt.sw, tt.sh, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(time.Hour + 2*time.Minute + 3500*time.Millisecond); got != "01:02:03.500" {
		t.Fatalf("got %q", got)
	}
	if got := formatDuration(-time.Second); got != "00:00:00.000" {
		t.Fatalf("negative = %q", got)
	}
}

func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
			}
		}
	}
	return img
}

func TestPreviewASCII(t *testing.T) {
	p := NewPreviewProfile(termenv.Ascii)
	if p.Color() {
		t.Fatal("ascii profile should not use colour")
	}
	out := p.Render(checker(8, 4), 4, 2)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("rows = %d, want 2", len(lines))
	}
	for _, l := range lines {
		if l != "@@  " {
			t.Fatalf("row = %q, want %q", l, "@@  ")
		}
	}
}

func TestPreviewTrueColor(t *testing.T) {
	p := NewPreviewProfile(termenv.TrueColor)
	out := p.Render(checker(8, 4), 4, 2)
	if !strings.Contains(out, "\x1b[38;2;255;255;255m") || !strings.Contains(out, "\x1b[48;2;0;0;0m") {
		t.Fatalf("missing truecolor escapes: %q", out)
	}
	if n := strings.Count(out, "▀"); n != 8 {
		t.Fatalf("cells = %d, want 8", n)
	}
	if p.Render(nil, 4, 2) != "" || p.Render(checker(4, 4), 0, 2) != "" {
		t.Fatal("degenerate input should render nothing")
	}
}

func TestCellSize(t *testing.T) {
	p := NewPreviewProfile(termenv.Ascii)
	cols, rows := p.CellSize(160, 100, 1280, 720)
	if cols != 160 || rows != 45 {
		t.Fatalf("wide = %dx%d", cols, rows)
	}
	cols, rows = p.CellSize(160, 20, 1280, 720)
	if rows != 20 || cols != 71 {
		t.Fatalf("short = %dx%d", cols, rows)
	}
}
