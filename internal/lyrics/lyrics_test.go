package lyrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sample = `{
  "lines": [
    {"id": "b", "text": "second line", "startTime": 4, "endTime": 7,
     "keyframes": [{"time": 0, "opacity": 0}, {"time": 1, "x": 20, "easing": "easeOut"}]},
    {"text": "first line", "startTime": 1, "endTime": 3.5, "sentimentColor": "#ff0080",
     "words": [
       {"text": "line", "startTime": 2, "endTime": 3},
       {"text": "first", "startTime": 1, "endTime": 2}
     ]}
  ]
}`

func TestParseSortsAndFillsIDs(t *testing.T) {
	lines, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Text != "first line" || lines[0].ID != "1" {
		t.Fatalf("unexpected first line %+v", lines[0])
	}
	if lines[0].Words[0].Text != "first" {
		t.Fatalf("words not sorted: %+v", lines[0].Words)
	}
	kf := lines[1].Keyframes
	if len(kf) != 2 || kf[1].Scale != 1 || kf[0].Opacity != 0 || kf[1].Opacity != 1 {
		t.Fatalf("keyframe defaults not applied: %+v", kf)
	}
}

func TestParseBareArray(t *testing.T) {
	lines, err := Parse([]byte(` [{"text":"x","startTime":0,"endTime":1}]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(lines) != 1 || lines[0].ID != "0" {
		t.Fatalf("unexpected lines %+v", lines)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.json")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	lines, err := Load(path)
	if err != nil || len(lines) != 2 {
		t.Fatalf("Load = %v, %v", lines, err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestActive(t *testing.T) {
	lines := []Line{
		{Start: 1, End: 3},
		{Start: 2.5, End: 4},
		{Start: 6, End: 8},
	}
	tests := []struct {
		t    float64
		want int
	}{
		{0, -1},
		{1, 0},
		{2.6, 1},
		{3.5, 1},
		{4, -1},
		{5, -1},
		{7.99, 2},
		{8, -1},
	}
	for _, tt := range tests {
		if got := Active(lines, tt.t); got != tt.want {
			t.Errorf("Active(%v) = %d, want %d", tt.t, got, tt.want)
		}
	}
	if Active(nil, 1) != -1 {
		t.Fatal("expected -1 for no lines")
	}
}

func TestSungWords(t *testing.T) {
	l := Line{Words: []Word{{Start: 1, End: 2}, {Start: 2, End: 4}}}
	if n, _ := l.SungWords(0.5); n != 0 {
		t.Fatalf("expected no words, got %d", n)
	}
	n, p := l.SungWords(3)
	if n != 2 || p != 0.5 {
		t.Fatalf("SungWords(3) = %d, %v", n, p)
	}
}

func TestTrackerFadesOnWallClock(t *testing.T) {
	tr := NewTracker(500 * time.Millisecond)
	base := time.Unix(100, 0)

	tr.Update(0, base)
	if idx, _ := tr.Fading(base); idx != -1 {
		t.Fatal("nothing should fade on the first line")
	}

	tr.Update(1, base.Add(time.Second))
	idx, op := tr.Fading(base.Add(time.Second + 250*time.Millisecond))
	if idx != 0 || op != 0.5 {
		t.Fatalf("Fading = %d, %v; want 0, 0.5", idx, op)
	}

	// Paused playback: the active line doesn't change but the fade still ends.
	tr.Update(1, base.Add(2*time.Second))
	if idx, _ := tr.Fading(base.Add(2 * time.Second)); idx != -1 {
		t.Fatalf("fade should be over, still fading %d", idx)
	}
	if tr.Current() != 1 {
		t.Fatalf("current = %d", tr.Current())
	}
}

func TestTrackerGapFadesLastLine(t *testing.T) {
	tr := NewTracker(DefaultFade)
	now := time.Unix(0, 0)
	tr.Update(3, now)
	tr.Update(-1, now)
	if idx, op := tr.Fading(now); idx != 3 || op != 1 {
		t.Fatalf("Fading = %d, %v", idx, op)
	}
	tr.Reset()
	if tr.Current() != -1 {
		t.Fatal("reset should clear current line")
	}
}
