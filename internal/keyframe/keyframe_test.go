package keyframe

import (
	"encoding/json"
	"math"
	"testing"
)

var threeKeys = []Keyframe{
	{Time: 0, X: -100, Y: 10, Scale: 0.5, Rotation: -10, Opacity: 0, Easing: EaseOut},
	{Time: 0.5, X: 0, Y: 0, Scale: 1, Rotation: 0, Opacity: 1, Easing: Linear},
	{Time: 1, X: 100, Y: -10, Scale: 1.5, Rotation: 10, Opacity: 0.2},
}

func TestAtBoundaries(t *testing.T) {
	tests := []struct {
		p    float64
		want Keyframe
	}{
		{0, threeKeys[0]},
		{-0.1, threeKeys[0]},
		{1, threeKeys[2]},
		{1.1, threeKeys[2]},
		{0.5, threeKeys[1]},
	}
	for _, tt := range tests {
		got := At(threeKeys, tt.p)
		if got != tt.want.transform() {
			t.Fatalf("At(%v) = %+v, want %+v", tt.p, got, tt.want.transform())
		}
	}
}

func TestAtUnsortedInput(t *testing.T) {
	shuffled := []Keyframe{threeKeys[2], threeKeys[0], threeKeys[1]}
	for _, p := range []float64{0, 0.2, 0.5, 0.75, 1} {
		if a, b := At(shuffled, p), At(threeKeys, p); a != b {
			t.Fatalf("p=%v: unsorted %+v != sorted %+v", p, a, b)
		}
	}
	if shuffled[0].Time != 1 {
		t.Fatal("At must not reorder the caller's slice")
	}
}

func TestAtAppliesEasingOfFirstKeyframe(t *testing.T) {
	got := At(threeKeys, 0.25)
	// Segment progress 0.5 through easeOut -> 0.75.
	wantX := -100 + 100*0.75
	if math.Abs(got.X-wantX) > 1e-9 {
		t.Fatalf("X = %v, want %v", got.X, wantX)
	}
	got = At(threeKeys, 0.75)
	if math.Abs(got.X-50) > 1e-9 || math.Abs(got.Opacity-0.6) > 1e-9 {
		t.Fatalf("linear segment gave %+v", got)
	}
}

func TestAtZeroDurationSegment(t *testing.T) {
	kfs := []Keyframe{
		{Time: 0, Scale: 1, Opacity: 1},
		{Time: 0.5, X: 10, Scale: 1, Opacity: 1},
		{Time: 0.5, X: 20, Scale: 1, Opacity: 1},
		{Time: 1, X: 30, Scale: 1, Opacity: 1},
	}
	got := At(kfs, 0.5)
	if math.IsNaN(got.X) {
		t.Fatal("zero-length segment produced NaN")
	}
}

func TestEmptyKeyframesIsIdentity(t *testing.T) {
	if got := At(nil, 0.3); got != Identity() {
		t.Fatalf("expected identity, got %+v", got)
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		start, end, now, want float64
	}{
		{10, 12, 11, 0.5},
		{10, 12, 9, 0},
		{10, 12, 13, 1},
		{10, 10, 10, 0},
		{10, 9, 11, 0},
		{0, math.Inf(1), 5, 0},
		{0, 2, math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := Progress(tt.start, tt.end, tt.now); got != tt.want {
			t.Errorf("Progress(%v,%v,%v) = %v, want %v", tt.start, tt.end, tt.now, got, tt.want)
		}
	}
}

func TestInterpolateUsesLineWindow(t *testing.T) {
	got := Interpolate(threeKeys, 20, 24, 22)
	if got != threeKeys[1].transform() {
		t.Fatalf("expected middle keyframe, got %+v", got)
	}
}

func TestEaseEndpoints(t *testing.T) {
	for _, name := range []string{Linear, EaseIn, EaseOut, EaseInOut, Bounce, "wobble"} {
		if v := Ease(name, 0); math.Abs(v) > 1e-9 {
			t.Errorf("%s(0) = %v", name, v)
		}
		if v := Ease(name, 1); math.Abs(v-1) > 1e-9 {
			t.Errorf("%s(1) = %v", name, v)
		}
	}
	if Ease(EaseIn, 0.5) >= 0.5 || Ease(EaseOut, 0.5) <= 0.5 {
		t.Fatal("easeIn should lag and easeOut should lead linear")
	}
}

func TestUnmarshalDefaults(t *testing.T) {
	var k Keyframe
	if err := json.Unmarshal([]byte(`{"time":0.3,"x":12}`), &k); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if k.Scale != 1 || k.Opacity != 1 || k.X != 12 || k.Time != 0.3 {
		t.Fatalf("unexpected keyframe %+v", k)
	}
}
