// Package keyframe interpolates per-line text transforms.
package keyframe

import (
	"encoding/json"
	"math"
	"sort"
)

// Keyframe is a target transform at a point in a lyric line's window.
// Time is relative to the line duration (0..1); X and Y are pixel offsets
// from the line's anchor and Rotation is in degrees. Easing shapes the
// segment that starts at this keyframe.
type Keyframe struct {
	Time     float64 `json:"time"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
	Opacity  float64 `json:"opacity"`
	Easing   string  `json:"easing,omitempty"`
}

// UnmarshalJSON defaults omitted scale and opacity to 1.
func (k *Keyframe) UnmarshalJSON(data []byte) error {
	type raw Keyframe
	r := raw{Scale: 1, Opacity: 1}
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*k = Keyframe(r)
	return nil
}

// Transform is applied before drawing a line of text.
type Transform struct {
	X, Y     float64
	Scale    float64
	Rotation float64
	Opacity  float64
}

// Identity leaves text untouched.
func Identity() Transform {
	return Transform{Scale: 1, Opacity: 1}
}

func (k Keyframe) transform() Transform {
	return Transform{X: k.X, Y: k.Y, Scale: k.Scale, Rotation: k.Rotation, Opacity: k.Opacity}
}

// Progress returns how far now is through [start,end), clamped to 0..1.
// Zero-length or malformed windows yield 0.
func Progress(start, end, now float64) float64 {
	dur := end - start
	if !(dur > 0) || math.IsInf(dur, 0) {
		return 0
	}
	p := (now - start) / dur
	if math.IsNaN(p) {
		return 0
	}
	return clamp01(p)
}

// Interpolate computes the transform for a line spanning [start,end) at
// playback time now.
func Interpolate(kfs []Keyframe, start, end, now float64) Transform {
	return At(kfs, Progress(start, end, now))
}

// At computes the transform at progress p (clamped to 0..1). Keyframes need
// not be sorted; the input slice is never modified.
func At(kfs []Keyframe, p float64) Transform {
	if len(kfs) == 0 {
		return Identity()
	}
	if math.IsNaN(p) {
		p = 0
	}
	p = clamp01(p)

	if !sort.SliceIsSorted(kfs, func(i, j int) bool { return kfs[i].Time < kfs[j].Time }) {
		sorted := make([]Keyframe, len(kfs))
		copy(sorted, kfs)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
		kfs = sorted
	}

	first, last := kfs[0], kfs[len(kfs)-1]
	if p <= first.Time {
		return first.transform()
	}
	if p >= last.Time {
		return last.transform()
	}

	i := sort.Search(len(kfs), func(i int) bool { return kfs[i].Time > p }) - 1
	k1, k2 := kfs[i], kfs[i+1]

	var seg float64
	if d := k2.Time - k1.Time; d > 0 {
		seg = (p - k1.Time) / d
	}
	t := Ease(k1.Easing, seg)

	return Transform{
		X:        lerp(k1.X, k2.X, t),
		Y:        lerp(k1.Y, k2.Y, t),
		Scale:    lerp(k1.Scale, k2.Scale, t),
		Rotation: lerp(k1.Rotation, k2.Rotation, t),
		Opacity:  lerp(k1.Opacity, k2.Opacity, t),
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
