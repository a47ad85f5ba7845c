package visualizer

import (
	"math"

	"github.com/fogleman/gg"
)

// Rings draws concentric rings around the canvas center: bass, mid and
// treble each drive one ring, and stereo loudness drives an outer pair of
// arcs with peak hold.
type Rings struct {
	levels    [3]float64
	leftRMS   float64
	rightRMS  float64
	leftPeak  float64
	rightPeak float64
	spin      float64
}

// NewRings creates a new rings style.
func NewRings() *Rings {
	return &Rings{}
}

func (r *Rings) Name() string { return "rings" }

func (r *Rings) Draw(dc *gg.Context, fr *Frame) {
	s := step(fr.Dt)
	targets := [3]float64{fr.Levels.Bass / 255, fr.Levels.Mid / 255, fr.Levels.Treble / 255}
	for i, t := range targets {
		r.levels[i] = smooth(r.levels[i], t, 0.6*s, 0.15*s)
	}
	l, rt := stereoRMS(fr.Samples)
	r.leftRMS = smooth(r.leftRMS, l, 0.6*s, 0.15*s)
	r.rightRMS = smooth(r.rightRMS, rt, 0.6*s, 0.15*s)
	r.leftPeak = hold(r.leftPeak, r.leftRMS, 0.02*s)
	r.rightPeak = hold(r.rightPeak, r.rightRMS, 0.02*s)
	r.spin += 0.01 * s * (1 + fr.Knobs.Motion/255) * math.Max(0.1, fr.Speed)

	cx, cy := fr.Width/2, fr.Height/2
	base := math.Min(fr.Width, fr.Height) * 0.12
	pulse := 1 + 0.15*fr.Beat.Intensity*fr.Intensity

	for i, lv := range r.levels {
		radius := base * float64(i+1) * (0.8 + 0.6*lv) * pulse
		dc.DrawCircle(cx, cy, radius)
		dc.SetLineWidth(2 + 10*lv)
		dc.SetColor(WithAlpha(fr.Palette.At(float64(i)/3+fr.Beat.Phase*0.05), 0.4+0.6*lv))
		dc.Stroke()
	}

	outer := base * 4
	arc := func(level, peak, from, hue float64) {
		sweep := math.Pi * rmsToLevel(level)
		dc.NewSubPath()
		dc.DrawArc(cx, cy, outer, from+r.spin, from+r.spin+sweep)
		dc.SetLineWidth(6)
		dc.SetColor(fr.Palette.At(hue))
		dc.Stroke()

		p := from + r.spin + math.Pi*rmsToLevel(peak)
		dc.DrawCircle(cx+outer*math.Cos(p), cy+outer*math.Sin(p), 4)
		dc.SetRGB(1, 0.99, 0.82)
		dc.Fill()
	}
	arc(r.leftRMS, r.leftPeak, math.Pi/2, 0.15)
	arc(r.rightRMS, r.rightPeak, -math.Pi/2, 0.65)
}

func stereoRMS(samples []int16) (float64, float64) {
	var l, r float64
	count := 0
	for i := 0; i+1 < len(samples); i += 2 {
		a := float64(samples[i]) / 32768
		b := float64(samples[i+1]) / 32768
		l += a * a
		r += b * b
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return math.Sqrt(l / float64(count)), math.Sqrt(r / float64(count))
}

// smooth moves cur toward target with separate attack and release rates.
func smooth(cur, target, attack, release float64) float64 {
	rate := release
	if target > cur {
		rate = attack
	}
	return cur + (target-cur)*clamp01(rate)
}

func hold(peak, v, decay float64) float64 {
	if v > peak {
		return v
	}
	return math.Max(0, peak-decay)
}

// rmsToLevel maps RMS onto 0..1 with a -40dB floor so quiet passages still
// register.
func rmsToLevel(rms float64) float64 {
	const dbFloor = -40.0
	if rms < 1e-6 {
		return 0
	}
	db := 20 * math.Log10(rms)
	if db < dbFloor {
		return 0
	}
	return math.Min(1, (db-dbFloor)/-dbFloor)
}
