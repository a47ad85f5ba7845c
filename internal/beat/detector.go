// Package beat detects onsets, tempo and beat phase from per-frame
// frequency-bin snapshots.
package beat

import (
	"math"
	"sort"
)

const (
	// DefaultSeekThreshold is how far (in seconds) playback time may move
	// backwards before the detector treats it as a seek.
	DefaultSeekThreshold = 0.5

	// DefaultBPM is the tempo assumed before enough onsets are observed.
	DefaultBPM = 120.0

	MinBPM = 30.0
	MaxBPM = 300.0

	minBeatInterval  = 0.1
	onsetHistoryCap  = 20
	energyHistoryCap = 16
	energyDeltaMin   = 8

	thresholdDecay = 0.95
	thresholdScale = 1.5
	thresholdFloor = 0.05

	bpmSmoothing   = 0.9
	minOnsetsBPM   = 4
	minIntervalBPM = 0.2
	maxIntervalBPM = 2.0

	intensityDecay = 4.0
)

// Features is the per-frame snapshot produced by Analyze.
type Features struct {
	IsBeat      bool
	Intensity   float64 // 0..1
	BPM         float64 // 30..300
	Phase       float64 // 0..1 position inside the current beat
	Energy      float64 // RMS of the bins, 0..1
	EnergyDelta float64
	Centroid    float64 // 0..1, bin-weighted brightness
	Flux        float64
	SinceBeat   float64 // seconds since the last onset, +Inf before the first
}

// HasBeat reports whether any onset has been observed on this track.
func (f Features) HasBeat() bool {
	return !math.IsInf(f.SinceBeat, 1)
}

// Detector is a spectral-flux onset detector with adaptive thresholding.
// It is not safe for concurrent use; one render loop owns one Detector.
type Detector struct {
	// SeekThreshold overrides DefaultSeekThreshold when positive.
	SeekThreshold float64

	prev     []uint8
	havePrev bool

	onsets   []float64
	energy   []float64
	scratch  []float64
	lastBeat float64 // -1 = none

	threshold     float64
	bpm           float64
	lastAnalysis  float64
	lastIntensity float64
}

// NewDetector returns a detector in its freshly-loaded-track state.
func NewDetector() *Detector {
	d := &Detector{
		onsets:  make([]float64, 0, onsetHistoryCap),
		energy:  make([]float64, 0, energyHistoryCap),
		scratch: make([]float64, 0, onsetHistoryCap),
	}
	d.Reset()
	return d
}

// Reset clears all state. Call it when a new track is loaded.
func (d *Detector) Reset() {
	d.prev = d.prev[:0]
	d.havePrev = false
	d.onsets = d.onsets[:0]
	d.energy = d.energy[:0]
	d.lastBeat = -1
	d.threshold = 0
	d.bpm = DefaultBPM
	d.lastAnalysis = 0
	d.lastIntensity = 0
}

// Seek clears time-dependent history while keeping the adaptive threshold
// and the tempo estimate. Analyze calls it on its own when it sees time
// jump backwards; transports that know about seeks may call it directly.
func (d *Detector) Seek(t float64) {
	t = finiteOr(t, 0)
	d.onsets = d.onsets[:0]
	d.energy = d.energy[:0]
	d.lastBeat = -1
	d.lastIntensity = 0
	d.havePrev = false
	d.lastAnalysis = t
}

// BPM returns the current tempo estimate.
func (d *Detector) BPM() float64 { return d.bpm }

// Threshold returns the adaptive threshold state (before scaling).
func (d *Detector) Threshold() float64 { return d.threshold }

func (d *Detector) seekThreshold() float64 {
	if d.SeekThreshold > 0 {
		return d.SeekThreshold
	}
	return DefaultSeekThreshold
}

// Analyze consumes one frame of frequency bins (0..255) at playback time t
// (seconds). It never panics; malformed input yields a neutral snapshot.
func (d *Detector) Analyze(bins []uint8, t float64) Features {
	t = finiteOr(t, 0)

	if len(bins) == 0 {
		return Features{
			BPM:       d.bpm,
			SinceBeat: d.sinceBeat(t),
		}
	}

	if t < d.lastAnalysis-d.seekThreshold() {
		d.Seek(t)
	}

	flux := d.flux(bins)
	energy := rms(bins)

	d.threshold = finiteOr(d.threshold*thresholdDecay+flux*(1-thresholdDecay), 0)
	threshold := d.threshold*thresholdScale + thresholdFloor

	isBeat := false
	if flux > threshold && (d.lastBeat < 0 || t-d.lastBeat >= minBeatInterval) {
		isBeat = true
		d.lastBeat = t
		d.lastIntensity = clamp((flux-threshold)/threshold, 0, 1)
		d.pushOnset(t)
		d.estimateBPM()
	}

	since := d.sinceBeat(t)
	intensity := d.lastIntensity
	if !isBeat {
		if math.IsInf(since, 1) {
			intensity = 0
		} else {
			intensity *= math.Exp(-intensityDecay * since)
		}
	}

	d.lastAnalysis = t

	return Features{
		IsBeat:      isBeat,
		Intensity:   clamp(intensity, 0, 1),
		BPM:         d.bpm,
		Phase:       d.phase(t),
		Energy:      energy,
		EnergyDelta: d.energyDelta(energy),
		Centroid:    centroid(bins),
		Flux:        flux,
		SinceBeat:   since,
	}
}

// flux is the positive-only spectral difference against the previous
// frame, normalised by bin count and 255. It also stores bins as the new
// previous spectrum without reallocating.
func (d *Detector) flux(bins []uint8) float64 {
	if !d.havePrev || len(d.prev) != len(bins) {
		d.prev = append(d.prev[:0], bins...)
		d.havePrev = true
		return 0
	}
	var sum float64
	for i, v := range bins {
		if diff := float64(v) - float64(d.prev[i]); diff > 0 {
			sum += diff
		}
		d.prev[i] = v
	}
	return sum / float64(len(bins)) / 255
}

func (d *Detector) pushOnset(t float64) {
	if len(d.onsets) >= onsetHistoryCap {
		n := copy(d.onsets, d.onsets[len(d.onsets)-onsetHistoryCap+1:])
		d.onsets = d.onsets[:n]
	}
	d.onsets = append(d.onsets, t)
}

// estimateBPM folds the median inter-onset interval into the running
// estimate. Outlier intervals outside 0.2s..2s are ignored.
func (d *Detector) estimateBPM() {
	if len(d.onsets) < minOnsetsBPM {
		return
	}
	d.scratch = d.scratch[:0]
	for i := 1; i < len(d.onsets); i++ {
		d.scratch = append(d.scratch, d.onsets[i]-d.onsets[i-1])
	}
	sort.Float64s(d.scratch)
	n := len(d.scratch)
	median := d.scratch[n/2]
	if n%2 == 0 {
		median = (d.scratch[n/2-1] + d.scratch[n/2]) / 2
	}
	if median <= minIntervalBPM || median >= maxIntervalBPM {
		return
	}
	next := d.bpm*bpmSmoothing + (60/median)*(1-bpmSmoothing)
	d.bpm = clamp(finiteOr(next, d.bpm), MinBPM, MaxBPM)
}

func (d *Detector) phase(t float64) float64 {
	bpm := clamp(finiteOr(d.bpm, DefaultBPM), MinBPM, MaxBPM)
	dur := 60 / bpm
	elapsed := t
	if d.lastBeat >= 0 {
		elapsed = math.Max(0, t-d.lastBeat)
	}
	p := math.Mod(elapsed, dur) / dur
	return clamp(finiteOr(p, 0), 0, 1)
}

func (d *Detector) energyDelta(e float64) float64 {
	if len(d.energy) >= energyHistoryCap {
		n := copy(d.energy, d.energy[len(d.energy)-energyHistoryCap+1:])
		d.energy = d.energy[:n]
	}
	d.energy = append(d.energy, e)
	if len(d.energy) < energyDeltaMin {
		return 0
	}
	half := len(d.energy) / 2
	return mean(d.energy[half:]) - mean(d.energy[:half])
}

func (d *Detector) sinceBeat(t float64) float64 {
	if d.lastBeat < 0 {
		return math.Inf(1)
	}
	return math.Max(0, t-d.lastBeat)
}

func rms(bins []uint8) float64 {
	var sum float64
	for _, v := range bins {
		f := float64(v)
		sum += f * f
	}
	return math.Sqrt(sum/float64(len(bins))) / 255
}

func centroid(bins []uint8) float64 {
	var weighted, total float64
	for i, v := range bins {
		weighted += float64(i) * float64(v)
		total += float64(v)
	}
	if total == 0 {
		return 0
	}
	return weighted / total / float64(len(bins))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
