package analysis

import (
	"math"
	"strings"

	"github.com/olivier-w/lyricviz/internal/beat"
)

// Band names a signal that can drive a visual knob.
type Band string

const (
	BandBass   Band = "bass"
	BandMid    Band = "mid"
	BandTreble Band = "treble"
	BandAvg    Band = "avg"
	BandBeat   Band = "beat"
	BandEnergy Band = "energy"
)

// Bin ranges for the spectral bands, half-open.
const (
	bassEnd   = 10
	midEnd    = 100
	trebleEnd = 255

	beatPulseDecay = 8.0
)

// ParseBand maps a configuration string onto a Band. "average" is accepted
// as an alias of avg.
func ParseBand(s string) (Band, bool) {
	switch b := Band(strings.ToLower(strings.TrimSpace(s))); b {
	case BandBass, BandMid, BandTreble, BandAvg, BandBeat, BandEnergy:
		return b, true
	case "average":
		return BandAvg, true
	}
	return BandAvg, false
}

// Levels holds the mean magnitude (0..255) of each spectral band.
type Levels struct {
	Bass   float64
	Mid    float64
	Treble float64
	Avg    float64
}

// Measure slices bins into bass [0,10), mid [10,100) and treble [100,255)
// and averages each. Ranges are clipped to the available bins.
func Measure(bins []uint8) Levels {
	return Levels{
		Bass:   meanRange(bins, 0, bassEnd),
		Mid:    meanRange(bins, bassEnd, midEnd),
		Treble: meanRange(bins, midEnd, trebleEnd),
		Avg:    meanRange(bins, 0, len(bins)),
	}
}

func meanRange(bins []uint8, lo, hi int) float64 {
	if hi > len(bins) {
		hi = len(bins)
	}
	if lo >= hi {
		return 0
	}
	var sum int
	for _, v := range bins[lo:hi] {
		sum += int(v)
	}
	return float64(sum) / float64(hi-lo)
}

// Value returns the 0..255 level of band b. beat synthesises a pulse that
// peaks on onset frames and decays exponentially; energy rescales the
// detector's RMS energy. Unknown bands read as avg.
func (l Levels) Value(b Band, f beat.Features) float64 {
	switch b {
	case BandBass:
		return l.Bass
	case BandMid:
		return l.Mid
	case BandTreble:
		return l.Treble
	case BandBeat:
		if f.IsBeat {
			return 255
		}
		if !f.HasBeat() || math.IsNaN(f.SinceBeat) {
			return 0
		}
		return 255 * math.Exp(-beatPulseDecay*f.SinceBeat)
	case BandEnergy:
		e := f.Energy * 255
		if math.IsNaN(e) || e < 0 {
			return 0
		}
		return math.Min(e, 255)
	default:
		return l.Avg
	}
}

// Routing assigns a band to each of the pulse, motion and color knobs.
type Routing struct {
	Pulse  Band `json:"pulse"`
	Motion Band `json:"motion"`
	Color  Band `json:"color"`
}

// DefaultRouting drives size from bass, motion from mids and color from
// treble.
func DefaultRouting() Routing {
	return Routing{Pulse: BandBass, Motion: BandMid, Color: BandTreble}
}

// Knobs are the resolved 0..255 values for one frame.
type Knobs struct {
	Pulse  float64
	Motion float64
	Color  float64
}

// Resolve evaluates the routing for one frame.
func (r Routing) Resolve(l Levels, f beat.Features) Knobs {
	return Knobs{
		Pulse:  l.Value(r.Pulse, f),
		Motion: l.Value(r.Motion, f),
		Color:  l.Value(r.Color, f),
	}
}

// Sanitize normalises band names, replacing empty or unknown ones with the
// default for that knob.
func (r Routing) Sanitize() Routing {
	d := DefaultRouting()
	fix := func(b, fallback Band) Band {
		if p, ok := ParseBand(string(b)); ok {
			return p
		}
		return fallback
	}
	return Routing{
		Pulse:  fix(r.Pulse, d.Pulse),
		Motion: fix(r.Motion, d.Motion),
		Color:  fix(r.Color, d.Color),
	}
}
