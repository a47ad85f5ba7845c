package lyrics

import "time"

// DefaultFade is how long a replaced line keeps fading out.
const DefaultFade = 500 * time.Millisecond

// Tracker remembers the line on screen and the one fading out behind it.
// Fades run on the wall clock so they finish even while playback is paused.
type Tracker struct {
	Fade time.Duration

	current   int
	fading    int
	fadeStart time.Time
}

// NewTracker returns a tracker with nothing on screen.
func NewTracker(fade time.Duration) *Tracker {
	t := &Tracker{Fade: fade}
	t.Reset()
	return t
}

// Reset forgets the current and fading lines.
func (t *Tracker) Reset() {
	t.current = -1
	t.fading = -1
	t.fadeStart = time.Time{}
}

// Update records the line active at this frame. A change pushes the previous
// line into the fading slot, replacing any older fade.
func (t *Tracker) Update(active int, now time.Time) {
	if active != t.current {
		if t.current >= 0 {
			t.fading = t.current
			t.fadeStart = now
		}
		t.current = active
	}
	if t.fading >= 0 && (t.fade() <= 0 || now.Sub(t.fadeStart) >= t.fade()) {
		t.fading = -1
	}
	if t.fading == t.current {
		t.fading = -1
	}
}

// Current returns the active line index, or -1.
func (t *Tracker) Current() int { return t.current }

// Fading returns the index of the fading line (or -1) and its opacity.
func (t *Tracker) Fading(now time.Time) (int, float64) {
	if t.fading < 0 {
		return -1, 0
	}
	f := t.fade()
	if f <= 0 {
		return -1, 0
	}
	op := 1 - float64(now.Sub(t.fadeStart))/float64(f)
	if op <= 0 {
		return -1, 0
	}
	if op > 1 {
		op = 1
	}
	return t.fading, op
}

func (t *Tracker) fade() time.Duration {
	if t.Fade < 0 {
		return 0
	}
	return t.Fade
}
