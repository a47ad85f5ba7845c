package keyframe

// Easing names understood by Ease.
const (
	Linear    = "linear"
	EaseIn    = "easeIn"
	EaseOut   = "easeOut"
	EaseInOut = "easeInOut"
	Bounce    = "bounce"
)

// Ease maps t in [0,1] through the named easing curve. Unknown names are
// linear; t is clamped first.
func Ease(name string, t float64) float64 {
	t = clamp01(t)
	switch name {
	case EaseIn:
		return t * t
	case EaseOut:
		return t * (2 - t)
	case EaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	case Bounce:
		return bounce(t)
	default:
		return t
	}
}

func bounce(t float64) float64 {
	const n1, d1 = 7.5625, 2.75
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}
