package sequence

// Ease shapes interpolation progress.
type Ease string

const (
	Linear Ease = "linear"
	// Smooth is the classic smoothstep 3x^2 - 2x^3.
	Smooth Ease = "smooth"
	// Cubic is smootherstep 6x^5 - 15x^4 + 10x^3.
	Cubic Ease = "cubic"
)

// Apply maps x in [0,1] through the easing curve. Unknown curves are linear.
func (e Ease) Apply(x float64) float64 {
	x = clamp01(x)
	switch e {
	case Smooth:
		return x * x * (3 - 2*x)
	case Cubic:
		return x * x * x * (x*(x*6-15) + 10)
	default:
		return x
	}
}

// Valid reports whether e names a known curve. The empty string is linear.
func (e Ease) Valid() bool {
	switch e {
	case "", Linear, Smooth, Cubic:
		return true
	}
	return false
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
