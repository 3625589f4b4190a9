package sequence

import (
	"github.com/coreman2200/lumiseq/model"
)

// MinFrameMs is the shortest frame a generator may produce. Devices cannot
// sustain more than 100 updates per second.
const MinFrameMs = 10

// DefaultSteps picks a step count giving frames of roughly frameMs.
func DefaultSteps(overMs, frameMs int) int {
	if frameMs <= 0 {
		frameMs = MinFrameMs
	}
	if s := overMs / frameMs; s > 0 {
		return s
	}
	return 1
}

func checkSteps(steps int) error {
	if steps <= 0 {
		return model.Invalidf("steps must be greater than 0, got %d", steps)
	}
	return nil
}

func checkFrameRate(totalMs, steps int) error {
	if float64(totalMs)/float64(steps) < MinFrameMs {
		return model.Invalidf("frame rate too high: %dms over %d steps is below %dms per frame", totalMs, steps, MinFrameMs)
	}
	return nil
}

// Still holds one colour.
func Still(c model.RGB, ms int) Animation {
	return Frames(model.Simple{Color: c, Ms: max(ms, 0)})
}

// Morph produces steps intermediate colours between from and to, excluding
// both endpoints, over totalMs.
func Morph(from, to model.RGB, totalMs, steps int) (Animation, error) {
	return MorphEased(from, to, totalMs, steps, Linear)
}

// MorphEased is Morph with the interpolation ratio shaped by ease.
func MorphEased(from, to model.RGB, totalMs, steps int, ease Ease) (Animation, error) {
	if err := checkSteps(steps); err != nil {
		return Animation{}, err
	}
	if err := checkFrameRate(totalMs, steps); err != nil {
		return Animation{}, err
	}
	if !ease.Valid() {
		return Animation{}, model.Invalidf("unknown ease %q", ease)
	}
	return Animation{seq: func(yield func(model.Frame, error) bool) {
		for i := 0; i < steps; i++ {
			ratio := ease.Apply(float64(i+1) / float64(steps+1))
			f := model.Simple{Color: from.Lerp(to, ratio), Ms: distribute(totalMs, steps, i)}
			if !yield(f, nil) {
				return
			}
		}
	}}, nil
}

// Pulse ramps c up from black and back down in 2*steps frames of
// totalMs/(2*steps) each.
func Pulse(c model.RGB, totalMs, steps int) (Animation, error) {
	if err := checkSteps(steps); err != nil {
		return Animation{}, err
	}
	if err := checkFrameRate(totalMs, steps); err != nil {
		return Animation{}, err
	}
	ms := totalMs / (2 * steps)
	level := func(i int) model.Frame {
		return model.Simple{Color: c.Scale(float64(i) / float64(steps)), Ms: ms}
	}
	return Animation{seq: func(yield func(model.Frame, error) bool) {
		for i := 0; i < steps; i++ {
			if !yield(level(i), nil) {
				return
			}
		}
		for i := steps - 1; i >= 0; i-- {
			if !yield(level(i), nil) {
				return
			}
		}
	}}, nil
}

// MorphMany walks through colors in order. Steps are split evenly across the
// len(colors)-1 segments and any remainder goes to the last segment. Each
// segment starts on its first colour and lands on its last.
func MorphMany(colors []model.RGB, totalMs, steps int) (Animation, error) {
	if len(colors) < 2 {
		return Animation{}, model.Invalidf("morph needs at least two colours, got %d", len(colors))
	}
	if err := checkSteps(steps); err != nil {
		return Animation{}, err
	}
	if err := checkFrameRate(totalMs, steps); err != nil {
		return Animation{}, err
	}
	segments := len(colors) - 1
	if steps < segments {
		return Animation{}, model.Invalidf("%d steps cannot cover %d segments", steps, segments)
	}
	stops := append([]model.RGB(nil), colors...)
	base := steps / segments
	remainder := steps - base*segments

	return Animation{seq: func(yield func(model.Frame, error) bool) {
		n := 0
		for s := 0; s < segments; s++ {
			from, to := stops[s], stops[s+1]
			segSteps := base
			if s == segments-1 {
				segSteps += remainder
			}
			for j := 0; j < segSteps; j++ {
				ratio := 0.0
				if segSteps > 1 {
					ratio = float64(j) / float64(segSteps-1)
				}
				f := model.Simple{Color: roundLerp(from, to, ratio), Ms: distribute(totalMs, steps, n)}
				n++
				if !yield(f, nil) {
					return
				}
			}
		}
	}}, nil
}

func roundLerp(a, b model.RGB, ratio float64) model.RGB {
	r := func(x, y uint8) uint8 {
		fx := float64(x)
		return model.Clamp(fx + (float64(y)-fx)*ratio + 0.5)
	}
	return model.RGB{R: r(a.R, b.R), G: r(a.G, b.G), B: r(a.B, b.B)}
}
