package sequence

import (
	"fmt"
	"math"

	"github.com/coreman2200/lumiseq/model"
)

// Forever repeats an animation until its consumer stops pulling. Only a
// cancellable consumer such as the runner should drive it.
const Forever = math.MaxInt

// Combine plays animations back to back.
func Combine(as ...Animation) (Animation, error) {
	if len(as) == 0 {
		return Animation{}, model.Invalidf("combine needs at least one animation")
	}
	own := append([]Animation(nil), as...)
	return Animation{oneShot: anyOneShot(own), seq: func(yield func(model.Frame, error) bool) {
		for _, a := range own {
			for f, err := range a.Frames() {
				if !yield(f, err) || err != nil {
					return
				}
			}
		}
	}}, nil
}

// Repeat plays a times times, or without end when times is Forever. More
// than one pass requires a restartable animation. Forever stops after a pass
// that takes no time.
func Repeat(a Animation, times int) (Animation, error) {
	if times <= 0 {
		return Animation{}, model.Invalidf("times must be greater than 0, got %d", times)
	}
	if times == 1 {
		return a, nil
	}
	if !a.Restartable() {
		return Animation{}, fmt.Errorf("%w: repeat needs a factory-backed animation", model.ErrNotRestartable)
	}
	return Animation{seq: func(yield func(model.Frame, error) bool) {
		for i := 0; times == Forever || i < times; i++ {
			n, ms := 0, 0
			for f, err := range a.Frames() {
				if !yield(f, err) || err != nil {
					return
				}
				n++
				ms += f.Millis()
			}
			if n == 0 || (times == Forever && ms == 0) {
				// nothing to repeat
				return
			}
		}
	}}, nil
}

// LimitDuration cuts a after maxMs. The frame crossing the limit is
// shortened to end exactly on it.
func LimitDuration(a Animation, maxMs int) (Animation, error) {
	if maxMs <= 0 {
		return Animation{}, model.Invalidf("maximum duration must be greater than 0, got %d", maxMs)
	}
	return Animation{oneShot: a.oneShot, seq: func(yield func(model.Frame, error) bool) {
		elapsed := 0
		for f, err := range a.Frames() {
			if err != nil {
				yield(nil, err)
				return
			}
			ms := f.Millis()
			if elapsed+ms >= maxMs {
				yield(f.WithMillis(maxMs-elapsed), nil)
				return
			}
			if !yield(f, nil) {
				return
			}
			elapsed += ms
		}
	}}, nil
}

// TransformEachFrame maps every frame through fn.
func TransformEachFrame(a Animation, fn func(model.Frame) model.Frame) Animation {
	return Animation{oneShot: a.oneShot, seq: func(yield func(model.Frame, error) bool) {
		for f, err := range a.Frames() {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(fn(f), nil) {
				return
			}
		}
	}}
}
