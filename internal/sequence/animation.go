// Package sequence builds lazy frame animations: generators such as Morph and
// Pulse, combinators such as Combine and Repeat, cross-fades and the fluent
// Builder.
//
// An Animation is pulled frame by frame. Animations backed by a frame list,
// a re-runnable iterator or a producer factory are restartable and may be
// traversed any number of times. Animations wrapping a single Producer are
// one-shot: a second traversal yields nothing. Operations that traverse their
// input more than once reject one-shot animations with model.ErrNotRestartable.
package sequence

import (
	"fmt"
	"iter"

	"github.com/coreman2200/lumiseq/model"
)

// Producer returns the next frame, or false once exhausted.
type Producer func() (model.Frame, bool)

// Animation is a lazy, forward-only sequence of frames. An error ends the
// sequence; it is yielded with a nil frame.
type Animation struct {
	seq     iter.Seq2[model.Frame, error]
	oneShot bool
}

// Frames starts a traversal.
func (a Animation) Frames() iter.Seq2[model.Frame, error] {
	if a.seq == nil {
		return func(func(model.Frame, error) bool) {}
	}
	return a.seq
}

// Restartable reports whether the animation can be traversed again.
func (a Animation) Restartable() bool {
	return !a.oneShot
}

// Frames returns a restartable animation over a copy of fs.
func Frames(fs ...model.Frame) Animation {
	own := append([]model.Frame(nil), fs...)
	return Animation{seq: func(yield func(model.Frame, error) bool) {
		for _, f := range own {
			if !yield(f, nil) {
				return
			}
		}
	}}
}

// FromSeq wraps an iterator that produces the same frames every time it is
// ranged over.
func FromSeq(seq iter.Seq[model.Frame]) Animation {
	return Animation{seq: func(yield func(model.Frame, error) bool) {
		for f := range seq {
			if !yield(f, nil) {
				return
			}
		}
	}}
}

// FromFactory creates a restartable animation that asks newProducer for a
// fresh Producer on every traversal.
func FromFactory(newProducer func() Producer) Animation {
	return Animation{seq: func(yield func(model.Frame, error) bool) {
		drain(newProducer(), yield)
	}}
}

// FromProducer wraps a one-shot step function.
func FromProducer(next Producer) Animation {
	return Animation{oneShot: true, seq: func(yield func(model.Frame, error) bool) {
		drain(next, yield)
	}}
}

func drain(next Producer, yield func(model.Frame, error) bool) {
	for {
		f, ok := next()
		if !ok || !yield(f, nil) {
			return
		}
	}
}

// Collect materializes a finite animation.
func Collect(a Animation) ([]model.Frame, error) {
	var out []model.Frame
	for f, err := range a.Frames() {
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Duration sums the frame durations of a finite animation.
func Duration(a Animation) (int, error) {
	total := 0
	for f, err := range a.Frames() {
		if err != nil {
			return total, err
		}
		total += f.Millis()
	}
	return total, nil
}

// RequireRestartable fails with the index of the first one-shot animation.
func RequireRestartable(as ...Animation) error {
	for i, a := range as {
		if !a.Restartable() {
			return fmt.Errorf("%w: sub-animation %d is a one-shot producer, wrap it with FromFactory", model.ErrNotRestartable, i)
		}
	}
	return nil
}

func anyOneShot(as []Animation) bool {
	for _, a := range as {
		if a.oneShot {
			return true
		}
	}
	return false
}

// distribute returns the duration of frame i when total is split over n
// frames so that the durations sum to total exactly.
func distribute(total, n, i int) int {
	return (i+1)*total/n - i*total/n
}
