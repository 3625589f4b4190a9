package sequence

import (
	"github.com/coreman2200/lumiseq/model"
)

// CrossFadeFrameMs is the default frame length of a cross-fade, about 30fps.
const CrossFadeFrameMs = 33

// CrossFade is MorphComplex with a default step count.
func CrossFade(source, target Animation, overMs int) (Animation, error) {
	return MorphComplex(source, target, overMs, DefaultSteps(overMs, CrossFadeFrameMs))
}

// MorphComplex replays source, then bridges its last colour frame to the
// first frame of target with steps interpolated frames over overMs, then
// replays target.
//
// Failures that depend on the content of source or target (no colour frame
// in source, empty target, target starting with a Wait, channel count
// mismatch) are reported in-band once the source is exhausted.
func MorphComplex(source, target Animation, overMs, steps int) (Animation, error) {
	if err := checkSteps(steps); err != nil {
		return Animation{}, err
	}
	if err := checkFrameRate(overMs, steps); err != nil {
		return Animation{}, err
	}
	oneShot := source.oneShot || target.oneShot
	return Animation{oneShot: oneShot, seq: func(yield func(model.Frame, error) bool) {
		var anchor model.Frame
		for f, err := range source.Frames() {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(f, nil) {
				return
			}
			if _, ok := f.(model.Wait); !ok {
				anchor = f
			}
		}
		if anchor == nil {
			yield(nil, model.Invalidf("cross-fade source has no colour frame"))
			return
		}

		head := true
		for f, err := range target.Frames() {
			if err != nil {
				yield(nil, err)
				return
			}
			if head {
				head = false
				bridge, err := bridgeFrames(anchor, f, overMs, steps)
				if err != nil {
					yield(nil, err)
					return
				}
				for b, err := range bridge.Frames() {
					if !yield(b, err) || err != nil {
						return
					}
				}
			}
			if !yield(f, nil) {
				return
			}
		}
		if head {
			yield(nil, model.Invalidf("cross-fade target is empty"))
		}
	}}, nil
}

func bridgeFrames(anchor, head model.Frame, overMs, steps int) (Animation, error) {
	if _, ok := head.(model.Wait); ok {
		return Animation{}, model.Invalidf("cannot cross-fade into a wait frame")
	}
	from, fromSimple := anchor.(model.Simple)
	to, toSimple := head.(model.Simple)
	if fromSimple && toSimple {
		return Morph(from.Color, to.Color, overMs, steps)
	}

	channels := 0
	if c, ok := anchor.(model.Complex); ok {
		channels = len(c.Colors)
	}
	if c, ok := head.(model.Complex); ok {
		if channels != 0 && channels != len(c.Colors) {
			return Animation{}, model.Invalidf("cannot cross-fade %d channels into %d channels", channels, len(c.Colors))
		}
		channels = len(c.Colors)
	}
	return MorphBetweenComplex(asComplex(anchor, channels), asComplex(head, channels), overMs, steps)
}

func asComplex(f model.Frame, channels int) model.Complex {
	switch f := f.(type) {
	case model.Simple:
		return model.ComplexFromSimple(f, channels)
	case model.Complex:
		return f
	case model.Wait:
		return model.Complex{Colors: make([]model.RGB, channels), Ms: f.Ms}
	default:
		panic("sequence: unknown frame type")
	}
}

// MorphBetweenComplex interpolates every channel independently from from to
// to, excluding both endpoints.
func MorphBetweenComplex(from, to model.Complex, overMs, steps int) (Animation, error) {
	if err := checkSteps(steps); err != nil {
		return Animation{}, err
	}
	if len(from.Colors) != len(to.Colors) {
		return Animation{}, model.Invalidf("cannot morph %d channels into %d channels", len(from.Colors), len(to.Colors))
	}
	return Animation{seq: func(yield func(model.Frame, error) bool) {
		for i := 0; i < steps; i++ {
			progress := float64(i+1) / float64(steps+1)
			colors := make([]model.RGB, len(from.Colors))
			for ch := range colors {
				colors[ch] = from.Colors[ch].Lerp(to.Colors[ch], progress)
			}
			if !yield(model.Complex{Colors: colors, Ms: distribute(overMs, steps, i)}, nil) {
				return
			}
		}
	}}, nil
}
