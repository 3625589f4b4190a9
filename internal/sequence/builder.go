package sequence

import (
	"github.com/coreman2200/lumiseq/model"
)

// PulseFrameMs is the default ramp frame length used by Builder.Pulse.
const PulseFrameMs = 34

// Builder assembles an animation from sub-animations. Like bufio.Writer it
// keeps the first error; later calls become no-ops and Build returns it.
type Builder struct {
	subs []Animation
	err  error
}

func NewBuilder() *Builder {
	return &Builder{}
}

// StartWithBlack starts a builder with ms of black.
func StartWithBlack(ms int) *Builder {
	return NewBuilder().Still(model.Black, ms)
}

// StartWithColor starts a builder holding c for ms.
func StartWithColor(c model.RGB, ms int) *Builder {
	return NewBuilder().Still(c, ms)
}

// Err returns the first error met while building.
func (b *Builder) Err() error {
	return b.err
}

// Len is the number of held sub-animations.
func (b *Builder) Len() int {
	return len(b.subs)
}

func (b *Builder) push(a Animation, err error) *Builder {
	if b.err != nil {
		return b
	}
	if err != nil {
		b.err = err
		return b
	}
	b.subs = append(b.subs, a)
	return b
}

// replace folds every held sub-animation into one through fn. Every held
// sub-animation must be restartable.
func (b *Builder) replace(fn func(all Animation) (Animation, error)) *Builder {
	if b.err != nil {
		return b
	}
	if err := RequireRestartable(b.subs...); err != nil {
		b.err = err
		return b
	}
	all, err := Combine(b.subs...)
	if err != nil {
		b.err = err
		return b
	}
	a, err := fn(all)
	if err != nil {
		b.err = err
		return b
	}
	b.subs = []Animation{a}
	return b
}

// Still holds c for ms.
func (b *Builder) Still(c model.RGB, ms int) *Builder {
	return b.push(Still(c, ms), nil)
}

// AddFrame appends a single frame.
func (b *Builder) AddFrame(f model.Frame) *Builder {
	return b.push(Frames(f), nil)
}

// Wait keeps the current colours for ms.
func (b *Builder) Wait(ms int) *Builder {
	return b.push(Frames(model.Wait{Ms: max(ms, 0)}), nil)
}

// Pulse appends a pulse of c. steps <= 0 picks a default.
func (b *Builder) Pulse(c model.RGB, overMs, steps int) *Builder {
	if steps <= 0 {
		steps = DefaultSteps(overMs, PulseFrameMs)
	}
	return b.push(Pulse(c, overMs, steps))
}

// Morph appends a morph from one colour to another.
func (b *Builder) Morph(from, to model.RGB, overMs, steps int) *Builder {
	if steps <= 0 {
		steps = DefaultSteps(overMs, CrossFadeFrameMs)
	}
	return b.push(Morph(from, to, overMs, steps))
}

// MorphMany appends a multi-stop morph.
func (b *Builder) MorphMany(colors []model.RGB, overMs, steps int) *Builder {
	if steps <= 0 {
		steps = DefaultSteps(overMs, CrossFadeFrameMs)
	}
	return b.push(MorphMany(colors, overMs, steps))
}

// Append adds an animation as-is.
func (b *Builder) Append(a Animation) *Builder {
	return b.push(a, nil)
}

// SmoothTransitionTo appends a with a cross-fade from the current last
// colour into its first frame. steps <= 0 picks a default.
func (b *Builder) SmoothTransitionTo(a Animation, overMs, steps int) *Builder {
	if steps <= 0 {
		steps = DefaultSteps(overMs, CrossFadeFrameMs)
	}
	return b.replace(func(all Animation) (Animation, error) {
		return MorphComplex(all, a, overMs, steps)
	})
}

// MorphToColor cross-fades to c over ms and then holds c for ms.
func (b *Builder) MorphToColor(c model.RGB, ms int) *Builder {
	return b.SmoothTransitionTo(Still(c, ms), ms, 0)
}

// Repeat repeats everything built so far.
func (b *Builder) Repeat(times int) *Builder {
	return b.replace(func(all Animation) (Animation, error) {
		return Repeat(all, times)
	})
}

// TransformEachFrame maps every frame built so far.
func (b *Builder) TransformEachFrame(fn func(model.Frame) model.Frame) *Builder {
	return b.replace(func(all Animation) (Animation, error) {
		return TransformEachFrame(all, fn), nil
	})
}

// Fork copies the builder so both copies can be extended independently.
func (b *Builder) Fork() (*Builder, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := RequireRestartable(b.subs...); err != nil {
		return nil, err
	}
	return &Builder{subs: append([]Animation(nil), b.subs...)}, nil
}

// Build returns the finished animation. Later calls on the builder do not
// affect it.
func (b *Builder) Build() (Animation, error) {
	if b.err != nil {
		return Animation{}, b.err
	}
	if len(b.subs) == 0 {
		return Animation{}, model.Invalidf("no animations to build")
	}
	return Combine(b.subs...)
}
