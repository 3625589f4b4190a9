// Package post holds per-frame output stages applied between an animation
// and the device: brightness, a per-channel white cap and a global current
// budget.
package post

import (
	"math"
	"sync/atomic"

	"github.com/coreman2200/lumiseq/internal/sequence"
	"github.com/coreman2200/lumiseq/model"
)

// Stage maps one frame. Wait frames pass through unchanged.
type Stage func(model.Frame) model.Frame

// Apply runs every frame of a through s.
func Apply(a sequence.Animation, s Stage) sequence.Animation {
	if s == nil {
		return a
	}
	return sequence.TransformEachFrame(a, s)
}

// Chain runs stages in order. Nil stages are skipped.
func Chain(stages ...Stage) Stage {
	var own []Stage
	for _, s := range stages {
		if s != nil {
			own = append(own, s)
		}
	}
	return func(f model.Frame) model.Frame {
		for _, s := range own {
			f = s(f)
		}
		return f
	}
}

func mapColors(f model.Frame, fn func(model.RGB) model.RGB) model.Frame {
	switch f := f.(type) {
	case model.Simple:
		return model.Simple{Color: fn(f.Color), Ms: f.Ms}
	case model.Complex:
		colors := make([]model.RGB, len(f.Colors))
		for i, c := range f.Colors {
			colors[i] = fn(c)
		}
		return model.Complex{Colors: colors, Ms: f.Ms}
	default:
		return f
	}
}

// Brightness scales every colour by level in [0,1].
func Brightness(level float64) Stage {
	level = clamp01(level)
	return func(f model.Frame) model.Frame {
		if level == 1 {
			return f
		}
		return mapColors(f, func(c model.RGB) model.RGB { return c.Scale(level) })
	}
}

// Dimmer is a brightness stage whose level can change during playback.
type Dimmer struct {
	bits atomic.Uint64
}

func NewDimmer(level float64) *Dimmer {
	d := &Dimmer{}
	d.Set(level)
	return d
}

func (d *Dimmer) Set(level float64) {
	d.bits.Store(math.Float64bits(clamp01(level)))
}

func (d *Dimmer) Level() float64 {
	return math.Float64frombits(d.bits.Load())
}

func (d *Dimmer) Stage() Stage {
	return func(f model.Frame) model.Frame {
		return Brightness(d.Level())(f)
	}
}

// WhiteCap scales each channel so that R+G+B stays below whiteCap*3*255. A cap
// outside (0,1) disables it.
func WhiteCap(whiteCap float64) Stage {
	if whiteCap <= 0 || whiteCap >= 1 {
		return func(f model.Frame) model.Frame { return f }
	}
	limit := whiteCap * 3 * 255
	return func(f model.Frame) model.Frame {
		return mapColors(f, func(c model.RGB) model.RGB {
			s := float64(c.Sum())
			if s <= limit {
				return c
			}
			scale := limit / s
			return model.RGB{
				R: uint8(math.Round(float64(c.R) * scale)),
				G: uint8(math.Round(float64(c.G) * scale)),
				B: uint8(math.Round(float64(c.B) * scale)),
			}
		})
	}
}

// Power describes the current draw of the device.
type Power struct {
	Channels int
	// ChanMA is the draw of one colour component at full scale. WS2812 ≈ 20.
	ChanMA float64
	// BudgetMA is the allowed total draw. Zero disables the limit.
	BudgetMA float64
	// Knee is the fraction of the budget where soft limiting begins.
	Knee float64
}

// EstimateMA is the current drawn while f is shown.
func (p Power) EstimateMA(f model.Frame) float64 {
	chanMA := p.ChanMA
	if chanMA <= 0 {
		chanMA = 20
	}
	sum := 0
	switch f := f.(type) {
	case model.Simple:
		sum = f.Color.Sum() * p.Channels
	case model.Complex:
		for _, c := range f.Colors {
			sum += c.Sum()
		}
	}
	return float64(sum) / 255 * chanMA
}

// Budget scales whole frames down so their estimated draw stays within the
// budget. Above Knee*BudgetMA the draw is compressed smoothly towards the
// budget instead of being clipped.
func Budget(p Power) Stage {
	if p.BudgetMA <= 0 {
		return func(f model.Frame) model.Frame { return f }
	}
	knee := p.Knee
	if knee <= 0 || knee >= 1 {
		knee = 0.9
	}
	soft := knee * p.BudgetMA
	span := p.BudgetMA - soft
	return func(f model.Frame) model.Frame {
		total := p.EstimateMA(f)
		if total <= soft {
			return f
		}
		out := soft + span*(1-math.Exp(-(total-soft)/span))
		scale := out / total
		return mapColors(f, func(c model.RGB) model.RGB { return c.Scale(scale) })
	}
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
