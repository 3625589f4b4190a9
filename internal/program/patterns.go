package program

import (
	"github.com/coreman2200/lumiseq/internal/sequence"
	"github.com/coreman2200/lumiseq/model"
)

// PatternKind names a built-in test pattern.
type PatternKind string

const (
	// IndexSweep lights one channel at a time in white, in channel order.
	IndexSweep PatternKind = "index_sweep"
	// RGBChannels shows all channels red, then green, then blue.
	RGBChannels PatternKind = "rgb_channels"
)

type patternStepper struct {
	kind     PatternKind
	channels int
	ms       int
	step     int
}

// next returns false when the pattern is complete.
func (p *patternStepper) next() (model.Frame, bool) {
	colors := make([]model.RGB, p.channels)
	switch p.kind {
	case IndexSweep:
		if p.step >= p.channels {
			return nil, false
		}
		colors[p.step] = model.White
	case RGBChannels:
		if p.step >= 3 {
			return nil, false
		}
		c := [3]model.RGB{model.Red, model.Green, model.Blue}[p.step]
		for i := range colors {
			colors[i] = c
		}
	default:
		return nil, false
	}
	p.step++
	return model.Complex{Colors: colors, Ms: p.ms}, true
}

// NewPattern builds a restartable test pattern for a device with channels
// channels, holding each frame for ms.
func NewPattern(kind PatternKind, channels, ms int) (sequence.Animation, error) {
	switch kind {
	case IndexSweep, RGBChannels:
	default:
		return sequence.Animation{}, model.Invalidf("unknown pattern %q", kind)
	}
	if channels <= 0 {
		return sequence.Animation{}, model.Invalidf("channel count must be greater than 0, got %d", channels)
	}
	if ms < sequence.MinFrameMs {
		return sequence.Animation{}, model.Invalidf("pattern frames must last at least %dms, got %d", sequence.MinFrameMs, ms)
	}
	return sequence.FromFactory(func() sequence.Producer {
		p := &patternStepper{kind: kind, channels: channels, ms: ms}
		return p.next
	}), nil
}
