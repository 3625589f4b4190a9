// Package program loads animation programs written in YAML or JSON and
// compiles them into sequence animations.
package program

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/lumiseq/internal/multiplex"
	"github.com/coreman2200/lumiseq/internal/sequence"
	"github.com/coreman2200/lumiseq/model"
)

// Load reads a program from path. Files ending in .json are decoded as JSON,
// anything else as YAML.
func Load(path string) (*Program, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(b, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a program from b.
func Parse(b []byte, isJSON bool) (*Program, error) {
	var p Program
	var err error
	if isJSON {
		err = json.Unmarshal(b, &p)
	} else {
		err = yaml.Unmarshal(b, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("parse program: %w", err)
	}
	if p.Version == "" {
		p.Version = Version
	}
	if p.Version != Version {
		return nil, fmt.Errorf("unsupported program version %q", p.Version)
	}
	return &p, nil
}

// Compile turns p into an animation for a device with channels channels.
func Compile(p *Program, channels int) (sequence.Animation, error) {
	if channels <= 0 {
		return sequence.Animation{}, model.Invalidf("channel count must be greater than 0, got %d", channels)
	}
	if p.Repeat < 0 || p.MaxFps < 0 {
		return sequence.Animation{}, model.Invalidf("repeat and max_fps must not be negative")
	}
	b, err := build(p.Steps, channels)
	if err != nil {
		return sequence.Animation{}, err
	}
	switch {
	case p.Loop:
		b.Repeat(sequence.Forever)
	case p.Repeat > 1:
		b.Repeat(p.Repeat)
	}
	a, err := b.Build()
	if err != nil {
		return sequence.Animation{}, err
	}
	if p.MaxFps > 0 {
		return sequence.SmoothFps(a, p.MaxFps)
	}
	return a, nil
}

func build(steps []Step, channels int) (*sequence.Builder, error) {
	if len(steps) == 0 {
		return nil, model.Invalidf("program has no steps")
	}
	b := sequence.NewBuilder()
	for i, s := range steps {
		if err := addStep(b, s, channels); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return b, nil
}

func compileSteps(steps []Step, channels int) (sequence.Animation, error) {
	b, err := build(steps, channels)
	if err != nil {
		return sequence.Animation{}, err
	}
	return b.Build()
}

func kinds(s Step) int {
	n := 0
	for _, set := range []bool{
		s.Still != nil, s.Wait != nil, s.Morph != nil, s.Pulse != nil,
		s.MorphMany != nil, s.FadeTo != nil, s.Wave != nil, s.Pattern != nil,
		s.Repeat != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

func addStep(b *sequence.Builder, s Step, channels int) error {
	if n := kinds(s); n != 1 {
		return model.Invalidf("a step needs exactly one kind, got %d", n)
	}
	switch {
	case s.Still != nil:
		if s.Still.Ms < 0 {
			return model.Invalidf("still duration must not be negative, got %d", s.Still.Ms)
		}
		b.Still(s.Still.Color.RGB(), s.Still.Ms)
	case s.Wait != nil:
		if s.Wait.Ms < 0 {
			return model.Invalidf("wait duration must not be negative, got %d", s.Wait.Ms)
		}
		b.Wait(s.Wait.Ms)
	case s.Morph != nil:
		m := s.Morph
		ease := sequence.Ease(m.Ease)
		if !ease.Valid() {
			return model.Invalidf("unknown ease %q", m.Ease)
		}
		if ease == "" || ease == sequence.Linear {
			b.Morph(m.From.RGB(), m.To.RGB(), m.Ms, m.Steps)
			break
		}
		steps := m.Steps
		if steps <= 0 {
			steps = sequence.DefaultSteps(m.Ms, sequence.CrossFadeFrameMs)
		}
		a, err := sequence.MorphEased(m.From.RGB(), m.To.RGB(), m.Ms, steps, ease)
		if err != nil {
			return err
		}
		b.Append(a)
	case s.Pulse != nil:
		b.Pulse(s.Pulse.Color.RGB(), s.Pulse.Ms, s.Pulse.Steps)
	case s.MorphMany != nil:
		colors := make([]model.RGB, len(s.MorphMany.Colors))
		for i, c := range s.MorphMany.Colors {
			colors[i] = c.RGB()
		}
		b.MorphMany(colors, s.MorphMany.Ms, s.MorphMany.Steps)
	case s.FadeTo != nil:
		if b.Len() == 0 {
			return model.Invalidf("fade_to needs a step before it")
		}
		b.MorphToColor(s.FadeTo.Color.RGB(), s.FadeTo.Ms)
	case s.Wave != nil:
		src, err := compileSteps(s.Wave.Steps, channels)
		if err != nil {
			return fmt.Errorf("wave: %w", err)
		}
		a, err := multiplex.Wave(src, multiplex.WaveOptions{
			Channels: channels,
			LagMs:    s.Wave.LagMs,
			Fill:     s.Wave.Fill.RGB(),
		})
		if err != nil {
			return fmt.Errorf("wave: %w", err)
		}
		b.Append(a)
	case s.Pattern != nil:
		a, err := NewPattern(PatternKind(s.Pattern.Name), channels, s.Pattern.Ms)
		if err != nil {
			return err
		}
		b.Append(a)
	case s.Repeat != nil:
		if s.Repeat.Times < 1 {
			return model.Invalidf("repeat times must be at least 1, got %d", s.Repeat.Times)
		}
		inner, err := compileSteps(s.Repeat.Steps, channels)
		if err != nil {
			return fmt.Errorf("repeat: %w", err)
		}
		a, err := sequence.Repeat(inner, s.Repeat.Times)
		if err != nil {
			return err
		}
		b.Append(a)
	}
	return b.Err()
}
