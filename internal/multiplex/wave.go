// Package multiplex turns independent per-channel timelines of Simple frames
// into one stream of Complex frames.
package multiplex

import (
	"fmt"
	"slices"

	"github.com/coreman2200/lumiseq/internal/sequence"
	"github.com/coreman2200/lumiseq/model"
)

// MinSliceMs is the shortest slice Wave emits on its own. Shorter slices are
// folded into the frame before them.
const MinSliceMs = 10

type WaveOptions struct {
	// Channels is the number of output channels.
	Channels int
	// LagMs delays channel i by i*LagMs.
	LagMs int
	// Fill is shown by a channel before its delayed start.
	Fill model.RGB
}

// Wave plays src on every channel, each one LagMs behind the one before it.
// The output lasts exactly duration(src) + LagMs*(Channels-1).
//
// src is materialized eagerly and must be finite and contain only Simple
// frames.
func Wave(src sequence.Animation, opts WaveOptions) (sequence.Animation, error) {
	if opts.Channels <= 0 {
		return sequence.Animation{}, model.Invalidf("channel count must be greater than 0, got %d", opts.Channels)
	}
	if opts.LagMs < 0 {
		return sequence.Animation{}, model.Invalidf("lag must be greater than or equal to 0, got %d", opts.LagMs)
	}
	track, err := Track(src)
	if err != nil {
		return sequence.Animation{}, err
	}
	if len(track) == 0 {
		return sequence.Frames(), nil
	}

	tracks := make([][]model.Simple, opts.Channels)
	offsets := make([]int, opts.Channels)
	for ch := range tracks {
		tracks[ch] = track
		offsets[ch] = ch * opts.LagMs
	}
	return stitch(tracks, offsets, opts.Fill), nil
}

// WaveChannels stitches one timeline per channel, all starting together.
// Channels that run out keep their last colour; empty channels show fill.
func WaveChannels(tracks [][]model.Simple, fill model.RGB) (sequence.Animation, error) {
	if len(tracks) == 0 {
		return sequence.Animation{}, model.Invalidf("at least one channel timeline is required")
	}
	own := make([][]model.Simple, len(tracks))
	for ch, tr := range tracks {
		own[ch] = slices.Clone(tr)
	}
	return stitch(own, make([]int, len(own)), fill), nil
}

// Track materializes a finite animation of Simple frames.
func Track(a sequence.Animation) ([]model.Simple, error) {
	var out []model.Simple
	for f, err := range a.Frames() {
		if err != nil {
			return nil, err
		}
		s, ok := f.(model.Simple)
		if !ok {
			return nil, fmt.Errorf("%w: channel timelines take simple frames only, got %s", model.ErrInvalid, f)
		}
		out = append(out, s)
	}
	return out, nil
}

func stitch(tracks [][]model.Simple, offsets []int, fill model.RGB) sequence.Animation {
	var instants []int
	for ch, tr := range tracks {
		t := offsets[ch]
		instants = append(instants, t)
		for _, f := range tr {
			t += f.Ms
			instants = append(instants, t)
		}
	}
	slices.Sort(instants)
	instants = slices.Compact(instants)

	return sequence.FromSeq(func(yield func(model.Frame) bool) {
		var (
			prev model.Complex
			have bool
		)
		for i := 0; i+1 < len(instants); i++ {
			t0, t1 := instants[i], instants[i+1]
			colors := make([]model.RGB, len(tracks))
			for ch, tr := range tracks {
				colors[ch] = colourAt(tr, offsets[ch], t0, fill)
			}
			cur := model.Complex{Colors: colors, Ms: t1 - t0}
			switch {
			case !have:
				prev, have = cur, true
			case cur.Ms < MinSliceMs:
				prev.Ms += cur.Ms
			default:
				if !yield(prev) {
					return
				}
				prev = cur
			}
		}
		if have {
			yield(prev)
		}
	})
}

// colourAt is the colour of a channel at t.
func colourAt(track []model.Simple, start, t int, fill model.RGB) model.RGB {
	if t < start || len(track) == 0 {
		return fill
	}
	rel := t - start
	for _, f := range track {
		if rel < f.Ms {
			return f.Color
		}
		rel -= f.Ms
	}
	return track[len(track)-1].Color
}
