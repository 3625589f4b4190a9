package multiplex

import (
	"github.com/coreman2200/lumiseq/internal/sequence"
	"github.com/coreman2200/lumiseq/model"
)

type cursor struct {
	frames     []model.Simple
	index      int
	remaining  int
	atBoundary bool
	frozen     model.RGB
	done       bool
}

func (c *cursor) color() model.RGB {
	if c.done {
		return c.frozen
	}
	return c.frames[c.index].Color
}

// Merge combines per-channel timelines by cutting at frame boundaries. Every
// slice lasts until the next channel frame ends. A channel whose current
// frame started on the previous boundary is cut short and advanced together
// with a channel that ends naturally; only the cut frame is shortened, the
// frame after it keeps its full length. Channels that run out freeze at their
// last colour, empty channels show fill.
//
// Deprecated: the cut rule does not preserve per-channel durations when the
// timelines are out of phase. Use WaveChannels.
func Merge(tracks [][]model.Simple, fill model.RGB) (sequence.Animation, error) {
	if len(tracks) == 0 {
		return sequence.Animation{}, model.Invalidf("at least one channel timeline is required")
	}
	own := make([][]model.Simple, len(tracks))
	for ch, tr := range tracks {
		for _, f := range tr {
			// zero length frames never show
			if f.Ms > 0 {
				own[ch] = append(own[ch], f)
			}
		}
	}

	return sequence.FromSeq(func(yield func(model.Frame) bool) {
		cursors := make([]*cursor, len(own))
		for ch, frames := range own {
			c := &cursor{frames: frames, frozen: fill, done: len(frames) == 0}
			if !c.done {
				c.remaining = frames[0].Ms
				c.atBoundary = true
				c.frozen = frames[len(frames)-1].Color
			}
			cursors[ch] = c
		}

		for {
			step := 0
			for _, c := range cursors {
				if !c.done && (step == 0 || c.remaining < step) {
					step = c.remaining
				}
			}
			if step == 0 {
				return
			}

			colors := make([]model.RGB, len(cursors))
			ended := false
			for ch, c := range cursors {
				colors[ch] = c.color()
				if !c.done && c.remaining == step {
					ended = true
				}
			}
			if !yield(model.Complex{Colors: colors, Ms: step}) {
				return
			}

			for _, c := range cursors {
				if c.done {
					continue
				}
				natural := c.remaining == step
				hasNext := c.index+1 < len(c.frames)
				cut := !natural && c.atBoundary && ended && hasNext
				switch {
				case (natural || cut) && hasNext:
					c.index++
					c.remaining = c.frames[c.index].Ms
					c.atBoundary = true
				case natural:
					c.done = true
					c.atBoundary = false
				default:
					c.remaining -= step
					c.atBoundary = false
				}
			}
		}
	}), nil
}
