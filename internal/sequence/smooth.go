package sequence

import (
	"iter"
	"math"

	"github.com/coreman2200/lumiseq/model"
)

type pending struct {
	frame     model.Frame
	remaining int
}

// SmoothFps caps a to maxFps. Output slices last ceil(1000/maxFps) ms, the
// last one carries the remainder, so the total duration is unchanged. Each
// slice shows the duration-weighted average of the source colours it covers;
// Wait frames count as the colours shown before them.
func SmoothFps(a Animation, maxFps int) (Animation, error) {
	if maxFps <= 0 {
		return Animation{}, model.Invalidf("maxFps must be greater than 0, got %d", maxFps)
	}
	slice := int(math.Ceil(1000 / float64(maxFps)))

	return Animation{oneShot: a.oneShot, seq: func(yield func(model.Frame, error) bool) {
		next, stop := iter.Pull2(a.Frames())
		defer stop()

		var (
			queue    []pending
			queued   int
			done     bool
			last     []model.RGB
			channels int
		)
		for {
			for !done && queued < slice {
				f, err, ok := next()
				if !ok {
					done = true
					break
				}
				if err != nil {
					yield(nil, err)
					return
				}
				if c, ok := f.(model.Complex); ok {
					channels = len(c.Colors)
				}
				queue = append(queue, pending{frame: f, remaining: f.Millis()})
				queued += f.Millis()
			}
			if queued == 0 {
				if done {
					return
				}
				continue
			}

			span := slice
			if queued < slice {
				span = queued
			}
			n := channels
			if n == 0 {
				n = max(len(last), 1)
			}
			if !yield(average(queue, span, last, n), nil) {
				return
			}

			// consume span from the queue
			for span > 0 && len(queue) > 0 {
				head := &queue[0]
				if head.remaining > span {
					head.remaining -= span
					queued -= span
					break
				}
				span -= head.remaining
				queued -= head.remaining
				last = coloursOf(head.frame, last)
				queue = queue[1:]
			}
			// zero length frames at the head no longer occupy time
			for len(queue) > 0 && queue[0].remaining == 0 {
				last = coloursOf(queue[0].frame, last)
				queue = queue[1:]
			}
		}
	}}, nil
}

func average(queue []pending, span int, last []model.RGB, channels int) model.Frame {
	sums := make([][3]float64, channels)
	cur := last
	need := span
	for _, p := range queue {
		if need <= 0 {
			break
		}
		take := min(p.remaining, need)
		cur = coloursOf(p.frame, cur)
		w := float64(take)
		for ch := range sums {
			c := pick(cur, ch)
			sums[ch][0] += float64(c.R) * w
			sums[ch][1] += float64(c.G) * w
			sums[ch][2] += float64(c.B) * w
		}
		need -= take
	}

	colors := make([]model.RGB, channels)
	uniform := true
	d := float64(span)
	for ch, s := range sums {
		colors[ch] = model.RGB{
			R: model.Clamp(math.Round(s[0] / d)),
			G: model.Clamp(math.Round(s[1] / d)),
			B: model.Clamp(math.Round(s[2] / d)),
		}
		if colors[ch] != colors[0] {
			uniform = false
		}
	}
	if uniform && channels == 1 {
		return model.Simple{Color: colors[0], Ms: span}
	}
	return model.Complex{Colors: colors, Ms: span}
}

// coloursOf is the colour state after f starts, given the state before it.
func coloursOf(f model.Frame, before []model.RGB) []model.RGB {
	switch f := f.(type) {
	case model.Simple:
		return []model.RGB{f.Color}
	case model.Complex:
		return f.Colors
	case model.Wait:
		return before
	default:
		panic("sequence: unknown frame type")
	}
}

func pick(colors []model.RGB, ch int) model.RGB {
	switch {
	case len(colors) == 0:
		return model.Black
	case ch < len(colors):
		return colors[ch]
	default:
		return colors[len(colors)-1]
	}
}
