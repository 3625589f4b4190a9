// Package runner plays animations against a frame sink in real time.
package runner

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coreman2200/lumiseq/internal/diagnostics"
	"github.com/coreman2200/lumiseq/internal/sequence"
	"github.com/coreman2200/lumiseq/model"
)

// ErrBusy is returned by Run while another animation is playing.
var ErrBusy = errors.New("runner: already running")

// Sink is the device the runner writes to. Errors are returned to the caller
// of Run unchanged.
type Sink interface {
	// Channels is the fixed number of colour channels of the device.
	Channels() int
	// SetColor sets every channel to c.
	SetColor(ctx context.Context, c model.RGB) error
	// SetColors writes consecutive R,G,B triplets starting at channel offset.
	// rgb is only valid for the duration of the call.
	SetColors(ctx context.Context, offset int, rgb []byte) error
}

// State enumerates runner states.
type State string

const (
	Idle    State = "idle"
	Running State = "running"
)

// DefaultFlickerThreshold is the frame length below which colour frames are
// reported as likely to flicker.
const DefaultFlickerThreshold = 16 * time.Millisecond

// maxLag bounds how far behind schedule the loop tries to catch up. Beyond it
// the schedule is moved forward instead of rushing frames.
const maxLag = 250 * time.Millisecond

// Stats describe the last finished run.
type Stats struct {
	RunID     string
	Frames    int
	Expected  time.Duration
	Actual    time.Duration
	Cancelled bool
}

type Option func(*Runner)

func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithDiagnostics sets where warnings such as short frames go. Pass a shared
// diagnostics.Once to report each warning once per process.
func WithDiagnostics(s diagnostics.Sink) Option {
	return func(r *Runner) { r.diag = s }
}

func WithFlickerThreshold(d time.Duration) Option {
	return func(r *Runner) { r.flicker = d }
}

// WithClock replaces time.Now for timing measurements.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// Runner plays at most one animation at a time on a sink.
type Runner struct {
	sink     Sink
	channels int
	log      zerolog.Logger
	diag     diagnostics.Sink
	flicker  time.Duration
	now      func() time.Time

	// scratch is only touched by the active loop.
	scratch []byte

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
	stats  Stats
}

// New creates a runner for sink. The channel count is read once.
func New(sink Sink, opts ...Option) (*Runner, error) {
	channels := sink.Channels()
	if channels <= 0 {
		return nil, model.Invalidf("sink reports %d channels", channels)
	}
	r := &Runner{
		sink:     sink,
		channels: channels,
		log:      zerolog.Nop(),
		flicker:  DefaultFlickerThreshold,
		now:      time.Now,
		scratch:  make([]byte, channels*3),
		state:    Idle,
	}
	for _, o := range opts {
		o(r)
	}
	if r.diag == nil {
		r.diag = diagnostics.NewOnce(diagnostics.LogSink{Logger: r.log})
	}
	return r, nil
}

// Channels is the channel count of the sink.
func (r *Runner) Channels() int {
	return r.channels
}

func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) Running() bool {
	return r.State() == Running
}

// Stats returns the statistics of the last finished run.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Run plays anims back to back and returns when they end, when ctx is done
// or when Stop is called. It fails with ErrBusy if another run is active.
// Cancellation is not an error.
func (r *Runner) Run(ctx context.Context, anims ...sequence.Animation) error {
	a, err := sequence.Combine(anims...)
	if err != nil {
		return err
	}
	rn, done, err := r.begin(ctx, false)
	if err != nil {
		return err
	}
	return r.play(rn, a, done)
}

// RunNew stops any active run, waits for it to exit and then plays anims
// like Run.
func (r *Runner) RunNew(ctx context.Context, anims ...sequence.Animation) error {
	a, err := sequence.Combine(anims...)
	if err != nil {
		return err
	}
	rn, done, err := r.begin(ctx, true)
	if err != nil {
		return err
	}
	return r.play(rn, a, done)
}

// RunAndForget preempts like RunNew but plays in the background. It returns
// once playback has started. onDone, if set, receives the result.
func (r *Runner) RunAndForget(ctx context.Context, anims []sequence.Animation, onDone func(error)) error {
	a, err := sequence.Combine(anims...)
	if err != nil {
		return err
	}
	rn, done, err := r.begin(ctx, true)
	if err != nil {
		return err
	}
	go func() {
		err := r.play(rn, a, done)
		if onDone != nil {
			onDone(err)
		}
	}()
	return nil
}

// Stop cancels the active run, if any, and waits for it to exit. It must not
// be called from inside a Sink method.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

type run struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// begin moves the runner to Running with a fresh cancellation scope derived
// from parent.
func (r *Runner) begin(parent context.Context, preempt bool) (run, chan struct{}, error) {
	r.mu.Lock()
	for r.state == Running {
		if !preempt {
			r.mu.Unlock()
			return run{}, nil, ErrBusy
		}
		cancel, done := r.cancel, r.done
		r.mu.Unlock()
		cancel()
		<-done
		r.mu.Lock()
	}
	defer r.mu.Unlock()

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	r.state = Running
	r.cancel = cancel
	r.done = done
	return run{ctx: ctx, cancel: cancel}, done, nil
}

func (r *Runner) finish(rn run, done chan struct{}, stats Stats) {
	rn.cancel()
	r.mu.Lock()
	r.state = Idle
	r.cancel = nil
	r.done = nil
	r.stats = stats
	close(done)
	r.mu.Unlock()
}

func (r *Runner) play(rn run, a sequence.Animation, done chan struct{}) error {
	stats := Stats{RunID: uuid.New().String()}
	log := r.log.With().Str("run_id", stats.RunID).Logger()
	log.Debug().Int("channels", r.channels).Msg("run started")

	err := r.loop(rn.ctx, a, &stats)
	if err != nil {
		log.Error().Err(err).Int("frames", stats.Frames).Msg("run failed")
	} else {
		log.Debug().
			Int("frames", stats.Frames).
			Dur("expected", stats.Expected).
			Dur("actual", stats.Actual).
			Bool("cancelled", stats.Cancelled).
			Msg("run finished")
	}
	r.finish(rn, done, stats)
	return err
}

func (r *Runner) loop(ctx context.Context, a sequence.Animation, stats *Stats) error {
	origin := r.now()
	start := origin
	var expected time.Duration
	for f, err := range a.Frames() {
		if ctx.Err() != nil {
			stats.Cancelled = true
			break
		}
		if err != nil {
			return err
		}

		if err := r.dispatch(ctx, f); err != nil {
			// the write was interrupted by Stop, preemption or the caller
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				stats.Cancelled = true
				break
			}
			return err
		}
		d := model.Duration(f)
		stats.Frames++
		r.checkFlicker(f, d)

		// Sleep until the frame's scheduled end. Hardware latency and
		// earlier oversleeping are both absorbed here.
		expected += d
		wait := start.Add(expected).Sub(r.now())
		if wait < -maxLag {
			start = start.Add(-wait - maxLag)
		}
		if wait > 0 {
			if err := sleep(ctx, wait); err != nil {
				stats.Cancelled = true
				break
			}
		} else {
			runtime.Gosched()
		}
	}
	stats.Expected = expected
	stats.Actual = r.now().Sub(origin)
	return nil
}

func (r *Runner) dispatch(ctx context.Context, f model.Frame) error {
	switch f := f.(type) {
	case model.Simple:
		return r.sink.SetColor(ctx, f.Color)
	case model.Complex:
		if err := f.Validate(r.channels); err != nil {
			return err
		}
		return r.sink.SetColors(ctx, 0, model.PackRGB(r.scratch, f.Colors))
	case model.Wait:
		return nil
	default:
		panic("runner: unknown frame type")
	}
}

func (r *Runner) checkFlicker(f model.Frame, d time.Duration) {
	if _, ok := f.(model.Wait); ok || d >= r.flicker {
		return
	}
	r.diag.Report(diagnostics.Diagnostic{
		Severity: diagnostics.Warn,
		Code:     "frame_too_short",
		Summary:  "colour frames shorter than the flicker threshold may flicker",
		LikelyCauses: []string{
			"animation steps too dense for its duration",
		},
		SuggestedFixes: []string{
			"use fewer steps or cap the output with max_fps",
		},
		Evidence: map[string]any{
			"frame_ms":     f.Millis(),
			"threshold_ms": r.flicker.Milliseconds(),
		},
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
