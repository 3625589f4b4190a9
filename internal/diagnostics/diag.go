package diagnostics

import (
	"sync"

	"github.com/rs/zerolog"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Sink receives diagnostics. Implementations must be safe for concurrent use.
type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(d Diagnostic)

func (f SinkFunc) Report(d Diagnostic) { f(d) }

// Discard drops every diagnostic.
var Discard Sink = SinkFunc(func(Diagnostic) {})

// LogSink writes diagnostics to a zerolog logger at the level matching their
// severity.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) Report(d Diagnostic) {
	var ev *zerolog.Event
	switch d.Severity {
	case Err:
		ev = s.Logger.Error()
	case Warn:
		ev = s.Logger.Warn()
	default:
		ev = s.Logger.Info()
	}
	ev = ev.Str("code", d.Code)
	if d.Detail != "" {
		ev = ev.Str("detail", d.Detail)
	}
	if len(d.SuggestedFixes) > 0 {
		ev = ev.Strs("fixes", d.SuggestedFixes)
	}
	if len(d.Evidence) > 0 {
		ev = ev.Fields(d.Evidence)
	}
	ev.Msg(d.Summary)
}

// Once forwards the first diagnostic of each code and drops the rest. The
// process wiring creates one and hands it to everything that should share it.
type Once struct {
	next Sink

	mu   sync.Mutex
	seen map[string]bool
}

func NewOnce(next Sink) *Once {
	if next == nil {
		next = Discard
	}
	return &Once{next: next, seen: map[string]bool{}}
}

func (o *Once) Report(d Diagnostic) {
	o.mu.Lock()
	if o.seen[d.Code] {
		o.mu.Unlock()
		return
	}
	o.seen[d.Code] = true
	o.mu.Unlock()
	o.next.Report(d)
}

// Collector keeps every reported diagnostic in memory, newest last.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Snapshot returns a copy of the collected diagnostics.
func (c *Collector) Snapshot() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.items...)
}

// Tee reports to every sink in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(d Diagnostic) {
		for _, s := range sinks {
			s.Report(d)
		}
	})
}
