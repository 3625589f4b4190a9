package model

import (
	"fmt"
	"time"
)

// Frame is one timed instruction for the device. The set of implementations
// is closed: Simple, Complex and Wait.
type Frame interface {
	// Millis is how long the frame is held.
	Millis() int
	// WithMillis returns a copy of the frame with another duration.
	WithMillis(ms int) Frame

	frame()
}

// Simple sets every channel to one colour.
type Simple struct {
	Color RGB
	Ms    int
}

// Complex sets one colour per channel. Colors is never mutated once the
// frame is built.
type Complex struct {
	Colors []RGB
	Ms     int
}

// Wait keeps the current colours.
type Wait struct {
	Ms int
}

// NewSimple truncates ms toward zero; negative durations become 0.
func NewSimple(c RGB, ms float64) Simple {
	return Simple{Color: c, Ms: millis(ms)}
}

// NewComplex copies colors.
func NewComplex(colors []RGB, ms float64) Complex {
	cc := make([]RGB, len(colors))
	copy(cc, colors)
	return Complex{Colors: cc, Ms: millis(ms)}
}

func NewWait(ms float64) Wait {
	return Wait{Ms: millis(ms)}
}

// ComplexFromSimple replicates the colour of s across channels.
func ComplexFromSimple(s Simple, channels int) Complex {
	cc := make([]RGB, channels)
	for i := range cc {
		cc[i] = s.Color
	}
	return Complex{Colors: cc, Ms: s.Ms}
}

func millis(ms float64) int {
	if ms <= 0 {
		return 0
	}
	return int(ms)
}

func (f Simple) Millis() int  { return f.Ms }
func (f Complex) Millis() int { return f.Ms }
func (f Wait) Millis() int    { return f.Ms }

func (f Simple) WithMillis(ms int) Frame {
	f.Ms = ms
	return f
}

func (f Complex) WithMillis(ms int) Frame {
	f.Ms = ms
	return f
}

func (f Wait) WithMillis(ms int) Frame {
	f.Ms = ms
	return f
}

func (Simple) frame()  {}
func (Complex) frame() {}
func (Wait) frame()    {}

func (f Simple) String() string {
	return fmt.Sprintf("Simple(%v, %d)", f.Color, f.Ms)
}

func (f Complex) String() string {
	return fmt.Sprintf("Complex(%v, %d)", f.Colors, f.Ms)
}

func (f Wait) String() string {
	return fmt.Sprintf("Wait(%d)", f.Ms)
}

// Validate checks the frame against a fixed channel count.
func (f Complex) Validate(channels int) error {
	if len(f.Colors) != channels {
		return Invalidf("complex frame has %d colours, device has %d channels", len(f.Colors), channels)
	}
	return nil
}

// Duration converts a frame length into a time.Duration.
func Duration(f Frame) time.Duration {
	return time.Duration(f.Millis()) * time.Millisecond
}

// TotalMillis sums the durations of frames.
func TotalMillis[F Frame](frames []F) int {
	total := 0
	for _, f := range frames {
		total += f.Millis()
	}
	return total
}
