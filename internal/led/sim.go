package led

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coreman2200/lumiseq/model"
)

// Snapshot is the state of every channel after one sink call.
type Snapshot struct {
	At     time.Time
	Colors []model.RGB
}

// Sim is an in-memory device. It records the full channel state after every
// call and can simulate transfer latency and failures.
type Sim struct {
	// Latency is added to every call.
	Latency time.Duration
	// Err, when set, is returned by every call.
	Err error

	channels int

	mu      sync.Mutex
	current []model.RGB
	history []Snapshot
}

func NewSim(channels int) *Sim {
	return &Sim{channels: channels, current: make([]model.RGB, channels)}
}

func (s *Sim) Channels() int { return s.channels }

func (s *Sim) SetColor(ctx context.Context, c model.RGB) error {
	if err := s.transfer(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.current {
		s.current[i] = c
	}
	s.snapshot()
	return nil
}

func (s *Sim) SetColors(ctx context.Context, offset int, rgb []byte) error {
	if err := checkRange(offset, rgb, s.channels); err != nil {
		return err
	}
	if err := s.transfer(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i+2 < len(rgb); i += 3 {
		s.current[offset+i/3] = model.RGB{R: rgb[i], G: rgb[i+1], B: rgb[i+2]}
	}
	s.snapshot()
	return nil
}

func (s *Sim) transfer(ctx context.Context) error {
	if s.Latency > 0 {
		t := time.NewTimer(s.Latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return s.Err
}

// snapshot must be called with mu held.
func (s *Sim) snapshot() {
	s.history = append(s.history, Snapshot{At: time.Now(), Colors: append([]model.RGB(nil), s.current...)})
}

// Current returns the colour of every channel.
func (s *Sim) Current() []model.RGB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.RGB(nil), s.current...)
}

// History returns every recorded state, oldest first.
func (s *Sim) History() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Snapshot(nil), s.history...)
}

// Reset forgets the recorded history.
func (s *Sim) Reset() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}

func checkRange(offset int, rgb []byte, channels int) error {
	if len(rgb)%3 != 0 {
		return fmt.Errorf("%w: %d bytes is not a whole number of RGB triplets", model.ErrInvalid, len(rgb))
	}
	if offset < 0 || offset+len(rgb)/3 > channels {
		return fmt.Errorf("%w: %d channels at offset %d exceed %d channels", model.ErrInvalid, len(rgb)/3, offset, channels)
	}
	return nil
}
