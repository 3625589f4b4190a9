package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalid marks every validation failure raised while building or
	// playing an animation.
	ErrInvalid = errors.New("invalid animation")

	// ErrNotRestartable is returned when an operation must traverse a
	// one-shot animation more than once.
	ErrNotRestartable = fmt.Errorf("%w: animation is not restartable", ErrInvalid)
)

// Invalidf formats a validation error that matches ErrInvalid.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
