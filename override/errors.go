package override

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLevel is returned when a mapping names an unknown level.
	ErrInvalidLevel = errors.New("invalid level")
	// ErrEmptyTarget is returned when a mapping contains an empty target name.
	ErrEmptyTarget = errors.New("empty target name")
	// ErrInvalidTarget is returned when a target is neither a sink nor a
	// well-formed logger name.
	ErrInvalidTarget = errors.New("invalid target name")
	// ErrStoreUnavailable is returned when the override store cannot be read
	// or written.
	ErrStoreUnavailable = errors.New("override store unavailable")
	// ErrPollerRunning is returned by Start on a running poller.
	ErrPollerRunning = errors.New("poller already running")
)

// LevelError identifies the mapping entry rejected by SetLevels.
type LevelError struct {
	Target string
	Level  string
}

func (e *LevelError) Error() string {
	return fmt.Sprintf("%s: %q for target %q", ErrInvalidLevel, e.Level, e.Target)
}

// Unwrap lets errors.Is match ErrInvalidLevel.
func (e *LevelError) Unwrap() error {
	return ErrInvalidLevel
}

// TargetError identifies a malformed logger target rejected by SetLevels.
type TargetError struct {
	Target string
	Err    error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrInvalidTarget, e.Target, e.Err)
}

// Unwrap lets errors.Is match ErrInvalidTarget.
func (e *TargetError) Unwrap() error {
	return ErrInvalidTarget
}
