package log

import (
	"errors"
	"fmt"
	"strings"
)

// Level defines the ordered severity vocabulary shared by loggers and sinks.
// Higher values are more severe; a logger or sink passes an event when the
// event's level is greater than or equal to its own level.
type Level int8

// Logging level constants ordered by severity.
const (
	// AllLevel lets every event through. It is the level of a freshly created handle.
	AllLevel Level = iota

	// TraceLevel provides extremely detailed diagnostic information.
	TraceLevel

	// DebugLevel contains debugging information useful during troubleshooting.
	DebugLevel

	// InfoLevel contains general informational messages about normal operation.
	InfoLevel

	// WarnLevel indicates potentially harmful situations that don't prevent operation.
	WarnLevel

	// ErrorLevel indicates serious problems that require attention.
	ErrorLevel

	// FatalLevel represents critical errors that force termination.
	FatalLevel

	// OffLevel silences a logger or sink completely.
	OffLevel
)

// ErrUnknownLevel is returned when a level name is not part of the vocabulary.
var ErrUnknownLevel = errors.New("unknown log level")

var _levelNames = [...]string{
	AllLevel:   "ALL",
	TraceLevel: "TRACE",
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
	FatalLevel: "FATAL",
	OffLevel:   "OFF",
}

// String returns the upper-case name of the level.
func (l Level) String() string {
	if l.Valid() {
		return _levelNames[l]
	}
	return "UNKNOWN"
}

// Valid reports whether l is part of the vocabulary.
func (l Level) Valid() bool {
	return l >= AllLevel && l <= OffLevel
}

// Enabled reports whether an event at level ev passes a threshold of l.
func (l Level) Enabled(ev Level) bool {
	return ev >= l
}

// LevelNames returns the level names in ascending severity order.
func LevelNames() []string {
	names := make([]string, len(_levelNames))
	copy(names, _levelNames[:])
	return names
}

// LookupLevel resolves a case-insensitive level name. Unlike ParseLevel it
// reports unknown names instead of substituting a default, which is what
// operator-supplied input needs.
func LookupLevel(name string) (Level, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "WARNING" {
		upper = "WARN"
	}
	for i, n := range _levelNames {
		if n == upper {
			return Level(i), nil
		}
	}
	return InfoLevel, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
}

// ParseLevel converts a string to a Level with case-insensitive parsing.
// Returns InfoLevel for invalid inputs, ensuring safe defaults in configuration scenarios.
func ParseLevel(levelStr string) Level {
	l, err := LookupLevel(levelStr)
	if err != nil {
		return InfoLevel
	}
	return l
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLevel, l)
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	v, err := LookupLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
