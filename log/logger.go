package log

import "sync/atomic"

// Logger defines the interface for a logging component, providing methods
// for structured logging at various levels.
type Logger interface {
	Name() string
	Trace() *LogEvent
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	Fatal() *LogEvent
	OnEventEnd(e *LogEvent)
}

// DefaultLoggerName is the name of the handle behind the package-level functions.
const DefaultLoggerName = "lumber"

var _defaultLogger atomic.Pointer[Handle]

func init() {
	_ = Initialize(nil)
}

// Initialize replaces the default logger with the "lumber" handle of a new
// registry built from cfg. If cfg is nil, the default configuration is used.
func Initialize(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	h, err := NewRegistry(cfg).FindOrCreate(DefaultLoggerName)
	if err != nil {
		return err
	}
	SetDefaultLogger(h)
	return nil
}

// SetDefaultLogger replaces the handle used by the package-level functions.
func SetDefaultLogger(h *Handle) {
	_defaultLogger.Store(h)
}

// Default returns the handle used by the package-level functions.
func Default() *Handle {
	return _defaultLogger.Load()
}

// Refresh flushes every sink of the default logger's registry.
func Refresh() error {
	return Default().registry.Refresh()
}

// Close flushes and closes every sink of the default logger's registry.
func Close() error {
	return Default().registry.Close()
}

// Trace creates a trace-level event on the default logger.
func Trace() *LogEvent {
	return Default().logAt(TraceLevel)
}

// Debug creates a debug-level event on the default logger.
func Debug() *LogEvent {
	return Default().logAt(DebugLevel)
}

// Info creates an info-level event on the default logger.
func Info() *LogEvent {
	return Default().logAt(InfoLevel)
}

// Warn creates a warn-level event on the default logger.
func Warn() *LogEvent {
	return Default().logAt(WarnLevel)
}

// Error creates an error-level event on the default logger.
func Error() *LogEvent {
	return Default().logAt(ErrorLevel)
}

// Fatal creates a fatal-level event on the default logger.
func Fatal() *LogEvent {
	return Default().logAt(FatalLevel)
}
