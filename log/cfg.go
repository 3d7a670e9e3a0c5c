package log

import "fmt"

// Config controls how a Registry creates and dispatches loggers.
type Config struct {
	// Level is the level of the root handle. New handles inherit the level
	// of their parent at creation time.
	Level Level `mapstructure:"level"`

	// CallerSkip adds frames to skip when capturing caller information, for
	// wrappers around the logging functions.
	CallerSkip int `mapstructure:"callerSkip"`

	// EnabledCallerInfo records file, function and line on every event.
	EnabledCallerInfo bool `mapstructure:"enabledCallerInfo"`

	// ConsoleAppender attaches a "stdout" sink to the root handle.
	ConsoleAppender bool `mapstructure:"consoleAppender"`

	// Silencer enables Handle.Silence. When false Silence runs its function
	// without touching the level.
	Silencer bool `mapstructure:"silencer"`

	// Formatter configures the JSON formatter of the console sink.
	Formatter JSONFormatterConfig `mapstructure:"formatter"`
}

// Validate validates the logging configuration.
func (cfg *Config) Validate() error {
	if !cfg.Level.Valid() {
		return fmt.Errorf("invalid log level: %d, must be between %d (%s) and %d (%s)",
			cfg.Level, AllLevel, AllLevel, OffLevel, OffLevel)
	}
	if cfg.CallerSkip < 0 {
		return fmt.Errorf("caller skip must be non-negative, got %d", cfg.CallerSkip)
	}
	return nil
}

var _defaultCfg = Config{
	Level:             DebugLevel,
	EnabledCallerInfo: true,
	ConsoleAppender:   true,
	Silencer:          true,
}

// DefaultConfig returns a copy of the default configuration.
func DefaultConfig() *Config {
	cfg := _defaultCfg
	return &cfg
}
