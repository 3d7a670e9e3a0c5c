package log

import (
	"errors"
	"sync/atomic"
)

// ErrNilAppender is returned when a sink is built without an appender.
var ErrNilAppender = errors.New("sink appender is nil")

// Sink is a named, independently leveled output destination. A sink may be
// attached to any number of handles; it is shared by reference and the
// registry indexes it by name so level overrides can target it.
type Sink struct {
	name      string
	level     atomic.Int32
	appender  LogAppender
	formatter Formatter
	failures  atomic.Uint64
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithSinkLevel sets the initial level of the sink. The default is AllLevel.
func WithSinkLevel(l Level) SinkOption {
	return func(s *Sink) {
		s.level.Store(int32(l))
	}
}

// WithFormatter sets the formatter of the sink. The default is a JSONFormatter
// with no key mapping.
func WithFormatter(f Formatter) SinkOption {
	return func(s *Sink) {
		s.formatter = f
	}
}

// NewSink creates a sink named name writing through appender.
func NewSink(name string, appender LogAppender, opts ...SinkOption) (*Sink, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if appender == nil {
		return nil, ErrNilAppender
	}
	s := &Sink{name: name, appender: appender}
	for _, opt := range opts {
		opt(s)
	}
	if s.formatter == nil {
		s.formatter = NewJSONFormatter(JSONFormatterConfig{})
	}
	return s, nil
}

// Name returns the override target name of the sink.
func (s *Sink) Name() string {
	return s.name
}

// Level returns the current threshold of the sink.
func (s *Sink) Level() Level {
	return Level(s.level.Load())
}

// SetLevel changes the threshold of the sink. Safe for concurrent use.
func (s *Sink) SetLevel(l Level) {
	s.level.Store(int32(l))
}

// Failures returns how many events the sink failed to format or write.
func (s *Sink) Failures() uint64 {
	return s.failures.Load()
}

// Appender returns the underlying appender.
func (s *Sink) Appender() LogAppender {
	return s.appender
}

func (s *Sink) write(rec *Record) error {
	if !s.Level().Enabled(rec.Level) {
		return nil
	}
	buf, err := s.formatter.Format(rec)
	if err != nil {
		return err
	}
	_, err = s.appender.Write(buf)
	return err
}
