package log

import (
	"context"
	"fmt"
	"time"
)

// LogEvent represents a single structured logging event.
// It provides a fluent API for adding key-value pairs; every method is safe
// to call on a nil event, which is what a filtered level returns.
type LogEvent struct {
	rec    Record
	logger Logger
}

func newEvent() *LogEvent {
	return &LogEvent{rec: Record{Fields: make([]Field, 0, 8)}}
}

// Reset prepares the LogEvent for reuse from the pool.
func (e *LogEvent) Reset() {
	e.rec.reset()
	e.logger = nil
}

// Record exposes the collected content of the event.
func (e *LogEvent) Record() *Record {
	if e == nil {
		return nil
	}
	return &e.rec
}

func (e *LogEvent) add(k string, v any) *LogEvent {
	if e == nil {
		return nil
	}
	e.rec.Fields = append(e.rec.Fields, Field{Key: k, Value: v})
	return e
}

// Str adds a string field.
func (e *LogEvent) Str(k string, s string) *LogEvent {
	return e.add(k, s)
}

// Int adds an int field.
func (e *LogEvent) Int(k string, v int) *LogEvent {
	return e.add(k, v)
}

// Int64 adds an int64 field.
func (e *LogEvent) Int64(k string, v int64) *LogEvent {
	return e.add(k, v)
}

// Uint64 adds a uint64 field.
func (e *LogEvent) Uint64(k string, v uint64) *LogEvent {
	return e.add(k, v)
}

// Float64 adds a float64 field.
func (e *LogEvent) Float64(k string, v float64) *LogEvent {
	return e.add(k, v)
}

// Bool adds a bool field.
func (e *LogEvent) Bool(k string, v bool) *LogEvent {
	return e.add(k, v)
}

// Dur adds a duration field rendered as a Go duration string.
func (e *LogEvent) Dur(k string, d time.Duration) *LogEvent {
	return e.add(k, d.String())
}

// Time adds a time field in RFC 3339 with milliseconds.
func (e *LogEvent) Time(k string, t time.Time) *LogEvent {
	return e.add(k, t.Format("2006-01-02T15:04:05.000Z07:00"))
}

// Any adds an arbitrary value; it must be encodable by the sink formatter.
func (e *LogEvent) Any(k string, v any) *LogEvent {
	return e.add(k, v)
}

// Err attaches an error. A nil error is ignored.
func (e *LogEvent) Err(err error) *LogEvent {
	if e == nil || err == nil {
		return e
	}
	e.rec.Err = err
	return e
}

// Stack attaches a stack trace reported as "backtrace" along with the error.
func (e *LogEvent) Stack(stack string) *LogEvent {
	if e == nil {
		return nil
	}
	e.rec.Stack = stack
	return e
}

// Context copies the nested and mapped diagnostic contexts carried by ctx.
func (e *LogEvent) Context(ctx context.Context) *LogEvent {
	if e == nil || ctx == nil {
		return e
	}
	e.rec.Nested = Nested(ctx)
	e.rec.Mapped = Mapped(ctx)
	return e
}

// Msg sets the message and sends the event.
func (e *LogEvent) Msg(v string) {
	if e == nil {
		return
	}
	e.rec.Message = v
	e.End()
}

// Msgf sets a formatted message and sends the event.
func (e *LogEvent) Msgf(format string, args ...any) {
	if e == nil {
		return
	}
	e.Msg(fmt.Sprintf(format, args...))
}

// End sends the event to the sinks of its logger without a message.
func (e *LogEvent) End() {
	if e == nil {
		return
	}
	e.logger.OnEventEnd(e)
}
