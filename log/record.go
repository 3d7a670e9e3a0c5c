package log

import "time"

// Field is one structured key/value attached to a log event.
type Field struct {
	Key   string
	Value any
}

// Record is the fully collected content of one log event, handed to every
// sink's Formatter when the event ends.
type Record struct {
	Time    time.Time
	Logger  string
	Level   Level
	Message string
	Err     error
	// Stack is an optional stack trace captured for errors.
	Stack  string
	Caller *Caller
	Fields []Field

	// Diagnostic context: Global is process wide, Nested and Mapped come
	// from the context.Context passed to LogEvent.Context.
	Global string
	Nested []string
	Mapped map[string]string
}

func (r *Record) reset() {
	fields := r.Fields[:0]
	*r = Record{Fields: fields}
}
