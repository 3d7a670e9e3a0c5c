package log

// LogAppender is the output side of a Sink: it receives fully formatted
// bytes. Implementations must be goroutine-safe because one sink is shared by
// every logger it is attached to.
type LogAppender interface {
	// Write outputs one formatted record.
	Write(buf []byte) (n int, err error)

	// Refresh forces any buffered data to be written.
	Refresh() error

	// Close flushes and releases underlying resources.
	Close() error
}

// Formatter turns a Record into the bytes handed to a LogAppender.
type Formatter interface {
	Format(rec *Record) ([]byte, error)
}
