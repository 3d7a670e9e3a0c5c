package log

import (
	"io"
	"os"
	"sync"
)

// WriterAppender writes each formatted record to an io.Writer, serializing
// concurrent writes with a mutex. It is the appender behind the console sink
// and the one tests use with a bytes.Buffer.
type WriterAppender struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterAppender wraps w.
func NewWriterAppender(w io.Writer) *WriterAppender {
	return &WriterAppender{w: w}
}

// NewConsoleAppender returns an appender writing to stdout.
func NewConsoleAppender() *WriterAppender {
	return NewWriterAppender(os.Stdout)
}

// Write writes buf to the underlying writer.
func (a *WriterAppender) Write(buf []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.w.Write(buf)
}

// Refresh syncs the writer when it supports it.
func (a *WriterAppender) Refresh() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch w := a.w.(type) {
	case interface{ Flush() error }:
		return w.Flush()
	case *os.File:
		if w == os.Stdout || w == os.Stderr {
			return nil
		}
		return w.Sync()
	}
	return nil
}

// Close closes the writer if it is closable. Stdout and stderr are left open.
func (a *WriterAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.w == os.Stdout || a.w == os.Stderr {
		return nil
	}
	if c, ok := a.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
