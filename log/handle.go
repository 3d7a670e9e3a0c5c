package log

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Handle is one named node of the logger hierarchy. Its level is an atomic
// so the logging path never locks; its parent is looked up by name in the
// owning Registry rather than stored.
//
// Events accepted by a handle are written to the sinks of the handle and of
// every ancestor, each sink applying its own level.
//
//	h, _ := registry.FindOrCreate("app::models::User")
//	h.Info().Str("id", id).Msg("user loaded")
type Handle struct {
	name     string
	level    atomic.Int32
	registry *Registry

	mu    sync.RWMutex
	sinks []*Sink
}

var _ Logger = (*Handle)(nil)

func newHandle(name string, level Level, r *Registry) *Handle {
	h := &Handle{name: name, registry: r}
	h.level.Store(int32(level))
	return h
}

// Name returns the full "::" separated name. The root handle's name is empty.
func (h *Handle) Name() string {
	return h.name
}

// Level returns the current threshold of the handle.
func (h *Handle) Level() Level {
	return Level(h.level.Load())
}

// SetLevel changes the threshold of the handle. Safe for concurrent use.
func (h *Handle) SetLevel(l Level) {
	h.level.Store(int32(l))
}

// Parent returns the parent handle, or nil for the root.
func (h *Handle) Parent() *Handle {
	return h.registry.Parent(h)
}

// IsRoot reports whether h is the registry root.
func (h *Handle) IsRoot() bool {
	return h == h.registry.root
}

// Sinks returns the sinks attached directly to h, in attachment order.
func (h *Handle) Sinks() []*Sink {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.sinks)
}

// AddSink attaches s to h and registers it by name in the registry.
// Attaching the same sink twice is a no-op.
func (h *Handle) AddSink(s *Sink) error {
	if err := h.registry.RegisterSink(s); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if slices.Contains(h.sinks, s) {
		return nil
	}
	h.sinks = append(h.sinks, s)
	return nil
}

// Trace creates a trace-level event, or nil when filtered.
func (h *Handle) Trace() *LogEvent {
	return h.logAt(TraceLevel)
}

// Debug creates a debug-level event, or nil when filtered.
func (h *Handle) Debug() *LogEvent {
	return h.logAt(DebugLevel)
}

// Info creates an info-level event, or nil when filtered.
func (h *Handle) Info() *LogEvent {
	return h.logAt(InfoLevel)
}

// Warn creates a warn-level event, or nil when filtered.
func (h *Handle) Warn() *LogEvent {
	return h.logAt(WarnLevel)
}

// Error creates an error-level event, or nil when filtered.
func (h *Handle) Error() *LogEvent {
	return h.logAt(ErrorLevel)
}

// Fatal creates a fatal-level event, or nil when filtered.
// Sending a fatal event panics after it has been written.
func (h *Handle) Fatal() *LogEvent {
	return h.logAt(FatalLevel)
}

// Enabled reports whether an event at level would be accepted by h.
func (h *Handle) Enabled(level Level) bool {
	return h.Level().Enabled(level)
}

// logAt must be called directly by the exported entry point so the caller
// frame depth stays constant.
func (h *Handle) logAt(level Level) *LogEvent {
	if !h.Enabled(level) {
		return nil
	}

	r := h.registry
	e := r.eventPool.Get().(*LogEvent)
	e.Reset()
	e.logger = h
	e.rec.Time = time.Now()
	e.rec.Logger = h.name
	e.rec.Level = level
	e.rec.Global = r.GlobalContext()

	if r.cfg.EnabledCallerInfo {
		e.rec.Caller = captureCaller(2 + r.cfg.CallerSkip)
	}
	return e
}

// OnEventEnd writes the event to every sink reachable from h and returns it
// to the pool. A sink attached at several levels of the hierarchy is written
// once.
func (h *Handle) OnEventEnd(e *LogEvent) {
	rec := &e.rec
	var seen []*Sink
	for cur := h; cur != nil; cur = cur.Parent() {
		for _, s := range cur.Sinks() {
			if slices.Contains(seen, s) {
				continue
			}
			seen = append(seen, s)
			if err := s.write(rec); err != nil {
				h.registry.sinkFailed(s, err)
			}
		}
	}

	fatal, msg := rec.Level == FatalLevel, rec.Message
	h.registry.eventPool.Put(e)
	if fatal {
		panic(msg)
	}
}

// Silence runs fn with the level of h temporarily set to level, restoring
// the previous level afterwards. ErrorLevel is the usual choice. When the
// registry silencer is disabled fn runs unchanged.
func (h *Handle) Silence(level Level, fn func(*Handle)) {
	if !h.registry.Silencer() {
		fn(h)
		return
	}
	old := h.Level()
	h.SetLevel(level)
	defer h.SetLevel(old)
	fn(h)
}

// LogException logs err at error level with the details rendered as an
// aligned, key-sorted list in the message and attached as fields.
func (h *Handle) LogException(err error, details map[string]any) {
	e := h.logAt(ErrorLevel)
	if e == nil {
		return
	}

	keys := make([]string, 0, len(details))
	width := 0
	for k := range details {
		keys = append(keys, k)
		width = max(width, len(k))
	}
	slices.Sort(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Exception '%T', '%v', details:", err, err)
	for _, k := range keys {
		v := strings.TrimSpace(fmt.Sprint(details[k]))
		fmt.Fprintf(&b, "\n* %-*s: %s", width, k, v)
		e.Any(k, details[k])
	}
	e.Err(err).Msg(b.String())
}
