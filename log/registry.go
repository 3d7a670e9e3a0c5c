package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// Separator joins the segments of a logger name.
const Separator = "::"

var (
	// ErrInvalidName is returned for empty names or names with empty segments.
	ErrInvalidName = errors.New("invalid logger name")
	// ErrDuplicateSink is returned when two different sinks share a name.
	ErrDuplicateSink = errors.New("duplicate sink name")
)

// Split returns the segments of a logger name.
func Split(name string) ([]string, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidName)
	}
	segments := strings.Split(name, Separator)
	for _, s := range segments {
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidName, name)
		}
	}
	return segments, nil
}

// Join builds a logger name from segments.
func Join(segments ...string) string {
	return strings.Join(segments, Separator)
}

// ParentName strips the last segment of name. Top-level names have no
// parent name and ok is false.
func ParentName(name string) (parent string, ok bool) {
	i := strings.LastIndex(name, Separator)
	if i < 0 {
		return "", false
	}
	return name[:i], true
}

// LevelSource picks the initial level of a handle created under parent.
// It runs with the registry locked and must not call back into it.
type LevelSource func(parent *Handle) Level

// Registry is the name → handle cache of one logger hierarchy. Every handle
// it returns has all of its ancestors materialized, and no name ever maps to
// two handles.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*Handle
	sinks   map[string]*Sink
	root    *Handle

	cfg       Config
	inherit   atomic.Pointer[LevelSource]
	errOut    io.Writer
	silencer  atomic.Bool
	global    atomic.Pointer[string]
	eventPool sync.Pool
}

// NewRegistry creates an empty hierarchy. A nil cfg uses DefaultConfig.
func NewRegistry(cfg *Config) *Registry {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	r := &Registry{
		handles: make(map[string]*Handle),
		sinks:   make(map[string]*Sink),
		cfg:     *cfg,
		errOut:  os.Stderr,
	}
	r.root = newHandle("", cfg.Level, r)
	r.silencer.Store(cfg.Silencer)
	r.eventPool.New = func() any {
		return newEvent()
	}

	if cfg.ConsoleAppender {
		s, _ := NewSink("stdout", NewConsoleAppender(), WithFormatter(NewJSONFormatter(cfg.Formatter)))
		_ = r.root.AddSink(s)
	}
	return r
}

// Root returns the process-wide root handle. It has an empty name and is
// not registered under any name.
func (r *Registry) Root() *Handle {
	return r.root
}

// Lookup returns the handle registered under name.
func (r *Registry) Lookup(name string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[name]
	return h, ok
}

// FindOrCreate returns the handle for fullname, creating it and any missing
// ancestor. An existing handle is returned without side effects. New handles
// inherit the current level of their parent unless a LevelSource is set.
func (r *Registry) FindOrCreate(fullname string) (*Handle, error) {
	if h, ok := r.Lookup(fullname); ok {
		return h, nil
	}

	segments, err := Split(fullname)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	parent := r.root
	for i := range segments {
		name := Join(segments[:i+1]...)
		h, ok := r.handles[name]
		if !ok {
			h = newHandle(name, r.inheritedLevel(parent), r)
			r.handles[name] = h
		}
		parent = h
	}
	return parent, nil
}

// SetLevelSource replaces how new handles pick their initial level. A nil fn
// restores plain inheritance of the parent's current level.
func (r *Registry) SetLevelSource(fn LevelSource) {
	if fn == nil {
		r.inherit.Store(nil)
		return
	}
	r.inherit.Store(&fn)
}

func (r *Registry) inheritedLevel(parent *Handle) Level {
	if fn := r.inherit.Load(); fn != nil {
		return (*fn)(parent)
	}
	return parent.Level()
}

// Parent returns the parent of h: the handle named by stripping the last
// segment, the root for top-level handles, nil for the root itself.
func (r *Registry) Parent(h *Handle) *Handle {
	if h == nil || h == r.root {
		return nil
	}
	name, ok := ParentName(h.name)
	if !ok {
		return r.root
	}
	if p, found := r.Lookup(name); found {
		return p
	}
	return r.root
}

// Ancestry returns h followed by each of its ancestors up to, but excluding,
// the root.
func (r *Registry) Ancestry(h *Handle) []*Handle {
	var chain []*Handle
	for cur := h; cur != nil && cur != r.root; cur = r.Parent(cur) {
		chain = append(chain, cur)
	}
	return chain
}

// Names returns every registered logger name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.handles))
	for name := range r.handles {
		names = append(names, name)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

// RegisterSink indexes s by name. Registering the same sink again is a no-op;
// a different sink with the same name is rejected.
func (r *Registry) RegisterSink(s *Sink) error {
	if s == nil {
		return ErrNilAppender
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sinks[s.name]; ok && existing != s {
		return fmt.Errorf("%w: %s", ErrDuplicateSink, s.name)
	}
	r.sinks[s.name] = s
	return nil
}

// FindSink returns the sink registered under name.
func (r *Registry) FindSink(name string) (*Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sinks[name]
	return s, ok
}

// Sinks returns every registered sink sorted by name.
func (r *Registry) Sinks() []*Sink {
	r.mu.RLock()
	sinks := make([]*Sink, 0, len(r.sinks))
	for _, s := range r.sinks {
		sinks = append(sinks, s)
	}
	r.mu.RUnlock()
	slices.SortFunc(sinks, func(a, b *Sink) int { return strings.Compare(a.name, b.name) })
	return sinks
}

// SetSilencer enables or disables Handle.Silence.
func (r *Registry) SetSilencer(enabled bool) {
	r.silencer.Store(enabled)
}

// Silencer reports whether Handle.Silence changes levels.
func (r *Registry) Silencer() bool {
	return r.silencer.Load()
}

// SetGlobalContext sets the process-wide diagnostic context reported as "gdc".
func (r *Registry) SetGlobalContext(v string) {
	r.global.Store(&v)
}

// GlobalContext returns the process-wide diagnostic context.
func (r *Registry) GlobalContext() string {
	if p := r.global.Load(); p != nil {
		return *p
	}
	return ""
}

// SetErrorOutput sets where the first failure of each sink is reported.
// The default is os.Stderr.
func (r *Registry) SetErrorOutput(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errOut = w
}

// sinkFailed counts a failed write on s and reports the first one.
func (r *Registry) sinkFailed(s *Sink, err error) {
	if s.failures.Add(1) != 1 {
		return
	}
	r.mu.RLock()
	w := r.errOut
	r.mu.RUnlock()
	if w != nil {
		fmt.Fprintf(w, "lumber: sink %q failed: %v\n", s.name, err)
	}
}

// Refresh flushes every registered sink.
func (r *Registry) Refresh() error {
	var errs []error
	for _, s := range r.Sinks() {
		errs = append(errs, s.appender.Refresh())
	}
	return errors.Join(errs...)
}

// Close flushes and closes every registered sink.
func (r *Registry) Close() error {
	var errs []error
	for _, s := range r.Sinks() {
		errs = append(errs, s.appender.Refresh(), s.appender.Close())
	}
	return errors.Join(errs...)
}
