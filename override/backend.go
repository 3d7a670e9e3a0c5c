package override

import (
	"fmt"

	"github.com/linchenxuan/lumber/log"
)

// Node is one logger of an ancestor chain with the names of the sinks
// attached directly to it.
type Node struct {
	Name  string
	Sinks []string
}

// Backend is the view of a logger hierarchy the engine works against.
type Backend interface {
	// IsSink reports whether name is a registered sink.
	IsSink(name string) bool
	// Ancestry creates the logger name when missing and returns it followed
	// by each ancestor. The root comes last with an empty name; it carries
	// sinks but is never a target itself.
	Ancestry(name string) ([]Node, error)
	// Level returns the live level of the logger or sink called name.
	Level(name string) (log.Level, bool)
	// SetLevel sets the live level of the logger or sink called name.
	SetLevel(name string, level log.Level) error
	// InheritOriginals makes loggers created from now on start at the
	// original level of an overridden parent, as reported by original.
	InheritOriginals(original func(name string) (log.Level, bool))
}

// RegistryBackend adapts a log.Registry. Sink names take precedence over
// logger names.
type RegistryBackend struct {
	reg *log.Registry
}

var _ Backend = (*RegistryBackend)(nil)

// NewRegistryBackend creates a backend over reg.
func NewRegistryBackend(reg *log.Registry) *RegistryBackend {
	return &RegistryBackend{reg: reg}
}

// IsSink implements Backend.
func (b *RegistryBackend) IsSink(name string) bool {
	_, ok := b.reg.FindSink(name)
	return ok
}

// Ancestry implements Backend.
func (b *RegistryBackend) Ancestry(name string) ([]Node, error) {
	h, err := b.reg.FindOrCreate(name)
	if err != nil {
		return nil, err
	}
	chain := append(b.reg.Ancestry(h), b.reg.Root())
	nodes := make([]Node, 0, len(chain))
	for _, a := range chain {
		n := Node{Name: a.Name()}
		for _, s := range a.Sinks() {
			n.Sinks = append(n.Sinks, s.Name())
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Level implements Backend.
func (b *RegistryBackend) Level(name string) (log.Level, bool) {
	if s, ok := b.reg.FindSink(name); ok {
		return s.Level(), true
	}
	if h, ok := b.reg.Lookup(name); ok {
		return h.Level(), true
	}
	return 0, false
}

// SetLevel implements Backend.
func (b *RegistryBackend) SetLevel(name string, level log.Level) error {
	if s, ok := b.reg.FindSink(name); ok {
		s.SetLevel(level)
		return nil
	}
	if h, ok := b.reg.Lookup(name); ok {
		h.SetLevel(level)
		return nil
	}
	return fmt.Errorf("no logger or sink named %q", name)
}

// InheritOriginals implements Backend.
func (b *RegistryBackend) InheritOriginals(original func(name string) (log.Level, bool)) {
	b.reg.SetLevelSource(func(parent *log.Handle) log.Level {
		if l, ok := original(parent.Name()); ok {
			return l
		}
		return parent.Level()
	})
}
