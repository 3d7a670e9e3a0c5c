// Package hierarchy assigns logger names to classes of the host application.
//
// A class is anything the host can identify by a string and place in an
// inheritance chain. Names come from an explicit registration map: a class
// registered directly uses its registered name, a class whose nearest
// registered ancestor is A uses "<A's name>::<class>", and every other class
// lives directly under the root namespace.
package hierarchy

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/linchenxuan/lumber/event"
	"github.com/linchenxuan/lumber/log"
)

// DefaultNamespace is the root namespace used for unregistered classes.
const DefaultNamespace = "app"

// ErrInvalidClass is returned for empty class identifiers.
var ErrInvalidClass = errors.New("invalid class")

// Class identifies a host type and its ancestors, nearest first.
type Class struct {
	ID        string
	Ancestors []string
}

// Resolver owns the class → logger name registration map and the per-class
// handle memo.
type Resolver struct {
	registry  *log.Registry
	namespace string

	mu      sync.RWMutex
	names   map[string]string
	handles map[string]*log.Handle
}

// NewResolver creates a resolver creating handles in registry. An empty
// namespace selects DefaultNamespace.
func NewResolver(registry *log.Registry, namespace string) (*Resolver, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if _, err := log.Split(namespace); err != nil {
		return nil, fmt.Errorf("namespace: %w", err)
	}
	return &Resolver{
		registry:  registry,
		namespace: namespace,
		names:     make(map[string]string),
		handles:   make(map[string]*log.Handle),
	}, nil
}

// Namespace returns the root namespace of unregistered classes.
func (r *Resolver) Namespace() string {
	return r.namespace
}

// Register associates classID with loggerName. The class does not need to
// exist yet. A memoized handle for classID is dropped so the next LoggerFor
// picks up the new name.
func (r *Resolver) Register(classID, loggerName string) error {
	if err := checkClassID(classID); err != nil {
		return err
	}
	if _, err := log.Split(loggerName); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[classID] = loggerName
	delete(r.handles, classID)
	return nil
}

// Registered returns the name registered for classID.
func (r *Resolver) Registered(classID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[classID]
	return name, ok
}

// LoggerNameFor computes the logger name of classID given its ancestors,
// nearest first. It does not create any handle.
func (r *Resolver) LoggerNameFor(classID string, ancestors []string) (string, error) {
	if err := checkClassID(classID); err != nil {
		return "", err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if name, ok := r.names[classID]; ok {
		return name, nil
	}
	for _, a := range ancestors {
		if name, ok := r.names[a]; ok {
			return log.Join(name, classID), nil
		}
	}
	return log.Join(r.namespace, classID), nil
}

// LoggerFor returns the handle of class, resolving its name and creating the
// handle on first use. Later calls return the memoized handle.
func (r *Resolver) LoggerFor(class Class) (*log.Handle, error) {
	r.mu.RLock()
	h, ok := r.handles[class.ID]
	r.mu.RUnlock()
	if ok {
		return h, nil
	}

	name, err := r.LoggerNameFor(class.ID, class.Ancestors)
	if err != nil {
		return nil, err
	}
	h, err = r.registry.FindOrCreate(name)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", class.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.handles[class.ID]; ok {
		return existing, nil
	}
	r.handles[class.ID] = h
	return h, nil
}

// Memoized returns the handle already assigned to classID.
func (r *Resolver) Memoized(classID string) (*log.Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[classID]
	return h, ok
}

// OnClassDefined assigns a logger to a newly defined class.
func (r *Resolver) OnClassDefined(class Class) {
	h, err := r.LoggerFor(class)
	if err != nil {
		log.Error().Err(err).Str("class", class.ID).Msg("assign class logger")
		return
	}
	log.Debug().Str("class", class.ID).Str("logger", h.Name()).Msg("class logger assigned")
}

// Subscribe routes ClassDefined events of pub to OnClassDefined, creating the
// topic when needed.
func (r *Resolver) Subscribe(pub *event.Publisher) error {
	pub.EnsureTopic(event.ClassDefined, 0)
	return pub.RegisterSubscriber(event.ClassDefined, func(v any) {
		switch c := v.(type) {
		case Class:
			r.OnClassDefined(c)
		case *Class:
			if c != nil {
				r.OnClassDefined(*c)
			}
		default:
			log.Warn().Str("type", fmt.Sprintf("%T", v)).Msg("unexpected ClassDefined payload")
		}
	})
}

// Reset clears every registration and memoized handle. Handles already
// created stay in the registry.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.names)
	clear(r.handles)
}

func checkClassID(classID string) error {
	if strings.TrimSpace(classID) == "" {
		return fmt.Errorf("%w: empty identifier", ErrInvalidClass)
	}
	return nil
}
