// Package override applies temporary level overrides to a logger hierarchy.
//
// An operator writes a Mapping of logger or sink names to level names into a
// Store. An Engine reads it, expands every logger target to its ancestors and
// their sinks, and applies the levels while remembering the original ones.
// Once the mapping is emptied the next activation restores every original
// level. A Poller re-runs the activation at an interval so a pool of
// processes sharing one store converges on the same levels.
package override

import (
	"context"
	"maps"
	"sync"
	"time"
)

const (
	// DefaultKey is the store key holding the override mapping.
	DefaultKey = "lumber:log_levels"
	// DefaultTTL is how long a written mapping stays valid in expiring stores.
	DefaultTTL = time.Hour
)

// Mapping maps a logger or sink name to a level name.
type Mapping map[string]string

// Clone returns a copy of m. The copy of a nil mapping is empty, not nil.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	maps.Copy(out, m)
	return out
}

// Store persists override mappings by key.
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/linchenxuan/lumber/override Store
type Store interface {
	// Read returns the mapping under key, or an empty mapping when absent
	// or expired.
	Read(ctx context.Context, key string) (Mapping, error)
	// Write replaces the mapping under key. Stores that support expiry drop
	// it after ttl; a non-positive ttl never expires.
	Write(ctx context.Context, key string, m Mapping, ttl time.Duration) error
}

// MemoryStore is a process-local Store. It ignores ttl: a written mapping
// stays until overwritten.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string]Mapping
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string]Mapping)}
}

// Read returns a copy of the mapping under key.
func (s *MemoryStore) Read(_ context.Context, key string) (Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[key].Clone(), nil
}

// Write stores a copy of m under key.
func (s *MemoryStore) Write(_ context.Context, key string, m Mapping, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(m) == 0 {
		delete(s.slots, key)
		return nil
	}
	s.slots[key] = m.Clone()
	return nil
}

// FactoryName implements plugin.Plugin.
func (s *MemoryStore) FactoryName() string {
	return MemoryStoreName
}
