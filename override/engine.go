package override

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/linchenxuan/lumber/log"
)

// Activator applies the stored mapping to live levels.
//
//go:generate mockgen -destination=mocks/mock_activator.go -package=mocks github.com/linchenxuan/lumber/override Activator
type Activator interface {
	Activate(ctx context.Context) error
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithKey sets the store key. Defaults to DefaultKey.
func WithKey(key string) EngineOption {
	return func(e *Engine) { e.key = key }
}

// WithTTL sets the ttl passed to Store.Write. Defaults to DefaultTTL.
func WithTTL(ttl time.Duration) EngineOption {
	return func(e *Engine) { e.ttl = ttl }
}

// WithMetrics records activations in m.
func WithMetrics(m *Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// Engine reads override mappings from a Store and applies them to a Backend.
//
// Every target is either unmodified or overridden. The first time a target
// is overridden its live level is backed up; later overrides keep that
// backup. Only an empty mapping returns targets to unmodified: each one is
// set back to its backed-up level and all backups are dropped at once.
type Engine struct {
	store   Store
	backend Backend
	key     string
	ttl     time.Duration
	metrics *Metrics

	mu     sync.Mutex
	bmu    sync.RWMutex // guards backup writes against originalLevel
	backup map[string]log.Level
}

var _ Activator = (*Engine)(nil)

// NewEngine creates an engine applying mappings from store to backend.
func NewEngine(store Store, backend Backend, opts ...EngineOption) *Engine {
	e := &Engine{
		store:   store,
		backend: backend,
		key:     DefaultKey,
		ttl:     DefaultTTL,
		backup:  make(map[string]log.Level),
	}
	for _, opt := range opts {
		opt(e)
	}
	backend.InheritOriginals(e.originalLevel)
	return e
}

// Key returns the store key of the engine.
func (e *Engine) Key() string {
	return e.key
}

// SetLevels validates m and writes it to the store unexpanded. An empty or
// malformed target or an unknown level rejects the whole mapping; the error
// names the first offending entry by target order.
func (e *Engine) SetLevels(ctx context.Context, m Mapping) error {
	if err := e.Validate(m); err != nil {
		return err
	}
	if err := e.store.Write(ctx, e.key, m, e.ttl); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	log.Info().Int("targets", len(m)).Str("key", e.key).Msg("override levels set")
	return nil
}

// GetLevels returns the stored mapping, empty when none is set.
func (e *Engine) GetLevels(ctx context.Context) (Mapping, error) {
	m, err := e.store.Read(ctx, e.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return m.Clone(), nil
}

// ClearLevels empties the stored mapping. Levels are restored by the next
// activation.
func (e *Engine) ClearLevels(ctx context.Context) error {
	if err := e.store.Write(ctx, e.key, Mapping{}, e.ttl); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	log.Info().Str("key", e.key).Msg("override levels cleared")
	return nil
}

// Activate reads the stored mapping and applies it. An empty mapping
// restores every overridden target. A store failure aborts the cycle with
// ErrStoreUnavailable and leaves live levels untouched; a bad entry is
// logged and skipped.
//
// The read and the apply happen under one lock, so concurrent activations
// apply mappings in the order they were read.
func (e *Engine) Activate(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.store.Read(ctx, e.key)
	if err != nil {
		e.metrics.activation("store_error")
		log.Error().Err(err).Str("key", e.key).Msg("read override levels")
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if len(m) == 0 {
		e.restoreLocked()
		e.metrics.activation("restored")
		return nil
	}

	expanded := e.expand(e.usable(m))
	for _, name := range slices.Sorted(maps.Keys(expanded)) {
		e.applyLocked(name, expanded[name])
	}
	e.metrics.setOverridden(len(e.backup))
	e.metrics.activation("applied")
	return nil
}

// Expand returns m with every logger target's ancestors and their sinks
// added at the target's level. Explicit entries are kept as given. When
// several targets reach the same name the deepest target wins, ties going to
// the smallest target name. Logger targets are created when missing.
func (e *Engine) Expand(m Mapping) Mapping {
	return e.expand(m)
}

// Overridden returns the backed-up original level of every overridden target.
func (e *Engine) Overridden() map[string]log.Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.backup)
}

// Reset drops every backup without restoring levels.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bmu.Lock()
	clear(e.backup)
	e.bmu.Unlock()
	e.metrics.setOverridden(0)
}

// originalLevel returns the backed-up level of an overridden target. The
// registry calls it while creating handles, with or without e.mu held, so it
// only takes bmu.
func (e *Engine) originalLevel(name string) (log.Level, bool) {
	e.bmu.RLock()
	defer e.bmu.RUnlock()
	l, ok := e.backup[name]
	return l, ok
}

func (e *Engine) expand(m Mapping) Mapping {
	out := m.Clone()

	var targets []string
	for name := range m {
		if !e.backend.IsSink(name) {
			targets = append(targets, name)
		}
	}
	slices.SortFunc(targets, func(a, b string) int {
		if c := cmp.Compare(depth(b), depth(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	for _, target := range targets {
		level := m[target]
		nodes, err := e.backend.Ancestry(target)
		if err != nil {
			e.metrics.skipped("resolve")
			log.Error().Err(err).Str("target", target).Msg("resolve override target")
			continue
		}
		for _, n := range nodes {
			if _, ok := out[n.Name]; !ok && n.Name != "" {
				out[n.Name] = level
			}
			for _, s := range n.Sinks {
				if _, ok := out[s]; !ok {
					out[s] = level
				}
			}
		}
	}
	return out
}

// usable drops entries that cannot be applied. Writers other than SetLevels
// may put anything into a shared store.
func (e *Engine) usable(m Mapping) Mapping {
	out := make(Mapping, len(m))
	for name, level := range m {
		if name == "" {
			e.metrics.skipped("empty_target")
			log.Warn().Str("level", level).Msg("skip override with empty target")
			continue
		}
		if _, err := log.LookupLevel(level); err != nil {
			e.metrics.skipped("invalid_level")
			log.Warn().Str("target", name).Str("level", level).Msg("skip override with invalid level")
			continue
		}
		out[name] = level
	}
	return out
}

func (e *Engine) applyLocked(name, levelName string) {
	level, err := log.LookupLevel(levelName)
	if err != nil {
		e.metrics.skipped("invalid_level")
		log.Warn().Str("target", name).Str("level", levelName).Msg("skip override with invalid level")
		return
	}
	current, ok := e.backend.Level(name)
	if !ok {
		e.metrics.skipped("unknown_target")
		log.Warn().Str("target", name).Msg("skip override of unknown target")
		return
	}
	if _, backed := e.backup[name]; !backed {
		e.bmu.Lock()
		e.backup[name] = current
		e.bmu.Unlock()
	}
	if current == level {
		return
	}
	if err := e.backend.SetLevel(name, level); err != nil {
		e.metrics.skipped("set_level")
		log.Error().Err(err).Str("target", name).Msg("apply override level")
		return
	}
	e.metrics.levelChanged()
	log.Debug().Str("target", name).Str("from", current.String()).Str("to", level.String()).Msg("override level applied")
}

func (e *Engine) restoreLocked() {
	if len(e.backup) == 0 {
		return
	}
	for _, name := range slices.Sorted(maps.Keys(e.backup)) {
		original := e.backup[name]
		current, ok := e.backend.Level(name)
		if ok && current == original {
			continue
		}
		if err := e.backend.SetLevel(name, original); err != nil {
			log.Error().Err(err).Str("target", name).Msg("restore original level")
			continue
		}
		e.metrics.levelChanged()
	}
	log.Info().Int("targets", len(e.backup)).Msg("original levels restored")
	e.bmu.Lock()
	clear(e.backup)
	e.bmu.Unlock()
	e.metrics.setOverridden(0)
}

// Validate checks every entry of m, in target order, for an empty target, a
// target that is neither a sink nor a well-formed logger name, or an unknown
// level.
func (e *Engine) Validate(m Mapping) error {
	for _, name := range slices.Sorted(maps.Keys(m)) {
		if strings.TrimSpace(name) == "" {
			return ErrEmptyTarget
		}
		if !e.backend.IsSink(name) {
			if _, err := log.Split(name); err != nil {
				return &TargetError{Target: name, Err: err}
			}
		}
		if _, err := log.LookupLevel(m[name]); err != nil {
			return &LevelError{Target: name, Level: m[name]}
		}
	}
	return nil
}

func depth(name string) int {
	return strings.Count(name, log.Separator) + 1
}
