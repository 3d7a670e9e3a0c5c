// Package lumber ties hierarchical loggers to the classes of a host
// application and lets operators override logger levels at runtime.
//
//	lb, _ := lumber.New(lumber.WithNamespace("shop"))
//	_ = lb.RegisterClass("Model", "shop::models")
//	h, _ := lb.LoggerFor("User", "Model")        // shop::models::User
//	_ = lb.SetLevels(ctx, override.Mapping{"shop::models::User": "DEBUG"})
//	_ = lb.StartMonitor(time.Minute)
package lumber

import (
	"context"
	"sync"
	"time"

	"github.com/linchenxuan/lumber/event"
	"github.com/linchenxuan/lumber/hierarchy"
	"github.com/linchenxuan/lumber/log"
	"github.com/linchenxuan/lumber/override"
)

type options struct {
	logCfg    *log.Config
	namespace string
	store     override.Store
	engine    []override.EngineOption
	metrics   *override.Metrics
	publisher *event.Publisher
}

// Option configures New.
type Option func(*options)

// WithLogConfig configures the logger registry. Defaults to log.DefaultConfig.
func WithLogConfig(cfg *log.Config) Option {
	return func(o *options) { o.logCfg = cfg }
}

// WithNamespace sets the root namespace of unregistered classes.
func WithNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// WithStore sets the override store. Defaults to a MemoryStore.
func WithStore(s override.Store) Option {
	return func(o *options) { o.store = s }
}

// WithEngineOptions passes options to the override engine.
func WithEngineOptions(opts ...override.EngineOption) Option {
	return func(o *options) { o.engine = append(o.engine, opts...) }
}

// WithMetrics records engine and poller activity in m.
func WithMetrics(m *override.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithPublisher subscribes class assignment to the ClassDefined topic of
// pub. Defaults to a private publisher.
func WithPublisher(pub *event.Publisher) Option {
	return func(o *options) { o.publisher = pub }
}

// Lumber owns one logger hierarchy with its class registrations, override
// engine and optional poller.
type Lumber struct {
	registry  *log.Registry
	resolver  *hierarchy.Resolver
	engine    *override.Engine
	publisher *event.Publisher
	metrics   *override.Metrics

	mu     sync.Mutex
	poller *override.Poller
}

// New creates a Lumber instance.
func New(opts ...Option) (*Lumber, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logCfg == nil {
		o.logCfg = log.DefaultConfig()
	}
	if err := o.logCfg.Validate(); err != nil {
		return nil, err
	}
	if o.store == nil {
		o.store = override.NewMemoryStore()
	}
	if o.publisher == nil {
		o.publisher = event.NewPublisher()
	}

	registry := log.NewRegistry(o.logCfg)
	resolver, err := hierarchy.NewResolver(registry, o.namespace)
	if err != nil {
		return nil, err
	}
	if err := resolver.Subscribe(o.publisher); err != nil {
		return nil, err
	}

	engineOpts := append([]override.EngineOption{override.WithMetrics(o.metrics)}, o.engine...)
	lb := &Lumber{
		registry:  registry,
		resolver:  resolver,
		engine:    override.NewEngine(o.store, override.NewRegistryBackend(registry), engineOpts...),
		publisher: o.publisher,
		metrics:   o.metrics,
	}
	log.Info().Str("namespace", resolver.Namespace()).Str("key", lb.engine.Key()).Msg("lumber initialized")
	return lb, nil
}

// Registry returns the logger registry.
func (lb *Lumber) Registry() *log.Registry {
	return lb.registry
}

// Resolver returns the class name resolver.
func (lb *Lumber) Resolver() *hierarchy.Resolver {
	return lb.resolver
}

// Engine returns the override engine.
func (lb *Lumber) Engine() *override.Engine {
	return lb.engine
}

// Publisher returns the class definition event publisher.
func (lb *Lumber) Publisher() *event.Publisher {
	return lb.publisher
}

// SetLevels validates and stores an override mapping. Levels change on the
// next activation.
func (lb *Lumber) SetLevels(ctx context.Context, m override.Mapping) error {
	return lb.engine.SetLevels(ctx, m)
}

// GetLevels returns the stored override mapping.
func (lb *Lumber) GetLevels(ctx context.Context) (override.Mapping, error) {
	return lb.engine.GetLevels(ctx)
}

// ClearLevels removes the stored override mapping.
func (lb *Lumber) ClearLevels(ctx context.Context) error {
	return lb.engine.ClearLevels(ctx)
}

// Activate applies the stored override mapping.
func (lb *Lumber) Activate(ctx context.Context) error {
	return lb.engine.Activate(ctx)
}

// StartMonitor starts a poller activating the stored mapping every interval.
func (lb *Lumber) StartMonitor(interval time.Duration) error {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if lb.poller != nil && lb.poller.Running() {
		return override.ErrPollerRunning
	}
	p := override.NewPoller(lb.engine, interval, override.WithPollerMetrics(lb.metrics))
	if err := p.Start(); err != nil {
		return err
	}
	lb.poller = p
	return nil
}

// StopMonitor stops the poller and waits for it. It does nothing when no
// poller runs.
func (lb *Lumber) StopMonitor() {
	lb.mu.Lock()
	p := lb.poller
	lb.poller = nil
	lb.mu.Unlock()
	if p != nil {
		p.Stop()
	}
}

// Monitoring reports whether a poller runs.
func (lb *Lumber) Monitoring() bool {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.poller != nil && lb.poller.Running()
}

// RegisterClass associates classID with loggerName.
func (lb *Lumber) RegisterClass(classID, loggerName string) error {
	return lb.resolver.Register(classID, loggerName)
}

// LoggerNameFor returns the logger name of classID given its ancestors,
// nearest first.
func (lb *Lumber) LoggerNameFor(classID string, ancestors ...string) (string, error) {
	return lb.resolver.LoggerNameFor(classID, ancestors)
}

// LoggerFor returns the memoized logger of classID, creating it on first use.
func (lb *Lumber) LoggerFor(classID string, ancestors ...string) (*log.Handle, error) {
	return lb.resolver.LoggerFor(hierarchy.Class{ID: classID, Ancestors: ancestors})
}

// OnClassDefined assigns a logger to class immediately.
func (lb *Lumber) OnClassDefined(class hierarchy.Class) {
	lb.resolver.OnClassDefined(class)
}

// DefineClass publishes a ClassDefined event for classID.
func (lb *Lumber) DefineClass(classID string, ancestors ...string) error {
	return lb.publisher.Publish(event.ClassDefined, hierarchy.Class{ID: classID, Ancestors: ancestors})
}

// Reset stops the poller and forgets class registrations, memoized loggers
// and backed-up levels. Loggers and their current levels are kept.
func (lb *Lumber) Reset() {
	lb.StopMonitor()
	lb.resolver.Reset()
	lb.engine.Reset()
}

// Close stops the poller and closes every sink.
func (lb *Lumber) Close() error {
	lb.StopMonitor()
	log.Info().Msg("lumber shutting down")
	return lb.registry.Close()
}
