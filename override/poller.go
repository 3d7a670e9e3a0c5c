package override

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/linchenxuan/lumber/log"
)

// DefaultInterval is the poll interval used when none is given.
const DefaultInterval = 30 * time.Second

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollerMetrics records poll cycles in m.
func WithPollerMetrics(m *Metrics) PollerOption {
	return func(p *Poller) { p.metrics = m }
}

// WithAfterCycle calls fn after every cycle with its error, if any.
func WithAfterCycle(fn func(error)) PollerOption {
	return func(p *Poller) { p.afterCycle = fn }
}

// Poller re-runs an Activator at a fixed interval on one goroutine.
//
//	p := override.NewPoller(engine, time.Minute)
//	_ = p.Start()
//	defer p.Stop()
type Poller struct {
	id         string
	activator  Activator
	interval   time.Duration
	metrics    *Metrics
	afterCycle func(error)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a stopped poller. A non-positive interval selects
// DefaultInterval.
func NewPoller(activator Activator, interval time.Duration, opts ...PollerOption) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	p := &Poller{
		id:        uuid.NewString(),
		activator: activator,
		interval:  interval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID identifies the poller in logs.
func (p *Poller) ID() string {
	return p.id
}

// Interval returns the time between two cycles.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start runs the first cycle immediately on a new goroutine, then one cycle
// per interval until Stop.
func (p *Poller) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return ErrPollerRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel, p.done = cancel, done
	go func() {
		defer close(done)
		p.loop(ctx)
	}()
	return nil
}

// Stop cancels the loop, interrupting its sleep, and waits for the goroutine
// to exit. Stopping a stopped poller does nothing.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if done == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop goroutine was started and not stopped.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done != nil
}

// Serve runs the loop on the calling goroutine until ctx is done, which lets
// a suture supervisor own the poller.
func (p *Poller) Serve(ctx context.Context) error {
	p.loop(ctx)
	return ctx.Err()
}

func (p *Poller) String() string {
	return "override-poller-" + p.id
}

func (p *Poller) loop(ctx context.Context) {
	log.Info().Str("poller", p.id).Dur("interval", p.interval).Msg("override poller started")
	defer log.Info().Str("poller", p.id).Msg("override poller stopped")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if ctx.Err() != nil {
			return
		}
		p.cycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("activation panicked: %v", r)
			p.metrics.pollCycle("panic")
			log.Error().Str("poller", p.id).Err(err).Msg("override poll cycle")
		}
		if p.afterCycle != nil {
			p.afterCycle(err)
		}
	}()

	err = p.activator.Activate(ctx)
	if err != nil {
		p.metrics.pollCycle("error")
		log.Error().Str("poller", p.id).Err(err).Msg("override poll cycle")
		return
	}
	p.metrics.pollCycle("ok")
}
