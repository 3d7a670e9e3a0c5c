package override

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const _namespace = "lumber"

// Metrics are the Prometheus collectors of the override subsystem. A nil
// *Metrics records nothing.
type Metrics struct {
	activations    *prometheus.CounterVec
	levelChanges   prometheus.Counter
	skippedEntries *prometheus.CounterVec
	overridden     prometheus.Gauge
	pollCycles     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		activations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "override",
			Name:      "activations_total",
			Help:      "Activation cycles by result (applied, restored, store_error).",
		}, []string{"result"}),
		levelChanges: f.NewCounter(prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "override",
			Name:      "level_changes_total",
			Help:      "Live level writes performed on loggers and sinks.",
		}),
		skippedEntries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "override",
			Name:      "skipped_entries_total",
			Help:      "Mapping entries skipped during activation by reason.",
		}, []string{"reason"}),
		overridden: f.NewGauge(prometheus.GaugeOpts{
			Namespace: _namespace,
			Subsystem: "override",
			Name:      "overridden_targets",
			Help:      "Loggers and sinks whose original level is backed up.",
		}),
		pollCycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "poller",
			Name:      "cycles_total",
			Help:      "Poller cycles by result (ok, error, panic).",
		}, []string{"result"}),
	}
}

func (m *Metrics) activation(result string) {
	if m != nil {
		m.activations.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) levelChanged() {
	if m != nil {
		m.levelChanges.Inc()
	}
}

func (m *Metrics) skipped(reason string) {
	if m != nil {
		m.skippedEntries.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) setOverridden(n int) {
	if m != nil {
		m.overridden.Set(float64(n))
	}
}

func (m *Metrics) pollCycle(result string) {
	if m != nil {
		m.pollCycles.WithLabelValues(result).Inc()
	}
}
