package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quillback/waystone/internal/rules"
)

// Metrics mirrors engine activity into Prometheus collectors. Collectors
// are created unregistered; Register attaches them to a registry, so an
// embedding program without a metrics endpoint pays nothing.
type Metrics struct {
	recomputes      prometheus.Counter
	recomputePasses prometheus.Histogram
	recomputeTime   prometheus.Histogram
	ruleEvals       prometheus.Counter
	failClosed      *prometheus.CounterVec
}

func newMetrics() *Metrics {
	return &Metrics{
		recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "waystone_recomputes_total",
			Help: "Reachability recomputations run.",
		}),
		recomputePasses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "waystone_recompute_passes",
			Help:    "Fixed-point passes per recompute.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		recomputeTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "waystone_recompute_duration_seconds",
			Help:    "Wall time per recompute.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		ruleEvals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "waystone_rule_evaluations_total",
			Help: "Top-level rule evaluations.",
		}),
		failClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waystone_rule_fail_closed_total",
			Help: "Fail-closed rule diagnostics by kind.",
		}, []string{"kind"}),
	}
}

// Register attaches the engine's collectors to a registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.recomputes,
		m.recomputePasses,
		m.recomputeTime,
		m.ruleEvals,
		m.failClosed,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) observeDiagnostic(kind rules.DiagKind) {
	m.failClosed.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) observeRecompute(passes int, seconds float64, evals int64) {
	m.recomputes.Inc()
	m.recomputePasses.Observe(float64(passes))
	m.recomputeTime.Observe(seconds)
	if evals > 0 {
		m.ruleEvals.Add(float64(evals))
	}
}

// Stats are plain counters for tests and status output, independent of
// Prometheus scraping.
type Stats struct {
	// Recomputes counts reachability recomputations since construction.
	Recomputes int64
	// LastPasses is the pass count of the most recent recompute.
	LastPasses int
	// Notifications counts notify callback invocations.
	Notifications int64
}
