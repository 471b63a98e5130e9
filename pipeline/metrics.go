package pipeline

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters a long-running dirtabase process exposes
// on its /metrics endpoint: per-operator execution counts and build
// cache hit/miss counts, per spec.md §4.6's stage contract.
type Metrics struct {
	Executions *prometheus.CounterVec
	CacheHits  *prometheus.CounterVec
	CacheMiss  *prometheus.CounterVec
}

// NewMetrics registers a fresh set of counters against reg. Callers
// that don't want process metrics (e.g. the one-shot CLI) can pass a
// throwaway registry and never serve it.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dirtabase",
			Name:      "operator_executions_total",
			Help:      "Number of times an operator actually ran (excludes cache hits), by operator name.",
		}, []string{"operator"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dirtabase",
			Name:      "build_cache_hits_total",
			Help:      "Number of build-cache hits, by operator name.",
		}, []string{"operator"}),
		CacheMiss: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dirtabase",
			Name:      "build_cache_misses_total",
			Help:      "Number of build-cache misses that led to an actual execution, by operator name.",
		}, []string{"operator"}),
	}
	reg.MustRegister(m.Executions, m.CacheHits, m.CacheMiss)
	return m
}
