// Package metrics registers the Prometheus instrumentation for the
// resolution service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
type Metrics struct {
	Resolutions       *prometheus.CounterVec
	Escalations       prometheus.Counter
	CacheHits         *prometheus.CounterVec
	CacheMisses       *prometheus.CounterVec
	SwallowedFailures *prometheus.CounterVec
}

// New creates and registers all collectors on the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests use a fresh
// prometheus.NewRegistry to avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lookout_resolutions_total",
			Help: "Total resolutions completed, by terminal result kind.",
		}, []string{"kind"}),
		Escalations: factory.NewCounter(prometheus.CounterOpts{
			Name: "lookout_escalations_total",
			Help: "Keyword queries promoted to a registry lookup via a discovered identifier.",
		}),
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lookout_cache_hits_total",
			Help: "Memo cache hits, by tier.",
		}, []string{"tier"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lookout_cache_misses_total",
			Help: "Memo cache misses, by tier.",
		}, []string{"tier"}),
		SwallowedFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lookout_swallowed_failures_total",
			Help: "Supplementary fetch failures degraded to empty contributions, by stage.",
		}, []string{"stage"}),
	}
}
