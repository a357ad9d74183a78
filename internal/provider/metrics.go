package provider

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes recorded per provider run.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Metrics records provider activity. A nil *Metrics records nothing.
type Metrics struct {
	results  *prometheus.CounterVec
	entities *prometheus.CounterVec
	stage    *prometheus.HistogramVec
}

// NewMetrics registers the provider metrics with reg. A nil reg keeps them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		results: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalogsearch_provider_results_total",
				Help: "Provider runs by provider type and outcome",
			},
			[]string{"type", "outcome"},
		),
		entities: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalogsearch_provider_entities_total",
				Help: "Entities returned by provider type",
			},
			[]string{"type"},
		),
		stage: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalogsearch_provider_round_seconds",
				Help:    "Duration of search round stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// ObserveRun records one provider run and the number of entities it returned.
func (m *Metrics) ObserveRun(typ, outcome string, n int) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(typ, outcome).Inc()
	if n > 0 {
		m.entities.WithLabelValues(typ).Add(float64(n))
	}
}

// ObserveStage records the duration of a round stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stage.WithLabelValues(stage).Observe(d.Seconds())
}
