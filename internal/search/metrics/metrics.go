package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search outcomes.
const (
	OutcomeShortTerm = "short_term"
	OutcomeCacheHit  = "cache_hit"
	OutcomeComplete  = "complete"
	OutcomePartial   = "partial"
)

// Metrics tracks search volume, sub-query failures and latency.
type Metrics struct {
	Searches         *prometheus.CounterVec
	SubqueryFailures *prometheus.CounterVec
	SearchDuration   prometheus.Histogram
	ResultsReturned  prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Searches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agristack_searches_total",
			Help: "Searches handled, by outcome",
		}, []string{"outcome"}),
		SubqueryFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agristack_search_subquery_failures_total",
			Help: "Per-collection search queries that failed and contributed no rows",
		}, []string{"collection"}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agristack_search_duration_seconds",
			Help:    "End-to-end duration of a search fan-out",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		ResultsReturned: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agristack_search_results",
			Help:    "Number of merged results returned per search",
			Buckets: []float64{0, 1, 2, 5, 8, 10},
		}),
	}
}

func (m *Metrics) IncrementSearch(outcome string) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementSubqueryFailure(collection string) {
	if m == nil {
		return
	}
	m.SubqueryFailures.WithLabelValues(collection).Inc()
}

// ObserveSearch records duration since start and the result count.
func (m *Metrics) ObserveSearch(start time.Time, results int) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(time.Since(start).Seconds())
	m.ResultsReturned.Observe(float64(results))
}
