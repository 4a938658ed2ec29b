package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Export outcomes.
const (
	OutcomeGenerated   = "generated"
	OutcomeNoData      = "no_data"
	OutcomeUnavailable = "unavailable"
	OutcomeFailed      = "failed"
)

type Metrics struct {
	Exports        *prometheus.CounterVec
	RowsExported   *prometheus.HistogramVec
	ExportDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agristack_exports_total",
			Help: "Export requests by report type, format and outcome",
		}, []string{"type", "format", "outcome"}),
		RowsExported: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agristack_export_rows",
			Help:    "Rows written per generated export",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"type"}),
		ExportDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agristack_export_duration_seconds",
			Help:    "Time to fetch and render an export",
			Buckets: prometheus.DefBuckets,
		}, []string{"format"}),
	}
}

func (m *Metrics) IncrementExport(reportType, format, outcome string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(reportType, format, outcome).Inc()
}

func (m *Metrics) ObserveRows(reportType string, rows int) {
	if m == nil {
		return
	}
	m.RowsExported.WithLabelValues(reportType).Observe(float64(rows))
}

func (m *Metrics) ObserveDuration(format string, start time.Time) {
	if m == nil {
		return
	}
	m.ExportDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
}
