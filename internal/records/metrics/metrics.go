package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the records module.
// Tracks writes per collection, approval decisions and store latency.
type Metrics struct {
	RecordsCreated    *prometheus.CounterVec
	ApprovalDecisions *prometheus.CounterVec
	PhotosUploaded    prometheus.Counter
	StoreDuration     *prometheus.HistogramVec
}

// New registers the records metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agristack_records_created_total",
			Help: "Records created, by collection",
		}, []string{"collection"}),
		ApprovalDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agristack_approval_decisions_total",
			Help: "Approval status changes, by collection and new status",
		}, []string{"collection", "status"}),
		PhotosUploaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "agristack_photos_uploaded_total",
			Help: "Photos stored in the blob directory",
		}),
		StoreDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agristack_records_store_duration_seconds",
			Help:    "Duration of record store calls made by the records service",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementCreated(collection string) {
	if m == nil {
		return
	}
	m.RecordsCreated.WithLabelValues(collection).Inc()
}

func (m *Metrics) IncrementApproval(collection, status string) {
	if m == nil {
		return
	}
	m.ApprovalDecisions.WithLabelValues(collection, status).Inc()
}

func (m *Metrics) IncrementPhotos() {
	if m == nil {
		return
	}
	m.PhotosUploaded.Inc()
}

// ObserveStore records a store call. Call with time.Now() at the start.
func (m *Metrics) ObserveStore(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
