package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the cast path.
type Metrics struct {
	// Accepted ballots
	Accepted prometheus.Counter

	// Rejected casts by internal reason
	Rejected *prometheus.CounterVec

	// Credentials consumed whose ballot write then failed. Any nonzero
	// value needs operator attention.
	ReconciliationRequired prometheus.Counter

	// End-to-end cast latency
	CastLatency prometheus.Histogram
}

// New creates a new Metrics instance with all cast path metrics registered.
func New() *Metrics {
	return &Metrics{
		Accepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "votilio_ballots_accepted_total",
			Help: "Total ballots accepted into the box",
		}),

		Rejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "votilio_casts_rejected_total",
			Help: "Total rejected casts by internal reason",
		}, []string{"reason"}),

		ReconciliationRequired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "votilio_reconciliation_required_total",
			Help: "Credentials redeemed whose ballot write failed",
		}),

		CastLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "votilio_cast_duration_seconds",
			Help:    "Duration of full cast handling including ballot write",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementAccepted records an accepted ballot.
func (m *Metrics) IncrementAccepted() {
	if m != nil {
		m.Accepted.Inc()
	}
}

// IncrementRejected records a rejected cast.
func (m *Metrics) IncrementRejected(reason string) {
	if m != nil {
		m.Rejected.WithLabelValues(reason).Inc()
	}
}

// IncrementReconciliationRequired records a stranded redemption.
func (m *Metrics) IncrementReconciliationRequired() {
	if m != nil {
		m.ReconciliationRequired.Inc()
	}
}

// ObserveCastLatency records the duration of one cast.
func (m *Metrics) ObserveCastLatency(d time.Duration) {
	if m != nil {
		m.CastLatency.Observe(d.Seconds())
	}
}
