package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the credential module.
type Metrics struct {
	// Credentials issued, by batch kind ("labeled", "anonymous", "manual")
	Issued *prometheus.CounterVec

	// Credentials revoked
	Revoked prometheus.Counter

	// Issuance batches rejected for exceeding the code space capacity bound
	CapacityRejections prometheus.Counter

	// Digest collisions hit during issuance (retried internally)
	Collisions prometheus.Counter
}

// New creates a new Metrics instance with all credential module metrics registered.
func New() *Metrics {
	return &Metrics{
		Issued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "votilio_credentials_issued_total",
			Help: "Total credentials issued by mode",
		}, []string{"mode"}),

		Revoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "votilio_credentials_revoked_total",
			Help: "Total credentials revoked",
		}),

		CapacityRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "votilio_credential_capacity_rejections_total",
			Help: "Issuance requests rejected for exceeding code space capacity",
		}),

		Collisions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "votilio_credential_collisions_total",
			Help: "Digest collisions encountered and retried during issuance",
		}),
	}
}

// IncrementIssued records issued credentials by mode.
func (m *Metrics) IncrementIssued(mode string, n int) {
	if m != nil {
		m.Issued.WithLabelValues(mode).Add(float64(n))
	}
}

// IncrementRevoked records a credential revocation.
func (m *Metrics) IncrementRevoked() {
	if m != nil {
		m.Revoked.Inc()
	}
}

// IncrementCapacityRejection records an issuance rejected at the capacity bound.
func (m *Metrics) IncrementCapacityRejection() {
	if m != nil {
		m.CapacityRejections.Inc()
	}
}

// IncrementCollision records a retried digest collision.
func (m *Metrics) IncrementCollision() {
	if m != nil {
		m.Collisions.Inc()
	}
}
