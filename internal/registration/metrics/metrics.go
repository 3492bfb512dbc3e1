package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration lifecycle. Transition
// counters are labeled by target status and outcome so dashboards can show
// both throughput and refusal causes.
type Metrics struct {
	Submitted          prometheus.Counter
	Transitions        *prometheus.CounterVec
	Provisioned        prometheus.Counter
	ProvisionFailures  *prometheus.CounterVec
	TransitionDuration prometheus.Histogram
	ProvisionDuration  prometheus.Histogram
}

// New creates a Metrics instance with all lifecycle metrics registered.
func New() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "opsdesk_registrations_submitted_total",
			Help: "Total number of registrations submitted",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "opsdesk_registration_transitions_total",
			Help: "Transition attempts by target status and outcome",
		}, []string{"target", "outcome"}),
		Provisioned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "opsdesk_registrations_provisioned_total",
			Help: "Total number of registrations provisioned into customers",
		}),
		ProvisionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "opsdesk_registration_provision_failures_total",
			Help: "Provisioning failures by error kind",
		}, []string{"kind"}),
		TransitionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "opsdesk_registration_transition_duration_seconds",
			Help:    "Duration of transition attempts including the store write",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ProvisionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "opsdesk_registration_provision_duration_seconds",
			Help:    "Duration of provisioning attempts including the transaction",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementSubmitted records one accepted submission.
func (m *Metrics) IncrementSubmitted() {
	m.Submitted.Inc()
}

// RecordTransition counts one attempt by target and outcome.
func (m *Metrics) RecordTransition(target, outcome string, start time.Time) {
	m.Transitions.WithLabelValues(target, outcome).Inc()
	m.TransitionDuration.Observe(time.Since(start).Seconds())
}

// RecordProvisionSuccess counts one completed provisioning.
func (m *Metrics) RecordProvisionSuccess(start time.Time) {
	m.Provisioned.Inc()
	m.ProvisionDuration.Observe(time.Since(start).Seconds())
}

// RecordProvisionFailure counts one failed provisioning attempt by kind.
func (m *Metrics) RecordProvisionFailure(kind string, start time.Time) {
	m.ProvisionFailures.WithLabelValues(kind).Inc()
	m.ProvisionDuration.Observe(time.Since(start).Seconds())
}
