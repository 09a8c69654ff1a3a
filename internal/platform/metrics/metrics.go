package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Every method is
// safe on a nil receiver so components can run without metrics in tests.
type Metrics struct {
	GateDecisions       *prometheus.CounterVec
	UsersRegistered     prometheus.Counter
	DonationTransitions *prometheus.CounterVec
	PaymentsRecorded    prometheus.Counter
	FundingMinorUnits   prometheus.Counter
	RequestDuration     *prometheus.HistogramVec
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		GateDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeline_gate_decisions_total",
			Help: "Access policy decisions by operation and outcome",
		}, []string{"operation", "outcome"}),
		UsersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_users_registered_total",
			Help: "Total number of identities created in the directory",
		}),
		DonationTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeline_donation_transitions_total",
			Help: "Donation request status transitions by target status",
		}, []string{"to"}),
		PaymentsRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_payments_recorded_total",
			Help: "Total number of payment records appended",
		}),
		FundingMinorUnits: f.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_funding_minor_units_total",
			Help: "Sum of recorded payment amounts in minor currency units",
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lifeline_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ObserveGateDecision(operation, outcome string) {
	if m == nil {
		return
	}
	m.GateDecisions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) IncrementUsersRegistered() {
	if m == nil {
		return
	}
	m.UsersRegistered.Inc()
}

func (m *Metrics) ObserveDonationTransition(to string) {
	if m == nil {
		return
	}
	m.DonationTransitions.WithLabelValues(to).Inc()
}

func (m *Metrics) ObservePayment(amount int64) {
	if m == nil {
		return
	}
	m.PaymentsRecorded.Inc()
	m.FundingMinorUnits.Add(float64(amount))
}

// ObserveRequest records latency. Call with time.Now() at the start of the request.
func (m *Metrics) ObserveRequest(method, route, status string, start time.Time) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
}
