package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the issuance engine.
type Metrics struct {
	ProcessesLeased    prometheus.Counter
	ProcessesDelivered prometheus.Counter
	ProcessesErrored   prometheus.Counter
	AttemptFailures    *prometheus.CounterVec
	AttemptsDeferred   prometheus.Counter
	CredentialsIssued  *prometheus.CounterVec
	AttemptLatency     *prometheus.HistogramVec
	PollErrors         prometheus.Counter
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProcessesLeased: factory.NewCounter(prometheus.CounterOpts{
			Name: "vcissuer_issuance_processes_leased_total",
			Help: "Total number of issuance processes leased by the engine",
		}),
		ProcessesDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "vcissuer_issuance_processes_delivered_total",
			Help: "Total number of issuance processes that reached DELIVERED",
		}),
		ProcessesErrored: factory.NewCounter(prometheus.CounterOpts{
			Name: "vcissuer_issuance_processes_errored_total",
			Help: "Total number of issuance processes that reached ERRORED",
		}),
		AttemptFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vcissuer_issuance_attempt_failures_total",
			Help: "Total number of failed processing attempts, labeled by phase",
		}, []string{"phase"}),
		AttemptsDeferred: factory.NewCounter(prometheus.CounterOpts{
			Name: "vcissuer_issuance_attempts_deferred_total",
			Help: "Total number of leased processes released because their retry delay had not elapsed",
		}),
		CredentialsIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vcissuer_credentials_issued_total",
			Help: "Total number of credentials issued, labeled by format",
		}, []string{"format"}),
		AttemptLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vcissuer_issuance_attempt_duration_seconds",
			Help:    "Duration of one processing attempt, labeled by outcome",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
		PollErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "vcissuer_issuance_poll_errors_total",
			Help: "Total number of failed lease queries",
		}),
	}
}

func (m *Metrics) IncrementAttemptFailure(phase string) {
	m.AttemptFailures.WithLabelValues(phase).Inc()
}

func (m *Metrics) IncrementCredentialsIssued(format string) {
	m.CredentialsIssued.WithLabelValues(format).Inc()
}

func (m *Metrics) ObserveAttempt(outcome string, d time.Duration) {
	m.AttemptLatency.WithLabelValues(outcome).Observe(d.Seconds())
}
