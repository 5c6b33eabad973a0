package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for status lists and credential status changes.
type Metrics struct {
	StatusListRotations     *prometheus.CounterVec
	StatusListRotateFailure *prometheus.CounterVec
	IndexAllocations        *prometheus.CounterVec
	IndexConflicts          *prometheus.CounterVec
	CredentialsRevoked      *prometheus.CounterVec
	RevokeConflicts         prometheus.Counter
	PublishLatency          prometheus.Histogram
}

// New registers the collectors with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StatusListRotations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vcissuer_statuslist_rotations_total",
			Help: "Total number of status-list credentials created, labeled by participant",
		}, []string{"participant"}),
		StatusListRotateFailure: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vcissuer_statuslist_rotation_failures_total",
			Help: "Total number of failed status-list rotations, labeled by stage",
		}, []string{"stage"}),
		IndexAllocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vcissuer_statuslist_index_allocations_total",
			Help: "Total number of status-list slots handed out, labeled by participant",
		}, []string{"participant"}),
		IndexConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vcissuer_statuslist_index_conflicts_total",
			Help: "Total number of lost compare-and-swap races on the status-list index",
		}, []string{"participant"}),
		CredentialsRevoked: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vcissuer_credentials_revoked_total",
			Help: "Total number of credentials revoked, labeled by participant",
		}, []string{"participant"}),
		RevokeConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "vcissuer_credentials_revoke_conflicts_total",
			Help: "Total number of revoke transactions retried after a version conflict",
		}),
		PublishLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vcissuer_statuslist_publish_latency_seconds",
			Help:    "Latency of publishing a status-list credential",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}
