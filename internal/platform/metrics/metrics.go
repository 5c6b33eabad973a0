package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP holds request-level metrics for the admin and status-list endpoints.
type HTTP struct {
	EndpointLatency *prometheus.HistogramVec
	Responses       *prometheus.CounterVec
}

// NewHTTP registers HTTP metrics with the default registry.
func NewHTTP() *HTTP {
	return NewHTTPWithRegisterer(prometheus.DefaultRegisterer)
}

func NewHTTPWithRegisterer(reg prometheus.Registerer) *HTTP {
	factory := promauto.With(reg)
	return &HTTP{
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vcissuer_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		Responses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vcissuer_http_responses_total",
			Help: "HTTP responses by route and status class",
		}, []string{"route", "class"}),
	}
}

func (m *HTTP) ObserveRequest(route string, status int, seconds float64) {
	m.EndpointLatency.WithLabelValues(route).Observe(seconds)
	m.Responses.WithLabelValues(route, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
