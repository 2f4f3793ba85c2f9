package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReplyMetrics exposes counters/histograms for reply generation.
type ReplyMetrics struct {
	requestsTotal   *prometheus.CounterVec
	providerTotal   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
}

func NewReplyMetrics(reg prometheus.Registerer) *ReplyMetrics {
	m := &ReplyMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "email_writer",
			Subsystem: "reply",
			Name:      "requests_total",
			Help:      "Total reply generation requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		providerTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "email_writer",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Total generative-language provider calls",
		}, []string{"transport", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "email_writer",
			Subsystem: "provider",
			Name:      "latency_seconds",
			Help:      "Latency of generative-language provider calls",
			Buckets:   []float64{.1, .25, .5, 1, 2, 4, 8, 15, 30, 60},
		}, []string{"transport"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.providerTotal, m.providerLatency)
	return m
}

func (m *ReplyMetrics) ObserveRequest(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(endpoint, outcome).Inc()
}

func (m *ReplyMetrics) ObserveProvider(transport, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.providerTotal.WithLabelValues(transport, outcome).Inc()
	m.providerLatency.WithLabelValues(transport).Observe(seconds)
}

// Handler serves the given gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
