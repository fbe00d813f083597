package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "signalsentinel"

// Metrics bundles the collectors registered on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	providerRequests *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	itemsEvaluated   *prometheus.CounterVec
	passDuration     prometheus.Histogram
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		providerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Upstream provider calls by outcome.",
			},
			[]string{"provider", "op", "outcome"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Alert notifications by delivery outcome.",
			},
			[]string{"outcome"},
		),
		itemsEvaluated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_evaluated_total",
				Help:      "Watchlist items evaluated by status.",
			},
			[]string{"status"},
		),
		passDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pass_duration_seconds",
				Help:      "Duration of evaluation passes.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
		),
	}
	m.Registry.MustRegister(
		m.providerRequests,
		m.notifications,
		m.itemsEvaluated,
		m.passDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

// ProviderRequest counts one provider attempt.
func (m *Metrics) ProviderRequest(provider, op, outcome string) {
	if m == nil {
		return
	}
	m.providerRequests.WithLabelValues(provider, op, outcome).Inc()
}

// Notification counts one send attempt ("sent" or "failed").
func (m *Metrics) Notification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ItemEvaluated(status string) {
	if m == nil {
		return
	}
	m.itemsEvaluated.WithLabelValues(status).Inc()
}

func (m *Metrics) ObservePass(d time.Duration) {
	if m == nil {
		return
	}
	m.passDuration.Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
