package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every MenuQR collector.
const Namespace = "menuqr"

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPLatency     *prometheus.HistogramVec
	Scans           *prometheus.CounterVec
	LimitWarnings   *prometheus.CounterVec
	Orders          *prometheus.CounterVec
	OrderTransition *prometheus.CounterVec
	RateLimited     *prometheus.CounterVec
	Errors          *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton.
func Registry() *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by route and status code.",
			}, []string{"method", "route", "status"}),
			HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Latency distribution for HTTP requests.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method", "route"}),
			Scans: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "qr_scans_total",
				Help:      "Total QR scans recorded, split by whether a table was identified.",
			}, []string{"table"}),
			LimitWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "scan_limit_notifications_total",
				Help:      "Scans that crossed a soft-limit notification level.",
			}, []string{"level"}),
			Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "orders_created_total",
				Help:      "Total table orders placed.",
			}, []string{"outcome"}),
			OrderTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "order_status_changes_total",
				Help:      "Order status changes by target status.",
			}, []string{"status"}),
			RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "rate_limited_requests_total",
				Help:      "Requests refused by the rate limiter by scope.",
			}, []string{"scope"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "errors_total",
				Help:      "Total internal errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.HTTPRequests,
			metricsInstance.HTTPLatency,
			metricsInstance.Scans,
			metricsInstance.LimitWarnings,
			metricsInstance.Orders,
			metricsInstance.OrderTransition,
			metricsInstance.RateLimited,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}
