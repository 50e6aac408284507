package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics — метрики REST API.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewHTTPMetrics регистрирует метрики HTTP в заданном registerer.
func NewHTTPMetrics(registerer prometheus.Registerer) *HTTPMetrics {
	return &HTTPMetrics{
		requests: register(registerer, "rms_http_requests_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rms_http_requests_total",
			Help: "HTTP requests grouped by method, route and status code.",
		}, []string{"method", "route", "code"})),
		duration: register(registerer, "rms_http_request_duration_seconds", prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rms_http_request_duration_seconds",
			Help:    "HTTP request latency grouped by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})),
		inFlight: register(registerer, "rms_http_requests_in_flight", prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rms_http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		})),
	}
}

// Started отмечает начало запроса.
func (m *HTTPMetrics) Started() {
	m.inFlight.Inc()
}

// Observe фиксирует завершённый запрос. route задаётся шаблоном маршрута, а не сырым путём.
func (m *HTTPMetrics) Observe(method, route string, code int, duration time.Duration) {
	m.inFlight.Dec()
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(method, route).Observe(duration.Seconds())
}
