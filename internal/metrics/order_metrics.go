package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics — метрики сборки и жизненного цикла заказов.
type OrderMetrics struct {
	ordersCreated    *prometheus.CounterVec
	createRejected   *prometheus.CounterVec
	assembleDuration prometheus.Histogram
	droppedLines     *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	sideEffectErrors *prometheus.CounterVec
}

// NewOrderMetrics регистрирует метрики в DefaultRegisterer.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer регистрирует метрики в заданном registerer.
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	return &OrderMetrics{
		ordersCreated: register(registerer, "rms_orders_created_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rms_orders_created_total",
			Help: "Orders created grouped by order type.",
		}, []string{"type"})),
		createRejected: register(registerer, "rms_orders_rejected_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rms_orders_rejected_total",
			Help: "Order submissions rejected grouped by reason.",
		}, []string{"reason"})),
		assembleDuration: register(registerer, "rms_order_assemble_duration_seconds", prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rms_order_assemble_duration_seconds",
			Help:    "Duration of order assembly including persistence.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		})),
		droppedLines: register(registerer, "rms_cart_dropped_refs_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rms_cart_dropped_refs_total",
			Help: "Cart references dropped because the product or addon was not found.",
		}, []string{"kind"})),
		transitions: register(registerer, "rms_order_status_transitions_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rms_order_status_transitions_total",
			Help: "Order status transitions grouped by target status.",
		}, []string{"status"})),
		sideEffectErrors: register(registerer, "rms_order_side_effect_errors_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rms_order_side_effect_errors_total",
			Help: "Failed best-effort writes after an order change (timeline, outbox).",
		}, []string{"kind"})),
	}
}

// RecordOrderCreated учитывает созданный заказ и время сборки.
func (m *OrderMetrics) RecordOrderCreated(orderType string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ordersCreated.WithLabelValues(orderType).Inc()
	m.assembleDuration.Observe(duration.Seconds())
}

// RecordOrderRejected учитывает отклонённый заказ.
func (m *OrderMetrics) RecordOrderRejected(reason string) {
	if m == nil {
		return
	}
	m.createRejected.WithLabelValues(reason).Inc()
}

// RecordDroppedRefs учитывает отброшенные позиции и добавки корзины.
func (m *OrderMetrics) RecordDroppedRefs(products, addons int) {
	if m == nil {
		return
	}
	if products > 0 {
		m.droppedLines.WithLabelValues("product").Add(float64(products))
	}
	if addons > 0 {
		m.droppedLines.WithLabelValues("addon").Add(float64(addons))
	}
}

// RecordTransition учитывает смену статуса.
func (m *OrderMetrics) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

// RecordSideEffectError учитывает неудачную запись timeline или outbox.
func (m *OrderMetrics) RecordSideEffectError(kind string) {
	if m == nil {
		return
	}
	m.sideEffectErrors.WithLabelValues(kind).Inc()
}
