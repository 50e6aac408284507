package domain

import "time"

// AggregateOrder — тип агрегата для outbox-сообщений о заказах.
const AggregateOrder = "order"

// Типы интеграционных событий заказа.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderCanceled      = "order.canceled"
)

// OrderEvent — payload интеграционного события о заказе.
type OrderEvent struct {
	EventType     string    `json:"event_type"`
	OrderID       string    `json:"order_id"`
	CustomerID    string    `json:"customer_id"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	OrderType     string    `json:"order_type"`
	TotalPrice    string    `json:"total_price"`
	ActorID       string    `json:"actor_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewOrderEvent собирает событие из текущего состояния заказа.
func NewOrderEvent(eventType string, order Order, actorID string, at time.Time) OrderEvent {
	return OrderEvent{
		EventType:     eventType,
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		OrderType:     string(order.Type),
		TotalPrice:    order.TotalPrice.StringFixed(2),
		ActorID:       actorID,
		Timestamp:     at,
	}
}
