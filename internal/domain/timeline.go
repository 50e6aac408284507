package domain

import "time"

// Типы событий timeline.
const (
	TimelineOrderCreated  = "OrderCreated"
	TimelineStatusChanged = "StatusChanged"
	TimelinePaymentStatus = "PaymentStatusChanged"
	TimelineOrderCanceled = "OrderCanceled"
)

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Status   string
	Reason   string
	ActorID  string
	Occurred time.Time
}
