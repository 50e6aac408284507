package ordering

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// UpdateInput — изменение статусов персоналом; пустое поле не меняется.
type UpdateInput struct {
	Status        string
	PaymentStatus string
}

// Update меняет статус и/или статус оплаты заказа. Доступно только персоналу.
// Разрешены только соседние шаги вперёд; запрос текущего статуса ничего не меняет.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id string, in UpdateInput) (domain.Order, error) {
	if !actor.IsStaff() {
		return domain.Order{}, domain.ErrForbidden
	}

	rawStatus, rawPayment := strings.TrimSpace(in.Status), strings.TrimSpace(in.PaymentStatus)
	if rawStatus == "" && rawPayment == "" {
		return domain.Order{}, domain.ErrOrderUpdateEmpty
	}

	var (
		nextStatus  domain.OrderStatus
		nextPayment domain.PaymentStatus
		err         error
	)
	if rawStatus != "" {
		if nextStatus, err = domain.ParseOrderStatus(rawStatus); err != nil {
			return domain.Order{}, err
		}
	}
	if rawPayment != "" {
		if nextPayment, err = domain.ParsePaymentStatus(rawPayment); err != nil {
			return domain.Order{}, err
		}
	}

	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	statusChanged := nextStatus != "" && nextStatus != order.Status
	if statusChanged {
		if err := checkStaffTransition(actor, order, nextStatus); err != nil {
			return domain.Order{}, err
		}
	}
	paymentChanged := nextPayment != "" && nextPayment != order.PaymentStatus

	if !statusChanged && !paymentChanged {
		return order, nil
	}

	previous := order.Status
	if statusChanged {
		order.Status = nextStatus
	}
	if paymentChanged {
		order.PaymentStatus = nextPayment
	}
	if err := s.save(ctx, &order); err != nil {
		return domain.Order{}, err
	}

	logger := s.logger.WithFields(log.Fields{"order_id": order.ID, "actor_id": actor.UserID})
	if statusChanged {
		s.metrics.RecordTransition(string(order.Status))
		logger.WithFields(log.Fields{"from": previous, "to": order.Status}).Info("order status changed")

		c := change{
			timelineType: domain.TimelineStatusChanged,
			eventType:    domain.EventOrderStatusChanged,
			status:       string(order.Status),
			actorID:      actor.UserID,
		}
		if order.Status == domain.OrderStatusCanceled {
			c.timelineType, c.eventType, c.reason = domain.TimelineOrderCanceled, domain.EventOrderCanceled, "canceled by admin"
		}
		s.recordChange(ctx, order, c)
	}
	if paymentChanged {
		logger.WithField("payment_status", order.PaymentStatus).Info("order payment status changed")
		s.recordChange(ctx, order, change{
			timelineType: domain.TimelinePaymentStatus,
			eventType:    domain.EventOrderStatusChanged,
			status:       string(order.PaymentStatus),
			actorID:      actor.UserID,
		})
	}
	return order, nil
}

// Cancel отменяет заказ. Администратор отменяет любой нетерминальный заказ,
// клиент только свой и только пока он PENDING.
func (s *Service) Cancel(ctx context.Context, actor domain.Actor, id string) (domain.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	isAdmin := actor.IsAdmin()
	if !isAdmin && order.CustomerID != actor.UserID {
		return domain.Order{}, domain.ErrForbidden
	}
	switch {
	case !order.CanCancel():
		return domain.Order{}, domain.ErrInvalidTransition
	case !isAdmin && order.Status != domain.OrderStatusPending:
		return domain.Order{}, domain.ErrOrderAlreadyInPreparation
	}

	previous := order.Status
	order.Status = domain.OrderStatusCanceled
	if err := s.save(ctx, &order); err != nil {
		return domain.Order{}, err
	}

	reason := "canceled by customer"
	if isAdmin {
		reason = "canceled by admin"
	}
	s.metrics.RecordTransition(string(order.Status))
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"actor_id": actor.UserID,
		"from":     previous,
	}).Info("order canceled")

	s.recordChange(ctx, order, change{
		timelineType: domain.TimelineOrderCanceled,
		eventType:    domain.EventOrderCanceled,
		status:       string(order.Status),
		reason:       reason,
		actorID:      actor.UserID,
	})
	return order, nil
}

// checkStaffTransition: CANCELED через Update доступен только администратору и по тем же
// правилам, что и Cancel; остальное только по таблице соседних шагов.
func checkStaffTransition(actor domain.Actor, order domain.Order, next domain.OrderStatus) error {
	if next == domain.OrderStatusCanceled {
		if !actor.IsAdmin() {
			return domain.ErrForbidden
		}
		if !order.CanCancel() {
			return domain.ErrInvalidTransition
		}
		return nil
	}
	if !order.CanAdvanceTo(next) {
		return domain.ErrInvalidTransition
	}
	return nil
}

// save пишет заказ одной операцией под optimistic lock; конфликт не повторяется.
func (s *Service) save(ctx context.Context, order *domain.Order) error {
	order.UpdatedAt = s.now()
	if err := s.orders.Save(ctx, *order); err != nil {
		if domain.IsVersionConflict(err) {
			s.logger.WithFields(log.Fields{
				"order_id": order.ID,
				"version":  order.Version,
			}).Warn("order version conflict")
		}
		return err
	}
	order.Version++
	return nil
}
