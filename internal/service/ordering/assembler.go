package ordering

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// CreateOrderInput — оформление заказа из корзины.
type CreateOrderInput struct {
	Items         []CartLine
	Type          string
	AddressID     string
	PaymentMethod string
	PaymentID     string
}

// Create собирает и сохраняет заказ от имени клиента.
//
// Порядок: магазин открыт → входные данные → адрес (только DELIVERY) → тариф →
// пакетный поиск каталога → позиции и сумма → атомарное сохранение.
// Сумма считается один раз и дальше не пересчитывается.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateOrderInput) (domain.Order, error) {
	started := time.Now()

	open, err := s.store.IsOpen(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("check store status: %w", err)
	}
	if !open {
		s.metrics.RecordOrderRejected("store_closed")
		return domain.Order{}, domain.ErrStoreClosed
	}

	orderType, err := validateCreateInput(actor, in)
	if err != nil {
		s.metrics.RecordOrderRejected("validation")
		return domain.Order{}, err
	}

	var address *domain.AddressSnapshot
	addressID := ""
	if orderType == domain.OrderTypeDelivery {
		addressID = strings.TrimSpace(in.AddressID)
		if addressID == "" {
			s.metrics.RecordOrderRejected("validation")
			return domain.Order{}, domain.ErrAddressRequired
		}
		stored, err := s.addresses.GetForOwner(ctx, addressID, actor.UserID)
		if err != nil {
			return domain.Order{}, err
		}
		address = stored.Snapshot()
	}
	quote := QuoteOrder(orderType, address)

	resolution, err := s.resolveCart(ctx, in.Items)
	if err != nil {
		return domain.Order{}, err
	}
	if resolution.DroppedLines > 0 || resolution.DroppedAddons > 0 {
		s.metrics.RecordDroppedRefs(resolution.DroppedLines, resolution.DroppedAddons)
		s.logger.WithFields(log.Fields{
			"customer_id":    actor.UserID,
			"dropped_lines":  resolution.DroppedLines,
			"dropped_addons": resolution.DroppedAddons,
		}).Info("cart references not found in catalog were skipped")
	}

	now := s.now()
	order := domain.Order{
		ID:                    uuid.NewString(),
		CustomerID:            actor.UserID,
		Status:                domain.OrderStatusPending,
		PaymentStatus:         domain.PaymentStatusPending,
		Type:                  orderType,
		AddressID:             addressID,
		Address:               address,
		DeliveryFee:           quote.Fee,
		EstimatedDeliveryTime: quote.EstimatedTime,
		PaymentMethod:         strings.TrimSpace(in.PaymentMethod),
		PaymentID:             strings.TrimSpace(in.PaymentID),
		Items:                 resolution.Items,
		Version:               1,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	for i := range order.Items {
		order.Items[i].ID = uuid.NewString()
		order.Items[i].OrderID = order.ID
	}
	order.TotalPrice = order.ItemsTotal().Add(order.DeliveryFee)

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errors.Join(errs...)
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.WithError(err).WithField("customer_id", actor.UserID).Error("failed to persist order")
		return domain.Order{}, err
	}

	s.metrics.RecordOrderCreated(string(order.Type), time.Since(started))
	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"type":        order.Type,
		"items":       len(order.Items),
		"total":       order.TotalPrice.StringFixed(2),
	}).Info("order created")

	s.recordChange(ctx, order, change{
		timelineType: domain.TimelineOrderCreated,
		eventType:    domain.EventOrderCreated,
		status:       string(order.Status),
		actorID:      actor.UserID,
	})
	return order, nil
}

func validateCreateInput(actor domain.Actor, in CreateOrderInput) (domain.OrderType, error) {
	var errs []error
	if strings.TrimSpace(actor.UserID) == "" {
		errs = append(errs, domain.ErrCustomerRequired)
	}

	orderType, err := domain.ParseOrderType(in.Type)
	if err != nil {
		errs = append(errs, err)
	}
	for _, line := range in.Items {
		if line.Quantity < 1 {
			errs = append(errs, domain.ErrItemQtyInvalid)
			break
		}
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		errs = append(errs, domain.ErrPaymentMethodRequired)
	}
	return orderType, errors.Join(errs...)
}

// resolveCart делает ровно по одному пакетному запросу за продуктами и добавками.
func (s *Service) resolveCart(ctx context.Context, lines []CartLine) (CartResolution, error) {
	productIDs, addonIDs := cartRefs(lines)

	var (
		products []domain.Product
		addons   []domain.Addon
		err      error
	)
	if len(productIDs) > 0 {
		if products, err = s.catalog.FindProductsByIDs(ctx, productIDs); err != nil {
			return CartResolution{}, fmt.Errorf("lookup products: %w", err)
		}
	}
	if len(addonIDs) > 0 {
		if addons, err = s.catalog.FindAddonsByIDs(ctx, addonIDs); err != nil {
			return CartResolution{}, fmt.Errorf("lookup addons: %w", err)
		}
	}
	return ResolveCartLines(lines, products, addons), nil
}
