package ordering

import (
	"context"
	"strings"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// ListInput — фильтр списка заказов.
type ListInput struct {
	Status string
	Limit  int
}

// Get возвращает заказ. Чужой заказ для клиента неотличим от несуществующего.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id string) (domain.Order, error) {
	order, err := s.orders.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Order{}, err
	}
	if !actor.IsStaff() && order.CustomerID != actor.UserID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

// List возвращает свои заказы клиенту и все заказы персоналу, новые первыми.
func (s *Service) List(ctx context.Context, actor domain.Actor, in ListInput) ([]domain.Order, error) {
	filter := domain.OrderFilter{Limit: clampLimit(in.Limit)}
	if !actor.IsStaff() {
		filter.CustomerID = actor.UserID
	}
	if raw := strings.TrimSpace(in.Status); raw != "" {
		status, err := domain.ParseOrderStatus(raw)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}
	return s.orders.List(ctx, filter)
}

// Timeline возвращает историю заказа с теми же правами доступа, что и Get.
func (s *Service) Timeline(ctx context.Context, actor domain.Actor, id string) ([]domain.TimelineEvent, error) {
	order, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if s.timeline == nil {
		return []domain.TimelineEvent{}, nil
	}
	return s.timeline.List(ctx, order.ID)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
