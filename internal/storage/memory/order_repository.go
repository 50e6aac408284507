package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// OrderRepository — in-memory реализация OrderRepository и DashboardRepository.
type OrderRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		items: make(map[string]domain.Order),
	}
}

// Create сохраняет новый заказ, если ID ещё не занят. Одна запись под мьютексом
// даёт ту же атомарность, что и транзакция в PostgreSQL.
func (r *OrderRepository) Create(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrOrderVersionConflict
	}
	r.items[order.ID] = cloneOrder(order)
	return nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *OrderRepository) Get(_ context.Context, id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// List возвращает заказы по фильтру, новые первыми.
func (r *OrderRepository) List(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if filter.CustomerID != "" && order.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		result = append(result, cloneOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Save обновляет статусы заказа, проверяя версию (optimistic locking).
// Позиции и суммы после создания не меняются.
func (r *OrderRepository) Save(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}

	current.Status = order.Status
	current.PaymentStatus = order.PaymentStatus
	current.PaymentID = order.PaymentID
	current.UpdatedAt = order.UpdatedAt
	current.Version++
	r.items[order.ID] = current
	return nil
}

// Summary считает сводку для панели персонала.
func (r *OrderRepository) Summary(_ context.Context) (domain.DashboardSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := domain.DashboardSummary{
		Revenue:  decimal.Zero,
		ByStatus: make(map[domain.OrderStatus]int),
	}
	for _, order := range r.items {
		summary.ByStatus[order.Status]++
		if order.Status == domain.OrderStatusCanceled {
			continue
		}
		summary.TotalOrders++
		summary.Revenue = summary.Revenue.Add(order.TotalPrice)
		if !order.Status.Terminal() && order.PaymentStatus == domain.PaymentStatusPending {
			summary.PendingPayments++
		}
	}
	return summary, nil
}

// DailyRevenue группирует выручку по локальной дате создания.
func (r *OrderRepository) DailyRevenue(_ context.Context, since time.Time, loc *time.Location) ([]domain.DailyRevenue, error) {
	if loc == nil {
		loc = time.UTC
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	byDay := make(map[string]*domain.DailyRevenue)
	for _, order := range r.items {
		if order.Status == domain.OrderStatusCanceled || order.CreatedAt.Before(since) {
			continue
		}
		day := order.CreatedAt.In(loc).Format(time.DateOnly)
		entry, ok := byDay[day]
		if !ok {
			entry = &domain.DailyRevenue{Date: day, Revenue: decimal.Zero}
			byDay[day] = entry
		}
		entry.Revenue = entry.Revenue.Add(order.TotalPrice)
		entry.Orders++
	}

	result := make([]domain.DailyRevenue, 0, len(byDay))
	for _, entry := range byDay {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

// TopProducts возвращает самые продаваемые продукты за период.
func (r *OrderRepository) TopProducts(_ context.Context, since time.Time, limit int) ([]domain.TopProduct, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byProduct := make(map[string]*domain.TopProduct)
	for _, order := range r.items {
		if order.Status == domain.OrderStatusCanceled || order.CreatedAt.Before(since) {
			continue
		}
		for _, item := range order.Items {
			entry, ok := byProduct[item.ProductID]
			if !ok {
				entry = &domain.TopProduct{ProductID: item.ProductID, Name: item.ProductName}
				byProduct[item.ProductID] = entry
			}
			entry.Quantity += item.Quantity
		}
	}

	result := make([]domain.TopProduct, 0, len(byProduct))
	for _, entry := range byProduct {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Quantity != result[j].Quantity {
			return result[i].Quantity > result[j].Quantity
		}
		return result[i].Name < result[j].Name
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func cloneOrder(src domain.Order) domain.Order {
	dst := src
	if src.Address != nil {
		addr := *src.Address
		dst.Address = &addr
	}
	dst.Items = make([]domain.OrderItem, len(src.Items))
	for i, item := range src.Items {
		item.RemovedIngredients = append([]string(nil), item.RemovedIngredients...)
		item.Addons = append([]domain.ItemAddon(nil), item.Addons...)
		dst.Items[i] = item
	}
	return dst
}

var (
	_ domain.OrderRepository     = (*OrderRepository)(nil)
	_ domain.DashboardRepository = (*OrderRepository)(nil)
)
