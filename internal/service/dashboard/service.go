// Package dashboard считает сводки по заказам для персонала.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

const (
	// ChartDays — длина окна графика в локальных календарных днях, включая сегодня.
	ChartDays       = 7
	topProductLimit = 5

	DefaultTimezone = "America/Sao_Paulo"
)

// Service — агрегаты для панели персонала.
type Service struct {
	repo domain.DashboardRepository
	loc  *time.Location
	now  func() time.Time
}

// NewService создаёт сервис; loc задаёт часовой пояс магазина, nil означает UTC.
func NewService(repo domain.DashboardRepository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, now: time.Now}
}

// LoadLocation разбирает часовой пояс магазина; пустое имя означает DefaultTimezone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load store timezone %q: %w", name, err)
	}
	return loc, nil
}

// Summary возвращает сводку по всем заказам.
func (s *Service) Summary(ctx context.Context, actor domain.Actor) (domain.DashboardSummary, error) {
	if !actor.IsStaff() {
		return domain.DashboardSummary{}, domain.ErrForbidden
	}
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return domain.DashboardSummary{}, fmt.Errorf("dashboard summary: %w", err)
	}
	if summary.ByStatus == nil {
		summary.ByStatus = make(map[domain.OrderStatus]int)
	}
	for _, status := range domain.AllOrderStatuses() {
		if _, ok := summary.ByStatus[status]; !ok {
			summary.ByStatus[status] = 0
		}
	}
	return summary, nil
}

// Chart возвращает выручку за последние ChartDays дней (пустые дни с нулями)
// и топ продуктов за то же окно.
func (s *Service) Chart(ctx context.Context, actor domain.Actor) (domain.DashboardChart, error) {
	if !actor.IsStaff() {
		return domain.DashboardChart{}, domain.ErrForbidden
	}

	start := windowStart(s.now(), s.loc)
	daily, err := s.repo.DailyRevenue(ctx, start, s.loc)
	if err != nil {
		return domain.DashboardChart{}, fmt.Errorf("dashboard daily revenue: %w", err)
	}
	top, err := s.repo.TopProducts(ctx, start, topProductLimit)
	if err != nil {
		return domain.DashboardChart{}, fmt.Errorf("dashboard top products: %w", err)
	}
	if top == nil {
		top = []domain.TopProduct{}
	}

	return domain.DashboardChart{
		Days:        fillDays(start, s.loc, daily),
		TopProducts: top,
	}, nil
}

// windowStart — локальная полночь первого дня окна.
func windowStart(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return midnight.AddDate(0, 0, -(ChartDays - 1))
}

func fillDays(start time.Time, loc *time.Location, daily []domain.DailyRevenue) []domain.DailyRevenue {
	byDate := make(map[string]domain.DailyRevenue, len(daily))
	for _, d := range daily {
		byDate[d.Date] = d
	}

	days := make([]domain.DailyRevenue, 0, ChartDays)
	for i := 0; i < ChartDays; i++ {
		date := start.In(loc).AddDate(0, 0, i).Format(time.DateOnly)
		if d, ok := byDate[date]; ok {
			days = append(days, d)
			continue
		}
		days = append(days, domain.DailyRevenue{Date: date, Revenue: decimal.Zero})
	}
	return days
}
