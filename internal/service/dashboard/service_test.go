package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/rms/internal/domain"
	"github.com/vladislavdragonenkov/rms/internal/storage/memory"
)

var staff = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}

func seed(t *testing.T, repo *memory.OrderRepository, id string, status domain.OrderStatus, payment domain.PaymentStatus, total string, qty int, at time.Time) {
	t.Helper()
	price := decimal.RequireFromString(total)
	order := domain.Order{
		ID:            id,
		CustomerID:    "customer-1",
		Status:        status,
		PaymentStatus: payment,
		Type:          domain.OrderTypeTakeout,
		TotalPrice:    price,
		PaymentMethod: domain.PaymentMethodCash,
		Items: []domain.OrderItem{{
			ID: id + "-1", OrderID: id, ProductID: "smash", ProductName: "Smash Burger",
			Quantity: qty, UnitPrice: price, Subtotal: price,
		}},
		Version:   1,
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestSummary(t *testing.T) {
	repo := memory.NewOrderRepository()
	now := time.Now().UTC()
	seed(t, repo, "o1", domain.OrderStatusPending, domain.PaymentStatusPending, "50.00", 1, now)
	seed(t, repo, "o2", domain.OrderStatusDone, domain.PaymentStatusPaid, "30.00", 1, now)
	seed(t, repo, "o3", domain.OrderStatusCanceled, domain.PaymentStatusPending, "99.00", 1, now)

	svc := NewService(repo, time.UTC)
	summary, err := svc.Summary(context.Background(), staff)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalOrders != 2 {
		t.Fatalf("total orders = %d, want 2", summary.TotalOrders)
	}
	if !summary.Revenue.Equal(decimal.RequireFromString("80.00")) {
		t.Fatalf("revenue = %s, want 80.00", summary.Revenue)
	}
	if summary.PendingPayments != 1 {
		t.Fatalf("pending payments = %d, want 1", summary.PendingPayments)
	}
	if summary.ByStatus[domain.OrderStatusCanceled] != 1 {
		t.Fatalf("canceled count = %d", summary.ByStatus[domain.OrderStatusCanceled])
	}
	if _, ok := summary.ByStatus[domain.OrderStatusDelivering]; !ok {
		t.Fatal("every status must be present in by-status counts")
	}
}

func TestSummary_EmptyAndForbidden(t *testing.T) {
	svc := NewService(memory.NewOrderRepository(), nil)

	summary, err := svc.Summary(context.Background(), staff)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalOrders != 0 || !summary.Revenue.IsZero() {
		t.Fatalf("unexpected empty summary: %+v", summary)
	}

	if _, err := svc.Summary(context.Background(), domain.Actor{UserID: "c", Role: domain.RoleClient}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestChart_ZeroFillsWindowInStoreTimezone(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, loc)

	repo := memory.NewOrderRepository()
	// 01:30 UTC 20 мая это ещё 19 мая по местному времени.
	seed(t, repo, "late", domain.OrderStatusDone, domain.PaymentStatusPaid, "40.00", 2, time.Date(2026, 5, 20, 1, 30, 0, 0, time.UTC))
	seed(t, repo, "today", domain.OrderStatusPending, domain.PaymentStatusPending, "25.00", 1, now.UTC())
	seed(t, repo, "old", domain.OrderStatusDone, domain.PaymentStatusPaid, "70.00", 9, now.AddDate(0, 0, -10))
	seed(t, repo, "canceled", domain.OrderStatusCanceled, domain.PaymentStatusPending, "15.00", 5, now.UTC())

	svc := NewService(repo, loc)
	svc.now = func() time.Time { return now }

	chart, err := svc.Chart(context.Background(), staff)
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if len(chart.Days) != ChartDays {
		t.Fatalf("days = %d, want %d", len(chart.Days), ChartDays)
	}
	if chart.Days[0].Date != "2026-05-14" || chart.Days[6].Date != "2026-05-20" {
		t.Fatalf("window = %s..%s", chart.Days[0].Date, chart.Days[6].Date)
	}
	if !chart.Days[5].Revenue.Equal(decimal.RequireFromString("40.00")) || chart.Days[5].Orders != 1 {
		t.Fatalf("19 May = %+v", chart.Days[5])
	}
	if !chart.Days[6].Revenue.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("20 May = %+v", chart.Days[6])
	}
	if !chart.Days[0].Revenue.IsZero() || chart.Days[0].Orders != 0 {
		t.Fatalf("empty day must be zero-filled: %+v", chart.Days[0])
	}

	if len(chart.TopProducts) != 1 || chart.TopProducts[0].Quantity != 3 {
		t.Fatalf("top products = %+v", chart.TopProducts)
	}
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	if err != nil {
		t.Fatalf("default timezone: %v", err)
	}
	if loc.String() != DefaultTimezone {
		t.Fatalf("loc = %s", loc)
	}
	if _, err := LoadLocation("Mars/Olympus"); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
