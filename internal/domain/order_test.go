package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// helper для создания базового заказа с одной позицией.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:            "order-1",
		CustomerID:    "customer-1",
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		Type:          domain.OrderTypeDelivery,
		AddressID:     "addr-1",
		Address:       &domain.AddressSnapshot{Neighborhood: "Copacabana", City: "Rio de Janeiro", State: "RJ"},
		DeliveryFee:   decimal.RequireFromString("10.00"),
		TotalPrice:    decimal.RequireFromString("79.80"),
		PaymentMethod: domain.PaymentMethodPix,
		Items: []domain.OrderItem{
			{
				ID:        "item-1",
				ProductID: "burger-1",
				Quantity:  2,
				UnitPrice: decimal.RequireFromString("34.90"),
				Subtotal:  decimal.RequireFromString("69.80"),
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_EmptyItemsTotalIsFee(t *testing.T) {
	order := makeOrder()
	order.Items = nil
	order.TotalPrice = order.DeliveryFee

	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *domain.Order)
		want   error
	}{
		{
			name:   "missing customer",
			mutate: func(o *domain.Order) { o.CustomerID = "" },
			want:   domain.ErrCustomerRequired,
		},
		{
			name:   "unknown type",
			mutate: func(o *domain.Order) { o.Type = "DRONE" },
			want:   domain.ErrOrderTypeInvalid,
		},
		{
			name:   "delivery without address",
			mutate: func(o *domain.Order) { o.Address = nil },
			want:   domain.ErrAddressRequired,
		},
		{
			name:   "zero quantity",
			mutate: func(o *domain.Order) { o.Items[0].Quantity = 0 },
			want:   domain.ErrItemQtyInvalid,
		},
		{
			name:   "total mismatch",
			mutate: func(o *domain.Order) { o.TotalPrice = decimal.RequireFromString("79.79") },
			want:   domain.ErrAmountMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := makeOrder()
			tt.mutate(&order)

			errs := order.ValidateInvariants()
			if !errors.Is(errors.Join(errs...), tt.want) {
				t.Fatalf("expected %v among %v", tt.want, errs)
			}
		})
	}
}

func TestOrderCanAdvanceTo(t *testing.T) {
	tests := []struct {
		name      string
		orderType domain.OrderType
		from      domain.OrderStatus
		to        domain.OrderStatus
		want      bool
	}{
		{"pending to preparing", domain.OrderTypeDelivery, domain.OrderStatusPending, domain.OrderStatusPreparing, true},
		{"pending to done skips steps", domain.OrderTypeDelivery, domain.OrderStatusPending, domain.OrderStatusDone, false},
		{"preparing to delivering", domain.OrderTypeDelivery, domain.OrderStatusPreparing, domain.OrderStatusDelivering, true},
		{"delivery cannot go to pickup", domain.OrderTypeDelivery, domain.OrderStatusPreparing, domain.OrderStatusReadyForPickup, false},
		{"takeout preparing to pickup", domain.OrderTypeTakeout, domain.OrderStatusPreparing, domain.OrderStatusReadyForPickup, true},
		{"takeout cannot go delivering", domain.OrderTypeTakeout, domain.OrderStatusPreparing, domain.OrderStatusDelivering, false},
		{"delivering to done", domain.OrderTypeDelivery, domain.OrderStatusDelivering, domain.OrderStatusDone, true},
		{"pickup to done", domain.OrderTypeTakeout, domain.OrderStatusReadyForPickup, domain.OrderStatusDone, true},
		{"backwards", domain.OrderTypeDelivery, domain.OrderStatusDelivering, domain.OrderStatusPreparing, false},
		{"done is terminal", domain.OrderTypeDelivery, domain.OrderStatusDone, domain.OrderStatusPending, false},
		{"canceled is terminal", domain.OrderTypeDelivery, domain.OrderStatusCanceled, domain.OrderStatusPreparing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := domain.Order{Type: tt.orderType, Status: tt.from}
			if got := order.CanAdvanceTo(tt.to); got != tt.want {
				t.Fatalf("CanAdvanceTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := domain.ParseOrderStatus(" finished ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != domain.OrderStatusDone {
		t.Fatalf("expected FINISHED to map to DONE, got %s", status)
	}

	status, err = domain.ParseOrderStatus("ready_for_pickup")
	if err != nil || status != domain.OrderStatusReadyForPickup {
		t.Fatalf("unexpected parse result: %s, %v", status, err)
	}

	if _, err := domain.ParseOrderStatus("shipped"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, status := range domain.AllOrderStatuses() {
		want := status == domain.OrderStatusDone || status == domain.OrderStatusCanceled
		if got := status.Terminal(); got != want {
			t.Fatalf("%s terminal=%v, want %v", status, got, want)
		}
	}
}
