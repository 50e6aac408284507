package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа ресторана.
type OrderStatus string

const (
	// OrderStatusPending — заказ принят, кухня ещё не начала готовить.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusPreparing — заказ готовится.
	OrderStatusPreparing OrderStatus = "PREPARING"
	// OrderStatusDelivering — курьер везёт заказ (только DELIVERY).
	OrderStatusDelivering OrderStatus = "DELIVERING"
	// OrderStatusReadyForPickup — заказ ждёт клиента на выдаче (только TAKEOUT).
	OrderStatusReadyForPickup OrderStatus = "READY_FOR_PICKUP"
	// OrderStatusDone — заказ выдан; терминальный статус.
	OrderStatusDone OrderStatus = "DONE"
	// OrderStatusCanceled — заказ отменён; терминальный статус.
	OrderStatusCanceled OrderStatus = "CANCELED"
)

// legacyStatusFinished принимается на входе как синоним DONE.
const legacyStatusFinished = "FINISHED"

// ParseOrderStatus нормализует строку статуса (регистр, синоним FINISHED).
func ParseOrderStatus(raw string) (OrderStatus, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == legacyStatusFinished {
		return OrderStatusDone, nil
	}
	status := OrderStatus(value)
	if !status.Valid() {
		return "", ErrOrderStatusInvalid
	}
	return status, nil
}

// Valid проверяет, что статус известен.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusDelivering,
		OrderStatusReadyForPickup, OrderStatusDone, OrderStatusCanceled:
		return true
	default:
		return false
	}
}

// Terminal сообщает, что из статуса нет переходов.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDone || s == OrderStatusCanceled
}

// AllOrderStatuses перечисляет статусы в порядке жизненного цикла.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusPreparing,
		OrderStatusDelivering,
		OrderStatusReadyForPickup,
		OrderStatusDone,
		OrderStatusCanceled,
	}
}

// PaymentStatus описывает состояние оплаты заказа.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// ParsePaymentStatus нормализует строку статуса оплаты.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", ErrPaymentStatusInvalid
	}
	return status, nil
}

// Valid проверяет, что статус оплаты известен.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// OrderType — способ получения заказа.
type OrderType string

const (
	OrderTypeDelivery OrderType = "DELIVERY"
	OrderTypeTakeout  OrderType = "TAKEOUT"
)

// ParseOrderType нормализует тип заказа.
func ParseOrderType(raw string) (OrderType, error) {
	t := OrderType(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", ErrOrderTypeInvalid
	}
	return t, nil
}

// Valid проверяет, что тип заказа известен.
func (t OrderType) Valid() bool {
	return t == OrderTypeDelivery || t == OrderTypeTakeout
}

// ItemAddon — снимок добавки на момент оформления заказа.
type ItemAddon struct {
	AddonID string
	Name    string
	Price   decimal.Decimal
}

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	// ProductName — снимок названия, чтобы история не менялась при правках каталога.
	ProductName string
	Quantity    int
	// UnitPrice — цена продукта плюс цены выбранных добавок.
	UnitPrice          decimal.Decimal
	Subtotal           decimal.Decimal
	Observation        string
	MeatPoint          string
	RemovedIngredients []string
	Addons             []ItemAddon
}

// Order агрегирует состояние заказа и его позиции.
type Order struct {
	ID            string
	CustomerID    string
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Type          OrderType
	// AddressID — ссылка на адрес клиента; обнуляется при удалении адреса.
	AddressID string
	// Address — копия адреса на момент заказа; nil для TAKEOUT.
	Address               *AddressSnapshot
	DeliveryFee           decimal.Decimal
	EstimatedDeliveryTime string
	TotalPrice            decimal.Decimal
	PaymentMethod         string
	PaymentID             string
	Items                 []OrderItem
	Version               int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ItemsTotal суммирует подытоги позиций.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if !o.Type.Valid() {
		errs = append(errs, ErrOrderTypeInvalid)
	}
	if o.Type == OrderTypeDelivery && o.Address == nil {
		errs = append(errs, ErrAddressRequired)
	}
	if o.TotalPrice.IsNegative() {
		errs = append(errs, ErrAmountNegative)
	}

	// Сверяем сумму: Σ(unit × qty) + delivery_fee.
	calc := o.DeliveryFee
	for _, item := range o.Items {
		if item.Quantity < 1 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.UnitPrice.IsNegative() {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calc = calc.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if !calc.Equal(o.TotalPrice) {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}

// CanAdvanceTo сообщает, разрешён ли прямой переход в следующий статус.
// Разрешены только соседние шаги; ветка после PREPARING зависит от типа заказа.
// Отмена проверяется отдельно, см. CanCancel.
func (o *Order) CanAdvanceTo(next OrderStatus) bool {
	switch o.Status {
	case OrderStatusPending:
		return next == OrderStatusPreparing
	case OrderStatusPreparing:
		if o.Type == OrderTypeTakeout {
			return next == OrderStatusReadyForPickup
		}
		return next == OrderStatusDelivering
	case OrderStatusDelivering, OrderStatusReadyForPickup:
		return next == OrderStatusDone
	default:
		return false
	}
}

// CanCancel сообщает, что заказ ещё не в терминальном статусе.
func (o *Order) CanCancel() bool {
	return !o.Status.Terminal()
}
