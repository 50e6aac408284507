package domain

import "github.com/shopspring/decimal"

// DashboardSummary — сводка по заказам для панели персонала.
type DashboardSummary struct {
	// TotalOrders не учитывает отменённые заказы.
	TotalOrders int
	// Revenue — сумма total_price без отменённых заказов; 0, если заказов нет.
	Revenue  decimal.Decimal
	ByStatus map[OrderStatus]int
	// PendingPayments — неоплаченные заказы среди нетерминальных.
	PendingPayments int
}

// DailyRevenue — выручка за локальный календарный день.
type DailyRevenue struct {
	// Date в формате YYYY-MM-DD в часовом поясе магазина.
	Date    string
	Revenue decimal.Decimal
	Orders  int
}

// TopProduct — продукт и проданное количество за период.
type TopProduct struct {
	ProductID string
	Name      string
	Quantity  int
}

// DashboardChart — выручка по дням и топ продуктов за скользящее окно.
type DashboardChart struct {
	Days        []DailyRevenue
	TopProducts []TopProduct
}
