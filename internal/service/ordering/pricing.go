package ordering

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// DeliveryQuote — стоимость и ожидаемое время доставки.
type DeliveryQuote struct {
	Fee           decimal.Decimal
	EstimatedTime string
}

type deliveryZone struct {
	keywords []string
	quote    DeliveryQuote
}

// deliveryZones проверяются по порядку; первая зона с совпадением выигрывает.
var deliveryZones = []deliveryZone{
	{keywords: []string{"centro", "lapa"}, quote: DeliveryQuote{Fee: decimal.NewFromInt(5), EstimatedTime: "30-40 min"}},
	{keywords: []string{"flamengo", "botafogo"}, quote: DeliveryQuote{Fee: decimal.NewFromInt(7), EstimatedTime: "40-50 min"}},
	{keywords: []string{"copacabana", "ipanema"}, quote: DeliveryQuote{Fee: decimal.NewFromInt(10), EstimatedTime: "50-60 min"}},
	{keywords: []string{"barra"}, quote: DeliveryQuote{Fee: decimal.NewFromInt(20), EstimatedTime: "60-80 min"}},
}

var (
	defaultDeliveryQuote = DeliveryQuote{Fee: decimal.NewFromInt(15), EstimatedTime: "50-60 min"}
	takeoutQuote         = DeliveryQuote{Fee: decimal.Zero, EstimatedTime: "15-20 min"}
)

// QuoteDelivery подбирает тариф по подстроке названия района без учёта регистра.
// Неизвестный или пустой район получает тариф по умолчанию.
func QuoteDelivery(neighborhood string) DeliveryQuote {
	name := strings.ToLower(strings.TrimSpace(neighborhood))
	if name == "" {
		return defaultDeliveryQuote
	}
	for _, zone := range deliveryZones {
		for _, keyword := range zone.keywords {
			if strings.Contains(name, keyword) {
				return zone.quote
			}
		}
	}
	return defaultDeliveryQuote
}

// QuoteOrder возвращает тариф для типа заказа; для TAKEOUT адрес не нужен.
func QuoteOrder(orderType domain.OrderType, address *domain.AddressSnapshot) DeliveryQuote {
	if orderType == domain.OrderTypeTakeout || address == nil {
		return takeoutQuote
	}
	return QuoteDelivery(address.Neighborhood)
}
