package ordering

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

func TestQuoteDelivery(t *testing.T) {
	cases := []struct {
		neighborhood string
		fee          string
		eta          string
	}{
		{"Centro", "5", "30-40 min"},
		{"lapa", "5", "30-40 min"},
		{"Botafogo", "7", "40-50 min"},
		{"Flamengo", "7", "40-50 min"},
		{"COPACABANA", "10", "50-60 min"},
		{"Ipanema", "10", "50-60 min"},
		{"Barra da Tijuca", "20", "60-80 min"},
		{"Tijuca", "15", "50-60 min"},
		{"", "15", "50-60 min"},
		{"   ", "15", "50-60 min"},
	}
	for _, tc := range cases {
		t.Run(tc.neighborhood, func(t *testing.T) {
			quote := QuoteDelivery(tc.neighborhood)
			if !quote.Fee.Equal(decimal.RequireFromString(tc.fee)) || quote.EstimatedTime != tc.eta {
				t.Fatalf("QuoteDelivery(%q) = %s %q, want %s %q", tc.neighborhood, quote.Fee, quote.EstimatedTime, tc.fee, tc.eta)
			}
		})
	}
}

func TestQuoteOrder_Takeout(t *testing.T) {
	quote := QuoteOrder(domain.OrderTypeTakeout, &domain.AddressSnapshot{Neighborhood: "Barra"})
	if !quote.Fee.IsZero() || quote.EstimatedTime != "15-20 min" {
		t.Fatalf("unexpected takeout quote: %+v", quote)
	}
}
