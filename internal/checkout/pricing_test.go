package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

func testPricing() Pricing {
	return Pricing{
		ShippingFeeCents:           599,
		FreeShippingThresholdCents: 5000,
		TaxRate:                    decimal.RequireFromString("0.08"),
		MaxQuantity:                10,
	}
}

func TestQuote(t *testing.T) {
	product := &models.Product{PriceCents: 2499, Currency: "USD"}

	tests := []struct {
		name     string
		pricing  Pricing
		quantity int64
		want     Quote
	}{
		{
			name:     "single unit pays shipping",
			pricing:  testPricing(),
			quantity: 1,
			want: Quote{
				Currency: "USD", Quantity: 1, UnitPriceCents: 2499,
				SubtotalCents: 2499, ShippingCents: 599, TaxCents: 200, TotalCents: 3298,
				Subtotal: "24.99", Shipping: "5.99", Tax: "2.00", Total: "32.98",
			},
		},
		{
			name:     "free shipping above threshold",
			pricing:  testPricing(),
			quantity: 3,
			want: Quote{
				Currency: "USD", Quantity: 3, UnitPriceCents: 2499,
				SubtotalCents: 7497, ShippingCents: 0, TaxCents: 600, TotalCents: 8097,
				Subtotal: "74.97", Shipping: "0.00", Tax: "6.00", Total: "80.97",
			},
		},
		{
			name: "threshold zero disables free shipping",
			pricing: Pricing{
				ShippingFeeCents: 599,
				TaxRate:          decimal.Zero,
			},
			quantity: 4,
			want: Quote{
				Currency: "USD", Quantity: 4, UnitPriceCents: 2499,
				SubtotalCents: 9996, ShippingCents: 599, TaxCents: 0, TotalCents: 10595,
				Subtotal: "99.96", Shipping: "5.99", Tax: "0.00", Total: "105.95",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.pricing.Quote(product, tt.quantity)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteTaxRoundsHalfUp(t *testing.T) {
	p := Pricing{TaxRate: decimal.RequireFromString("0.0625")}

	q, err := p.Quote(&models.Product{PriceCents: 1000}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(63), q.TaxCents)
}

func TestQuoteInvalidQuantity(t *testing.T) {
	p := testPricing()
	product := &models.Product{PriceCents: 100}

	for _, q := range []int64{0, -1, 11} {
		_, err := p.Quote(product, q)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", q)
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.00", FormatCents(0))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "1234.50", FormatCents(123450))
}
