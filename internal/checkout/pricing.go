package checkout

import (
	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

// Pricing holds the rules used to quote an order
type Pricing struct {
	ShippingFeeCents           int64
	FreeShippingThresholdCents int64 // 0 disables free shipping
	TaxRate                    decimal.Decimal
	MaxQuantity                int64
}

// Quote is the price breakdown shown on the order summary
type Quote struct {
	Currency       string `json:"currency"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	SubtotalCents  int64  `json:"subtotalCents"`
	ShippingCents  int64  `json:"shippingCents"`
	TaxCents       int64  `json:"taxCents"`
	TotalCents     int64  `json:"totalCents"`
	Subtotal       string `json:"subtotal"`
	Shipping       string `json:"shipping"`
	Tax            string `json:"tax"`
	Total          string `json:"total"`
}

// FormatCents renders minor units as a two-decimal amount
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// ValidQuantity reports whether quantity is within 1..MaxQuantity
func (p Pricing) ValidQuantity(quantity int64) bool {
	return quantity >= 1 && (p.MaxQuantity <= 0 || quantity <= p.MaxQuantity)
}

// Quote prices quantity units of product
func (p Pricing) Quote(product *models.Product, quantity int64) (Quote, error) {
	if !p.ValidQuantity(quantity) {
		return Quote{}, ErrInvalidQuantity
	}

	subtotal := decimal.NewFromInt(product.PriceCents).Mul(decimal.NewFromInt(quantity))
	shipping := decimal.NewFromInt(p.ShippingFeeCents)
	if p.FreeShippingThresholdCents > 0 && subtotal.GreaterThanOrEqual(decimal.NewFromInt(p.FreeShippingThresholdCents)) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(p.TaxRate).Round(0)
	total := subtotal.Add(shipping).Add(tax)

	q := Quote{
		Currency:       product.Currency,
		Quantity:       quantity,
		UnitPriceCents: product.PriceCents,
		SubtotalCents:  subtotal.IntPart(),
		ShippingCents:  shipping.IntPart(),
		TaxCents:       tax.IntPart(),
		TotalCents:     total.IntPart(),
	}
	q.Subtotal = FormatCents(q.SubtotalCents)
	q.Shipping = FormatCents(q.ShippingCents)
	q.Tax = FormatCents(q.TaxCents)
	q.Total = FormatCents(q.TotalCents)
	return q, nil
}
