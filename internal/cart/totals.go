package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/config"
)

// Pricing holds the shipping and tax rules applied to a cart.
type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	TaxRate               decimal.Decimal
}

// DefaultPricing is free shipping above 50, otherwise 9.99, with 8% tax.
func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingThreshold: decimal.NewFromInt(50),
		ShippingFee:           decimal.RequireFromString("9.99"),
		TaxRate:               decimal.RequireFromString("0.08"),
	}
}

func PricingFromConfig(p config.ParsedPricing) Pricing {
	return Pricing{
		FreeShippingThreshold: p.FreeShippingThreshold,
		ShippingFee:           p.ShippingFee,
		TaxRate:               p.TaxRate,
	}
}

// Totals is derived from the cart lines and never stored.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// FreeShipping reports whether the shipping charge was waived.
func (t Totals) FreeShipping() bool {
	return t.Shipping.IsZero()
}

// ComputeTotals prices lines. Tax is rounded half away from zero to cents and
// total is the exact sum of the three parts.
func ComputeTotals(lines []Line, pricing Pricing) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
	}

	shipping := pricing.ShippingFee
	if subtotal.GreaterThan(pricing.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(pricing.TaxRate).Round(2)

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}
