// Package pricing computes cart totals with fixed-point decimal arithmetic.
// All returned amounts are rounded to two decimal places and never negative.
package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Item is one cart line for pricing purposes. UnitPrice must already be
// the effective price, see EffectiveUnit.
type Item struct {
	ProductID int64
	UnitPrice decimal.Decimal
	Quantity  int
}

// Quote is a fully priced cart.
type Quote struct {
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal
}

// EffectiveUnit returns the price a single unit currently sells for.
// The sale price only takes effect while the product is flagged on sale
// and a sale price is actually set.
func EffectiveUnit(original decimal.Decimal, sale *decimal.Decimal, onSale bool) decimal.Decimal {
	if onSale && sale != nil {
		return *sale
	}
	return original
}

// Subtotal returns the sum of unit price times quantity across all items.
func Subtotal(items []Item) decimal.Decimal {
	sum := zero
	for _, item := range items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		sum = sum.Add(line)
	}
	return sum.Round(2)
}

// DiscountAmount returns percent% of subtotal, clamped at zero.
func DiscountAmount(subtotal, percent decimal.Decimal) decimal.Decimal {
	amount := subtotal.Mul(percent).Div(hundred)
	return floorAtZero(amount).Round(2)
}

// Compute prices a cart: discount is applied to the subtotal only, shipping
// is added on top, and the grand total is clamped at zero.
func Compute(subtotal, shipping, discountPercent decimal.Decimal) Quote {
	discount := DiscountAmount(subtotal, discountPercent)
	total := subtotal.Add(shipping).Sub(discount)
	total = floorAtZero(total).Round(2)

	return Quote{
		Subtotal:     subtotal.Round(2),
		ShippingCost: shipping.Round(2),
		Discount:     discount,
		Total:        total,
	}
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}
