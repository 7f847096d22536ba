package coupon

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Evaluate returns the discount c grants on subtotal. A nil or inactive
// coupon grants nothing. The result is always within [0, subtotal].
// MinAmount is deliberately not checked.
func Evaluate(subtotal decimal.Decimal, c *Coupon) decimal.Decimal {
	if c == nil || !c.Active || !subtotal.IsPositive() {
		return decimal.Zero
	}

	ceiling := subtotal
	if c.MaxDiscount.Valid {
		ceiling = c.MaxDiscount.Decimal
	}

	var amount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercent:
		amount = subtotal.Mul(c.Value).Div(hundred)
	case DiscountFlat:
		amount = c.Value
	default:
		return decimal.Zero
	}

	amount = decimal.Min(amount, ceiling, subtotal)
	return floorAtZero(amount)
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
