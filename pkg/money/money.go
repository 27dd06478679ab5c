package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round2 rounds a monetary amount to two decimal places, half away from zero.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// ApplyPercent returns round2(amount * percent / 100).
func ApplyPercent(amount, percent decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(percent).Div(hundred))
}

// DiscountUnit computes the discounted unit price for a percentage-off
// promotion. The unit price is rounded here, once; line subtotals multiply the
// rounded unit by the quantity so the result does not depend on how quantities
// are batched.
func DiscountUnit(unit, percent decimal.Decimal) decimal.Decimal {
	remaining := hundred.Sub(percent)
	return Round2(unit.Mul(remaining).Div(hundred))
}

// Min returns the smaller of two amounts.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThanOrEqual(b) {
		return a
	}
	return b
}

// FloorZero clamps a negative amount to zero.
func FloorZero(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// MustParse converts a configuration string into a decimal, panicking on
// malformed input. Only used while wiring config at startup.
func MustParse(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
