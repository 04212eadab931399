package rounding

import "github.com/shopspring/decimal"

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Sum adds values in decimal space so the result does not depend on order.
func Sum(values ...float64) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total
}
