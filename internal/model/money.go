package model

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// LineTotal is price × quantity
func LineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}

// Amount converts a decimal back to the float64 used on the wire, rounded to cents
func Amount(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// DiscountPercent returns round((compareAt - price) / compareAt * 100), or 0 without a positive compareAt
func DiscountPercent(price float64, compareAt *float64) int {
	if compareAt == nil || *compareAt <= 0 {
		return 0
	}
	c := decimal.NewFromFloat(*compareAt)
	return int(c.Sub(decimal.NewFromFloat(price)).Div(c).Mul(hundred).Round(0).IntPart())
}
