package pricing

import "github.com/shopspring/decimal"

// RoundMoney rounds to cents, half away from zero
func RoundMoney(value float64) float64 {
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}

// RoundRate rounds a ratio or quantity to four decimal places
func RoundRate(value float64) float64 {
	return decimal.NewFromFloat(value).Round(4).InexactFloat64()
}
