package pricing

import "math"

// discountSplit tracks how much of the applied discount came from the
// percentage and how much from the fixed amount.
type discountSplit struct {
	fromPercent float64
	fromAmount  float64
}

func (d discountSplit) total() float64 {
	return d.fromPercent + d.fromAmount
}

// splitDiscount applies percent and amount against the recommended subtotal.
// The combined discount never exceeds the subtotal.
func splitDiscount(recommended, percent, amount float64) discountSplit {
	requested := discountSplit{fromPercent: recommended * percent, fromAmount: amount}
	return requested.absorb(math.Min(recommended, requested.total()))
}

// absorb shrinks the split down to allowed. The percentage portion gives
// way first, then the fixed amount.
func (d discountSplit) absorb(allowed float64) discountSplit {
	reduction := d.total() - allowed
	if reduction <= 0 {
		return d
	}
	fromPercent := math.Max(0, d.fromPercent-reduction)
	leftover := math.Max(0, reduction-d.fromPercent)
	fromAmount := math.Max(0, d.fromAmount-leftover)
	return discountSplit{fromPercent: fromPercent, fromAmount: fromAmount}
}
