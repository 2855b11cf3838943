package tipping

import "math/bits"

const (
	// DefaultFeeRateBps is the platform fee at initialization (2%).
	DefaultFeeRateBps uint16 = 200
	// MaxFeeRateBps caps the platform fee (10%).
	MaxFeeRateBps uint16 = 1000
	// FeeDenominator converts basis points to a fraction.
	FeeDenominator uint64 = 10_000
)

// SplitFee returns floor(amount*rateBps/10000) and the remainder. fee+net
// always equals amount; the product is computed in 128 bits so no amount
// overflows.
func SplitFee(amount uint64, rateBps uint16) (fee, net uint64) {
	rate := uint64(rateBps)
	if rate >= FeeDenominator {
		return amount, 0
	}
	hi, lo := bits.Mul64(amount, rate)
	fee, _ = bits.Div64(hi, lo, FeeDenominator)
	return fee, amount - fee
}

func addChecked(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}
