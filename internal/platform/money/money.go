// Package money renders integer ledger amounts for people.
//
// Amounts are always stored in the smallest currency unit; this package only
// formats them and never feeds results back into ledger arithmetic.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultDecimals is the number of fractional digits of the settlement
// currency (one whole unit is 10^9 smallest units).
const DefaultDecimals int32 = 9

// Format renders amount as a whole-unit decimal string, for example
// 1500000000 with 9 decimals becomes "1.5".
func Format(amount uint64, decimals int32) string {
	if decimals < 0 {
		decimals = 0
	}
	return decimal.NewFromUint64(amount).Shift(-decimals).String()
}

// Parse converts a whole-unit decimal string into smallest units. Fractions
// finer than the currency precision are rejected rather than rounded.
func Parse(value string, decimals int32) (uint64, bool) {
	parsed, err := decimal.NewFromString(value)
	if err != nil || parsed.IsNegative() {
		return 0, false
	}
	if decimals < 0 {
		decimals = 0
	}
	scaled := parsed.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, false
	}
	bigValue := scaled.BigInt()
	if !bigValue.IsUint64() {
		return 0, false
	}
	return bigValue.Uint64(), true
}

// Grouped renders amount in smallest units with locale digit grouping, for
// example "1,000,000" for en-US and "1.000.000" for id-ID.
func Grouped(locale string, amount uint64) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	return message.NewPrinter(tag).Sprintf("%d", amount)
}
