// Package rating holds the premium rating domain: the quote model, versioned
// rate tables, risk factors, discount and surcharge rules, compliance checks
// and the immutable rating result.  Everything in this package is pure and
// deterministic; I/O collaborators are expressed as interfaces.
package rating

import (
	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of decimal places money is rounded to.
const CurrencyPlaces int32 = 2

// FactorPlaces is the precision kept for reported multipliers.
const FactorPlaces int32 = 4

var (
	zero    = decimal.Zero
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// RoundMoney rounds an amount to currency precision using half-up rounding
// (half away from zero), the convention used in rate filings.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// Money parses a literal amount.  It panics on malformed input and is meant
// for constants and tests.
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Percent converts a whole-number percentage (e.g. 10) to a rate (0.10).
func Percent(p int64) decimal.Decimal {
	return decimal.NewFromInt(p).Div(hundred)
}

// minDecimal returns the smaller of a and b.
func minDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// clampDecimal limits v to [lo, hi].
func clampDecimal(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

//Personal.AI order the ending
