// Package moneypkg provides fixed-point money arithmetic and the
// compounding-period calendar used for interest accrual.
package moneypkg

import (
	"github.com/shopspring/decimal"
)

const (
	// DisplayScale is the scale used whenever a balance or a returned
	// amount is finalized.
	DisplayScale = 2

	// InternalScale is the scale kept during intermediate interest
	// computation before the result is finalized.
	InternalScale = 12
)

var hundred = decimal.NewFromInt(100)

// Normalize rounds the amount half-up to the display scale.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return d.Round(DisplayScale)
}

// Parse converts a caller-supplied amount string into a decimal normalized
// to the display scale.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return Normalize(d), nil
}

// Interest returns the simple interest earned by balance at the annual rate
// apr over the given number of calendar days.
//
// The apr is a percentage number (5 means 5%) and is divided by 100 here.
// denom is the day-count denominator converting the annual rate into a daily
// one. The result keeps InternalScale digits; finalize it with Normalize.
func Interest(balance, apr decimal.Decimal, days, denom int64) decimal.Decimal {
	return balance.
		Mul(apr).
		DivRound(hundred, InternalScale).
		Mul(decimal.NewFromInt(days)).
		DivRound(decimal.NewFromInt(denom), InternalScale)
}
