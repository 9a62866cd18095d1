package moneypkg

import "time"

// Compounding defines the length of a single interest accrual period.
type Compounding string

// Supported compounding periods.
const (
	CompoundingDaily   Compounding = "DAILY"
	CompoundingMonthly Compounding = "MONTHLY"
)

// DayCount defines the convention converting an annual rate into a daily one.
type DayCount string

// Supported day-count conventions.
const (
	DayCountAct365F DayCount = "ACT_365F"
)

var periodAdvance = map[Compounding]func(time.Time) time.Time{
	CompoundingDaily:   func(t time.Time) time.Time { return t.AddDate(0, 0, 1) },
	CompoundingMonthly: addMonthClamped,
}

// addMonthClamped advances t by one calendar month. When the start day does
// not exist in the target month (Jan 31, Mar 31, ...), the result is clamped
// to the last day of that month instead of rolling over into the next one.
func addMonthClamped(t time.Time) time.Time {
	next := t.AddDate(0, 1, 0)
	if next.Day() != t.Day() {
		next = next.AddDate(0, 0, -next.Day())
	}

	return next
}

var dayCountDenominators = map[DayCount]int64{
	DayCountAct365F: 365,
}

// NextPeriodEnd returns the end of the compounding period that starts at
// start. Unknown or empty compounding falls back to monthly.
func NextPeriodEnd(start time.Time, c Compounding) time.Time {
	advance, ok := periodAdvance[c]
	if !ok {
		advance = periodAdvance[CompoundingMonthly]
	}

	return advance(start)
}

// Denominator returns the day-count denominator for the given convention.
// Every currently defined convention resolves to 365.
func Denominator(dc DayCount) int64 {
	denom, ok := dayCountDenominators[dc]
	if !ok {
		return dayCountDenominators[DayCountAct365F]
	}

	return denom
}

// WholeDays returns the number of whole 24-hour days between from and to.
// It returns 0 when to is not after from.
func WholeDays(from, to time.Time) int64 {
	if !to.After(from) {
		return 0
	}

	return int64(to.Sub(from) / (24 * time.Hour))
}
