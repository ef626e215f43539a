package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date layout used in requests and config
const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar date, expressed as midnight UTC.
// The year/month/day are taken from t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateIn returns the calendar date of t as observed in loc, as midnight UTC
func DateIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(t.In(loc))
}

// ParseDate parses a YYYY-MM-DD string into a calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// FirstOfMonth returns the first calendar day of t's month
func FirstOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DueDateFor returns the due date in the given month for a due day,
// clamped to the last valid day of that month (31 -> 30 Apr, 29 Feb 2024).
func DueDateFor(year int, month time.Month, dueDay int) time.Time {
	if dueDay < 1 {
		dueDay = 1
	}
	if last := DaysInMonth(year, month); dueDay > last {
		dueDay = last
	}
	return time.Date(year, month, dueDay, 0, 0, 0, 0, time.UTC)
}

// AddMonths moves a first-of-month date by n calendar months
func AddMonths(firstOfMonth time.Time, n int) time.Time {
	y, m, _ := firstOfMonth.Date()
	return time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
}

// SameMonth reports whether a and b fall in the same calendar month
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// SameDay reports whether a and b are the same calendar date
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysOverdue returns the whole days between dueDate and today, never negative
func DaysOverdue(dueDate, today time.Time) int {
	days := int(DateOf(today).Sub(DateOf(dueDate)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// CalculateLateFee returns days * dailyFee, capped at maxFee.
// A non-positive maxFee disables the cap.
func CalculateLateFee(daysOverdue int, dailyFee, maxFee decimal.Decimal) decimal.Decimal {
	if daysOverdue <= 0 || !dailyFee.IsPositive() {
		return decimal.Zero
	}
	fee := dailyFee.Mul(decimal.NewFromInt(int64(daysOverdue)))
	if maxFee.IsPositive() && fee.GreaterThan(maxFee) {
		return maxFee
	}
	return fee
}

// MonthLabel renders a date's month for descriptions, e.g. "March 2024"
func MonthLabel(t time.Time) string {
	return t.Format("January 2006")
}
