// Package overtime splits a day's logged hours into regular and overtime
// hours and prices the overtime in two tiers.
package overtime

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// RegularThreshold is the number of hours per day paid at the normal rate.
	RegularThreshold = decimal.NewFromInt(8)
	// Tier1Hours is how many overtime hours are paid at Tier1Multiplier.
	Tier1Hours      = decimal.NewFromInt(2)
	Tier1Multiplier = decimal.RequireFromString("1.33")
	Tier2Multiplier = decimal.RequireFromString("1.66")
)

// MonthlyLimitHours is the statutory monthly overtime cap. It is reported to
// clients and not enforced.
const MonthlyLimitHours = 46

const payScale = 2

var (
	ErrInvalidRate  = errors.New("overtime: hourly rate must not be negative")
	ErrInvalidHours = errors.New("overtime: total hours must not be negative")
	// ErrMissingRate marks a user whose salary, and so hourly rate, was never set.
	ErrMissingRate = errors.New("overtime: hourly rate is not set")
)

type Result struct {
	TotalHours    decimal.Decimal
	RegularHours  decimal.Decimal
	OvertimeHours decimal.Decimal
	Tier1Hours    decimal.Decimal
	Tier2Hours    decimal.Decimal
	OvertimePay   decimal.Decimal
}

// Compute applies the daily overtime rules to totalHours logged in one day.
// Hours are kept at full precision; only the pay is rounded to cents.
func Compute(totalHours, hourlyRate decimal.Decimal) (Result, error) {
	if hourlyRate.IsNegative() {
		return Result{}, ErrInvalidRate
	}
	if totalHours.IsNegative() {
		return Result{}, ErrInvalidHours
	}

	overtimeHours := OvertimeHours(totalHours)
	tier1 := decimal.Min(overtimeHours, Tier1Hours)
	tier2 := decimal.Zero
	if overtimeHours.GreaterThan(Tier1Hours) {
		tier2 = overtimeHours.Sub(Tier1Hours)
	}

	pay := tier1.Mul(hourlyRate).Mul(Tier1Multiplier).
		Add(tier2.Mul(hourlyRate).Mul(Tier2Multiplier)).
		Round(payScale)

	return Result{
		TotalHours:    totalHours,
		RegularHours:  RegularHours(totalHours),
		OvertimeHours: overtimeHours,
		Tier1Hours:    tier1,
		Tier2Hours:    tier2,
		OvertimePay:   pay,
	}, nil
}

// RegularHours is min(totalHours, RegularThreshold).
func RegularHours(totalHours decimal.Decimal) decimal.Decimal {
	return decimal.Min(totalHours, RegularThreshold)
}

// OvertimeHours is max(totalHours - RegularThreshold, 0).
func OvertimeHours(totalHours decimal.Decimal) decimal.Decimal {
	return decimal.Max(totalHours.Sub(RegularThreshold), decimal.Zero)
}
