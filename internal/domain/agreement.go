package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	AgreementStatusActive     = "active"
	AgreementStatusCompleted  = "completed"
	AgreementStatusTerminated = "terminated"
	AgreementStatusCancelled  = "cancelled"
)

// DefaultRentDueDay is used when an agreement carries no rent_due_day
const DefaultRentDueDay = 1

// Agreement is a rental lease as read from the leases table.
// The payment subsystem never writes it.
type Agreement struct {
	ID              string              `json:"id" db:"id"`
	AgreementNumber string              `json:"agreement_number" db:"agreement_number"`
	RentAmount      decimal.NullDecimal `json:"rent_amount" db:"rent_amount"`
	StartDate       time.Time           `json:"start_date" db:"start_date"`
	EndDate         *time.Time          `json:"end_date,omitempty" db:"end_date"`
	RentDueDay      *int                `json:"rent_due_day,omitempty" db:"rent_due_day"`
	Status          string              `json:"status" db:"status"`
	DailyLateFee    decimal.NullDecimal `json:"daily_late_fee" db:"daily_late_fee"`
}

// IsActive reports whether the agreement is eligible for payment generation
func (a *Agreement) IsActive() bool {
	return a.Status == AgreementStatusActive
}

// Rent returns the monthly rent, zero when absent
func (a *Agreement) Rent() decimal.Decimal {
	if !a.RentAmount.Valid {
		return decimal.Zero
	}
	return a.RentAmount.Decimal
}

// HasPositiveRent reports whether the agreement has a chargeable rent
func (a *Agreement) HasPositiveRent() bool {
	return a.Rent().IsPositive()
}

// DueDay returns rent_due_day constrained to 1..31, defaulting to 1
func (a *Agreement) DueDay() int {
	if a.RentDueDay == nil || *a.RentDueDay < 1 || *a.RentDueDay > 31 {
		return DefaultRentDueDay
	}
	return *a.RentDueDay
}

// LateFeePerDay returns the agreement's daily late fee or fallback when unset
func (a *Agreement) LateFeePerDay(fallback decimal.Decimal) decimal.Decimal {
	if a.DailyLateFee.Valid {
		return a.DailyLateFee.Decimal
	}
	return fallback
}
