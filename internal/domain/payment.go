package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusOverdue   = "overdue"
	PaymentStatusPaid      = "paid"
	PaymentStatusCancelled = "cancelled"
)

// PaymentTypeRent marks monthly rent installments
const PaymentTypeRent = "rent"

// Payment is a row of unified_payments. (LeaseID, DueDate) is unique.
type Payment struct {
	ID              uuid.UUID           `json:"id" db:"id"`
	LeaseID         string              `json:"lease_id" db:"lease_id"`
	Amount          decimal.Decimal     `json:"amount" db:"amount"`
	AmountPaid      decimal.Decimal     `json:"amount_paid" db:"amount_paid"`
	Balance         decimal.Decimal     `json:"balance" db:"balance"`
	PaymentDate     *time.Time          `json:"payment_date" db:"payment_date"`
	DueDate         time.Time           `json:"due_date" db:"due_date"`
	OriginalDueDate time.Time           `json:"original_due_date" db:"original_due_date"`
	Status          string              `json:"status" db:"status"`
	Type            string              `json:"type" db:"type"`
	Description     string              `json:"description" db:"description"`
	DaysOverdue     int                 `json:"days_overdue" db:"days_overdue"`
	LateFineAmount  decimal.Decimal     `json:"late_fine_amount" db:"late_fine_amount"`
	DailyLateFee    decimal.NullDecimal `json:"daily_late_fee" db:"daily_late_fee"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`
}

// IsSettled reports whether the payment no longer accrues late fines
func (p *Payment) IsSettled() bool {
	return p.Status == PaymentStatusPaid || p.Status == PaymentStatusCancelled
}

// ScheduledPayment is one entry of a generated rent schedule
type ScheduledPayment struct {
	LeaseID  string          `json:"lease_id"`
	DueDate  time.Time       `json:"due_date"`
	Amount   decimal.Decimal `json:"amount"`
	Status   string          `json:"status"`
	Type     string          `json:"type"`
	Recorded bool            `json:"recorded"`
}
