package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/rental-billing/internal/domain"
	"github.com/shopspring/decimal"
)

// AgreementRepository defines read access to lease agreements
type AgreementRepository interface {
	// GetByID retrieves an agreement, returning sql.ErrNoRows when absent
	GetByID(ctx context.Context, id string) (*domain.Agreement, error)

	// ListActive retrieves every agreement with status active
	ListActive(ctx context.Context) ([]*domain.Agreement, error)

	// ListActiveSpanning retrieves active agreements with start_date < today
	// and an end_date that is either absent or after today
	ListActiveSpanning(ctx context.Context, today time.Time) ([]*domain.Agreement, error)
}

// PaymentRepository defines the interface for rent payment data operations
type PaymentRepository interface {
	// Create inserts a payment, returning ErrDuplicatePayment when the
	// (lease_id, due_date) pair already exists
	Create(ctx context.Context, payment *domain.Payment) error

	// ListByLease retrieves all payments of a lease ordered by due date
	ListByLease(ctx context.Context, leaseID string) ([]*domain.Payment, error)

	// GetByLeaseAndDueDate retrieves the payment for a due date, returning
	// sql.ErrNoRows when absent
	GetByLeaseAndDueDate(ctx context.Context, leaseID string, dueDate time.Time) (*domain.Payment, error)

	// ListUnpaidDueBefore retrieves pending or overdue payments without a
	// payment date whose due date is before the given date
	ListUnpaidDueBefore(ctx context.Context, date time.Time) ([]*domain.Payment, error)

	// UpdateOverdue marks a payment overdue and records its fine
	UpdateOverdue(ctx context.Context, id uuid.UUID, daysOverdue int, lateFine decimal.Decimal) error
}
