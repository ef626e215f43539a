package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/rental-billing/internal/domain"
	"github.com/segyhp/rental-billing/pkg/utils"
	"github.com/shopspring/decimal"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrDuplicatePayment is returned by Create when the lease already has a
// payment on the same due date
var ErrDuplicatePayment = errors.New("payment already exists for lease and due date")

const paymentColumns = `id, lease_id, amount, amount_paid, balance, payment_date, due_date, original_due_date,
	status, type, description, days_overdue, late_fine_amount, daily_late_fee, created_at`

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO unified_payments (id, lease_id, amount, amount_paid, balance, payment_date, due_date, original_due_date,
			status, type, description, days_overdue, late_fine_amount, daily_late_fee, created_at)
		VALUES (:id, :lease_id, :amount, :amount_paid, :balance, :payment_date, :due_date, :original_due_date,
			:status, :type, :description, :days_overdue, :late_fine_amount, :daily_late_fee, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, payment)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: lease %s due %s", ErrDuplicatePayment, payment.LeaseID, payment.DueDate.Format(utils.DateLayout))
		}
		return err
	}

	return nil
}

func (r *paymentRepository) ListByLease(ctx context.Context, leaseID string) ([]*domain.Payment, error) {
	query := r.db.Rebind(`
		SELECT ` + paymentColumns + `
		FROM unified_payments
		WHERE lease_id = ?
		ORDER BY due_date ASC
	`)

	var payments []*domain.Payment
	if err := r.db.SelectContext(ctx, &payments, query, leaseID); err != nil {
		return nil, err
	}

	for _, p := range payments {
		normalizePayment(p)
	}
	return payments, nil
}

func (r *paymentRepository) GetByLeaseAndDueDate(ctx context.Context, leaseID string, dueDate time.Time) (*domain.Payment, error) {
	query := r.db.Rebind(`
		SELECT ` + paymentColumns + `
		FROM unified_payments
		WHERE lease_id = ? AND due_date = ?
	`)

	var payment domain.Payment
	if err := r.db.GetContext(ctx, &payment, query, leaseID, utils.DateOf(dueDate)); err != nil {
		return nil, err
	}

	normalizePayment(&payment)
	return &payment, nil
}

func (r *paymentRepository) ListUnpaidDueBefore(ctx context.Context, date time.Time) ([]*domain.Payment, error) {
	query := r.db.Rebind(`
		SELECT ` + paymentColumns + `
		FROM unified_payments
		WHERE status IN (?, ?)
		  AND payment_date IS NULL
		  AND due_date < ?
		ORDER BY lease_id, due_date
	`)

	var payments []*domain.Payment
	err := r.db.SelectContext(ctx, &payments, query,
		domain.PaymentStatusPending,
		domain.PaymentStatusOverdue,
		utils.DateOf(date),
	)
	if err != nil {
		return nil, err
	}

	for _, p := range payments {
		normalizePayment(p)
	}
	return payments, nil
}

func (r *paymentRepository) UpdateOverdue(ctx context.Context, id uuid.UUID, daysOverdue int, lateFine decimal.Decimal) error {
	query := r.db.Rebind(`
		UPDATE unified_payments
		SET status = ?, days_overdue = ?, late_fine_amount = ?
		WHERE id = ?
	`)

	_, err := r.db.ExecContext(ctx, query, domain.PaymentStatusOverdue, daysOverdue, lateFine, id)
	return err
}

// IsUniqueViolation reports whether err is a unique constraint failure from
// either supported driver
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return false
}

func normalizePayment(p *domain.Payment) {
	p.DueDate = utils.DateOf(p.DueDate)
	p.OriginalDueDate = utils.DateOf(p.OriginalDueDate)
	if p.PaymentDate != nil {
		d := utils.DateOf(*p.PaymentDate)
		p.PaymentDate = &d
	}
}
