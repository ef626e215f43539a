package repository

import (
	"context"
	"time"

	"github.com/segyhp/rental-billing/internal/domain"
	"github.com/segyhp/rental-billing/pkg/utils"

	"github.com/jmoiron/sqlx"
)

const agreementColumns = `id, agreement_number, rent_amount, start_date, end_date, rent_due_day, status, daily_late_fee`

type agreementRepository struct {
	db *sqlx.DB
}

func NewAgreementRepository(db *sqlx.DB) AgreementRepository {
	return &agreementRepository{db: db}
}

func (r *agreementRepository) GetByID(ctx context.Context, id string) (*domain.Agreement, error) {
	query := r.db.Rebind(`
		SELECT ` + agreementColumns + `
		FROM leases
		WHERE id = ?
	`)

	var agreement domain.Agreement
	if err := r.db.GetContext(ctx, &agreement, query, id); err != nil {
		return nil, err
	}

	normalizeAgreement(&agreement)
	return &agreement, nil
}

func (r *agreementRepository) ListActive(ctx context.Context) ([]*domain.Agreement, error) {
	query := r.db.Rebind(`
		SELECT ` + agreementColumns + `
		FROM leases
		WHERE status = ?
		ORDER BY agreement_number, id
	`)

	var agreements []*domain.Agreement
	if err := r.db.SelectContext(ctx, &agreements, query, domain.AgreementStatusActive); err != nil {
		return nil, err
	}

	for _, a := range agreements {
		normalizeAgreement(a)
	}
	return agreements, nil
}

func (r *agreementRepository) ListActiveSpanning(ctx context.Context, today time.Time) ([]*domain.Agreement, error) {
	query := r.db.Rebind(`
		SELECT ` + agreementColumns + `
		FROM leases
		WHERE status = ?
		  AND start_date < ?
		  AND (end_date IS NULL OR end_date > ?)
		ORDER BY agreement_number, id
	`)

	day := utils.DateOf(today)

	var agreements []*domain.Agreement
	if err := r.db.SelectContext(ctx, &agreements, query, domain.AgreementStatusActive, day, day); err != nil {
		return nil, err
	}

	for _, a := range agreements {
		normalizeAgreement(a)
	}
	return agreements, nil
}

// normalizeAgreement strips driver-specific zones from DATE columns
func normalizeAgreement(a *domain.Agreement) {
	a.StartDate = utils.DateOf(a.StartDate)
	if a.EndDate != nil {
		end := utils.DateOf(*a.EndDate)
		a.EndDate = &end
	}
}
