package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/rental-billing/internal/clock"
	"github.com/segyhp/rental-billing/internal/domain"
	"github.com/segyhp/rental-billing/internal/lock"
	"github.com/segyhp/rental-billing/internal/repository"
)

type testStore struct {
	db         *sqlx.DB
	agreements repository.AgreementRepository
	payments   repository.PaymentRepository
}

func setupStore(t *testing.T) *testStore {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, repository.Migrate(context.Background(), db))
	t.Cleanup(func() { db.Close() })

	return &testStore{
		db:         db,
		agreements: repository.NewAgreementRepository(db),
		payments:   repository.NewPaymentRepository(db),
	}
}

func (s *testStore) addAgreement(t *testing.T, a *domain.Agreement) *domain.Agreement {
	t.Helper()

	_, err := s.db.NamedExec(`
		INSERT INTO leases (id, agreement_number, rent_amount, start_date, end_date, rent_due_day, status, daily_late_fee)
		VALUES (:id, :agreement_number, :rent_amount, :start_date, :end_date, :rent_due_day, :status, :daily_late_fee)
	`, a)
	require.NoError(t, err)
	return a
}

func (s *testStore) addPayment(t *testing.T, leaseID string, due time.Time) {
	t.Helper()

	p := &domain.Payment{
		ID:              uuid.New(),
		LeaseID:         leaseID,
		Amount:          decimal.NewFromInt(1500),
		Balance:         decimal.NewFromInt(1500),
		DueDate:         due,
		OriginalDueDate: due,
		Status:          domain.PaymentStatusPending,
		Type:            domain.PaymentTypeRent,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, s.payments.Create(context.Background(), p))
}

func (s *testStore) dueDates(t *testing.T, leaseID string) []time.Time {
	t.Helper()

	payments, err := s.payments.ListByLease(context.Background(), leaseID)
	require.NoError(t, err)

	out := make([]time.Time, 0, len(payments))
	for _, p := range payments {
		out = append(out, p.DueDate)
	}
	return out
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rent(amount int64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromInt(amount), Valid: true}
}

func intPtr(v int) *int {
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func agreement(id string, start time.Time) *domain.Agreement {
	return &domain.Agreement{
		ID:              id,
		AgreementNumber: "AGR-" + id,
		RentAmount:      rent(1500),
		StartDate:       start,
		RentDueDay:      intPtr(1),
		Status:          domain.AgreementStatusActive,
	}
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fixedAt pins the clock to 09:00 UTC on the given date
func fixedAt(d time.Time) clock.Clock {
	return clock.Fixed(d.Add(9 * time.Hour))
}

func newTestService(store *testStore, today time.Time) *PaymentService {
	return NewPaymentService(store.agreements, store.payments, lock.Noop{}, fixedAt(today), quietLogger(), DefaultSettings())
}
