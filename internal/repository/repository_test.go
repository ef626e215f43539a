package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/rental-billing/internal/domain"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every pooled connection to :memory: would otherwise see its own database.
	db.SetMaxOpenConns(1)

	require.NoError(t, Migrate(context.Background(), db))
	t.Cleanup(func() { db.Close() })
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func insertAgreement(t *testing.T, db *sqlx.DB, a *domain.Agreement) {
	t.Helper()

	_, err := db.NamedExec(`
		INSERT INTO leases (id, agreement_number, rent_amount, start_date, end_date, rent_due_day, status, daily_late_fee)
		VALUES (:id, :agreement_number, :rent_amount, :start_date, :end_date, :rent_due_day, :status, :daily_late_fee)
	`, a)
	require.NoError(t, err)
}

func newPayment(leaseID string, due time.Time, amount int64) *domain.Payment {
	return &domain.Payment{
		ID:              uuid.New(),
		LeaseID:         leaseID,
		Amount:          decimal.NewFromInt(amount),
		AmountPaid:      decimal.Zero,
		Balance:         decimal.NewFromInt(amount),
		DueDate:         due,
		OriginalDueDate: due,
		Status:          domain.PaymentStatusPending,
		Type:            domain.PaymentTypeRent,
		Description:     "Monthly rent",
		LateFineAmount:  decimal.Zero,
		CreatedAt:       time.Now().UTC(),
	}
}

func activeAgreement(id string, start time.Time, end *time.Time) *domain.Agreement {
	day := 1
	return &domain.Agreement{
		ID:              id,
		AgreementNumber: "AGR-" + id,
		RentAmount:      decimal.NullDecimal{Decimal: decimal.NewFromInt(1500), Valid: true},
		StartDate:       start,
		EndDate:         end,
		RentDueDay:      &day,
		Status:          domain.AgreementStatusActive,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, Migrate(context.Background(), db))
}

func TestMigrate_UnsupportedDriver(t *testing.T) {
	db := sqlx.NewDb(nil, "mysql")
	err := Migrate(context.Background(), db)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestAgreementRepository_GetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAgreementRepository(db)
	ctx := context.Background()

	end := date(2024, time.December, 31)
	agreement := activeAgreement("L-100", date(2024, time.January, 15), &end)
	agreement.DailyLateFee = decimal.NullDecimal{Decimal: decimal.NewFromInt(200), Valid: true}
	insertAgreement(t, db, agreement)

	got, err := repo.GetByID(ctx, "L-100")
	require.NoError(t, err)

	assert.Equal(t, "AGR-L-100", got.AgreementNumber)
	assert.True(t, got.Rent().Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, date(2024, time.January, 15), got.StartDate)
	require.NotNil(t, got.EndDate)
	assert.Equal(t, end, *got.EndDate)
	assert.Equal(t, 1, got.DueDay())
	assert.True(t, got.DailyLateFee.Valid)
	assert.True(t, got.DailyLateFee.Decimal.Equal(decimal.NewFromInt(200)))

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAgreementRepository_GetByID_NullableColumns(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAgreementRepository(db)

	insertAgreement(t, db, &domain.Agreement{
		ID:        "L-101",
		StartDate: date(2024, time.January, 1),
		Status:    domain.AgreementStatusActive,
	})

	got, err := repo.GetByID(context.Background(), "L-101")
	require.NoError(t, err)

	assert.Nil(t, got.EndDate)
	assert.Nil(t, got.RentDueDay)
	assert.False(t, got.RentAmount.Valid)
	assert.False(t, got.HasPositiveRent())
	assert.False(t, got.DailyLateFee.Valid)
}

func TestAgreementRepository_ListActiveSpanning(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAgreementRepository(db)
	today := date(2024, time.March, 1)

	endLater := date(2024, time.December, 31)
	endToday := today
	endPast := date(2024, time.February, 1)

	insertAgreement(t, db, activeAgreement("open-ended", date(2024, time.January, 1), nil))
	insertAgreement(t, db, activeAgreement("running", date(2024, time.January, 1), &endLater))
	insertAgreement(t, db, activeAgreement("ends-today", date(2024, time.January, 1), &endToday))
	insertAgreement(t, db, activeAgreement("ended", date(2023, time.January, 1), &endPast))
	insertAgreement(t, db, activeAgreement("starts-today", today, &endLater))
	terminated := activeAgreement("terminated", date(2024, time.January, 1), &endLater)
	terminated.Status = domain.AgreementStatusTerminated
	insertAgreement(t, db, terminated)

	spanning, err := repo.ListActiveSpanning(context.Background(), today)
	require.NoError(t, err)

	ids := make([]string, 0, len(spanning))
	for _, a := range spanning {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{"open-ended", "running"}, ids)

	active, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 5)
}

func TestPaymentRepository_CreateAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	insertAgreement(t, db, activeAgreement("L-200", date(2024, time.January, 1), nil))

	march := newPayment("L-200", date(2024, time.March, 1), 1500)
	january := newPayment("L-200", date(2024, time.January, 1), 1500)
	january.DaysOverdue = 5
	january.LateFineAmount = decimal.NewFromInt(600)
	january.DailyLateFee = decimal.NullDecimal{Decimal: decimal.NewFromInt(120), Valid: true}

	require.NoError(t, repo.Create(ctx, march))
	require.NoError(t, repo.Create(ctx, january))

	payments, err := repo.ListByLease(ctx, "L-200")
	require.NoError(t, err)
	require.Len(t, payments, 2)

	// Ordered by due date ascending
	assert.Equal(t, date(2024, time.January, 1), payments[0].DueDate)
	assert.Equal(t, date(2024, time.March, 1), payments[1].DueDate)

	first := payments[0]
	assert.Equal(t, january.ID, first.ID)
	assert.Nil(t, first.PaymentDate)
	assert.Equal(t, date(2024, time.January, 1), first.OriginalDueDate)
	assert.True(t, first.Balance.Equal(decimal.NewFromInt(1500)))
	assert.True(t, first.AmountPaid.IsZero())
	assert.Equal(t, 5, first.DaysOverdue)
	assert.True(t, first.LateFineAmount.Equal(decimal.NewFromInt(600)))
	assert.True(t, first.DailyLateFee.Decimal.Equal(decimal.NewFromInt(120)))
	assert.False(t, payments[1].DailyLateFee.Valid)

	other, err := repo.ListByLease(ctx, "L-unknown")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestPaymentRepository_CreateDuplicateDueDate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	insertAgreement(t, db, activeAgreement("L-300", date(2024, time.January, 1), nil))

	require.NoError(t, repo.Create(ctx, newPayment("L-300", date(2024, time.April, 1), 1500)))

	err := repo.Create(ctx, newPayment("L-300", date(2024, time.April, 1), 1500))
	assert.ErrorIs(t, err, ErrDuplicatePayment)

	// Same due date on another lease is fine
	insertAgreement(t, db, activeAgreement("L-301", date(2024, time.January, 1), nil))
	assert.NoError(t, repo.Create(ctx, newPayment("L-301", date(2024, time.April, 1), 1500)))
}

func TestPaymentRepository_GetByLeaseAndDueDate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	insertAgreement(t, db, activeAgreement("L-400", date(2024, time.January, 1), nil))
	payment := newPayment("L-400", date(2024, time.May, 1), 1500)
	require.NoError(t, repo.Create(ctx, payment))

	got, err := repo.GetByLeaseAndDueDate(ctx, "L-400", date(2024, time.May, 1))
	require.NoError(t, err)
	assert.Equal(t, payment.ID, got.ID)

	_, err = repo.GetByLeaseAndDueDate(ctx, "L-400", date(2024, time.June, 1))
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPaymentRepository_OverdueLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	insertAgreement(t, db, activeAgreement("L-500", date(2024, time.January, 1), nil))

	past := newPayment("L-500", date(2024, time.February, 1), 1500)
	paid := newPayment("L-500", date(2024, time.January, 1), 1500)
	paidOn := date(2024, time.January, 3)
	paid.PaymentDate = &paidOn
	paid.Status = domain.PaymentStatusPaid
	future := newPayment("L-500", date(2024, time.April, 1), 1500)

	for _, p := range []*domain.Payment{past, paid, future} {
		require.NoError(t, repo.Create(ctx, p))
	}

	unpaid, err := repo.ListUnpaidDueBefore(ctx, date(2024, time.March, 12))
	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	assert.Equal(t, past.ID, unpaid[0].ID)

	require.NoError(t, repo.UpdateOverdue(ctx, past.ID, 40, decimal.NewFromInt(3000)))

	got, err := repo.GetByLeaseAndDueDate(ctx, "L-500", date(2024, time.February, 1))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusOverdue, got.Status)
	assert.Equal(t, 40, got.DaysOverdue)
	assert.True(t, got.LateFineAmount.Equal(decimal.NewFromInt(3000)))

	// Overdue rows stay in the sweep so their fines keep growing
	unpaid, err = repo.ListUnpaidDueBefore(ctx, date(2024, time.March, 12))
	require.NoError(t, err)
	assert.Len(t, unpaid, 1)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(sql.ErrNoRows))
}
