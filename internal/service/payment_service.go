package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/rental-billing/internal/clock"
	"github.com/segyhp/rental-billing/internal/domain"
	"github.com/segyhp/rental-billing/internal/lock"
	"github.com/segyhp/rental-billing/internal/repository"
	"github.com/segyhp/rental-billing/internal/schedule"
	customError "github.com/segyhp/rental-billing/pkg/errors"
	"github.com/segyhp/rental-billing/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type PaymentService struct {
	AgreementRepo repository.AgreementRepository
	PaymentRepo   repository.PaymentRepository
	Locker        lock.Locker
	Clock         clock.Clock
	Logger        logrus.FieldLogger
	Settings      Settings
}

func NewPaymentService(
	agreementRepo repository.AgreementRepository,
	paymentRepo repository.PaymentRepository,
	locker lock.Locker,
	clk clock.Clock,
	logger logrus.FieldLogger,
	settings Settings,
) *PaymentService {
	if locker == nil {
		locker = lock.Noop{}
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PaymentService{
		AgreementRepo: agreementRepo,
		PaymentRepo:   paymentRepo,
		Locker:        locker,
		Clock:         clk,
		Logger:        logger,
		Settings:      settings,
	}
}

// Today returns the current business date
func (s *PaymentService) Today() time.Time {
	return utils.DateIn(s.Clock.Now(), s.Settings.Location)
}

// ForceGeneratePayment creates the rent payment of one agreement for the
// month containing specificDate (today when nil). Late fields are filled in
// when the due date has already passed. A month that already has a payment
// is reported as OutcomeExists and left untouched.
func (s *PaymentService) ForceGeneratePayment(ctx context.Context, agreementID string, specificDate *time.Time) (*domain.GenerationResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	agreement, err := s.loadAgreement(ctx, agreementID)
	if err != nil {
		return nil, err
	}

	log := s.Logger.WithFields(logrus.Fields{
		"lease_id":         agreement.ID,
		"agreement_number": agreement.AgreementNumber,
	})

	if !agreement.IsActive() {
		log.WithField("status", agreement.Status).Debug("Skipping inactive agreement")
		return &domain.GenerationResult{
			AgreementID: agreement.ID,
			Outcome:     domain.OutcomeSkipped,
			Message:     fmt.Sprintf("Agreement %s is %s; no payment generated", agreement.ID, agreement.Status),
		}, nil
	}

	if !agreement.HasPositiveRent() {
		log.Debug("Skipping agreement without rent amount")
		return &domain.GenerationResult{
			AgreementID: agreement.ID,
			Outcome:     domain.OutcomeSkipped,
			Message:     fmt.Sprintf("Agreement %s has no rent amount; no payment generated", agreement.ID),
		}, nil
	}

	lease, err := s.acquireLease(ctx, agreement.ID)
	if err != nil {
		return nil, err
	}
	defer s.releaseLease(lease, agreement.ID)

	today := s.Today()
	paymentDate := today
	if specificDate != nil && !specificDate.IsZero() {
		paymentDate = utils.DateOf(*specificDate)
	}
	dueDate := schedule.FirstDueDate(paymentDate, agreement.DueDay())

	existing, err := s.PaymentRepo.GetByLeaseAndDueDate(ctx, agreement.ID, dueDate)
	if err == nil {
		return existsResult(agreement.ID, existing), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	payment := s.newRentPayment(agreement, dueDate, today)

	if err := s.PaymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicatePayment) {
			// Lost a race with another writer between the check and the insert.
			existing, getErr := s.PaymentRepo.GetByLeaseAndDueDate(ctx, agreement.ID, dueDate)
			if getErr != nil {
				return nil, customError.WrapDatabaseError(getErr)
			}
			return existsResult(agreement.ID, existing), nil
		}
		return nil, customError.WrapDatabaseError(err)
	}

	log.WithFields(logrus.Fields{
		"due_date":     dueDate.Format(utils.DateLayout),
		"status":       payment.Status,
		"days_overdue": payment.DaysOverdue,
		"late_fine":    payment.LateFineAmount.String(),
	}).Info("Generated rent payment")

	return &domain.GenerationResult{
		AgreementID: agreement.ID,
		Outcome:     domain.OutcomeCreated,
		Message:     fmt.Sprintf("Payment for %s generated", utils.MonthLabel(dueDate)),
		Payment:     payment,
	}, nil
}

// ReconcileMissingMonths creates pending payments for every month between the
// last recorded payment and req.Through (today by default) that has none.
//
// Months are inserted one by one in ascending order without a transaction.
// When an insert fails the error is returned together with a result counting
// the payments already created; those stay committed, and a rerun picks up
// where the failed one stopped.
func (s *PaymentService) ReconcileMissingMonths(ctx context.Context, leaseID string, req domain.ReconcileRequest) (*domain.ReconcileResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	agreement, err := s.loadAgreement(ctx, leaseID)
	if err != nil {
		return nil, err
	}

	result := &domain.ReconcileResult{LeaseID: agreement.ID, Outcome: domain.OutcomeSkipped}

	if !agreement.IsActive() {
		result.Message = fmt.Sprintf("Agreement %s is %s; nothing reconciled", agreement.ID, agreement.Status)
		return result, nil
	}

	amount := agreement.Rent()
	if !amount.IsPositive() && req.RentAmount != nil {
		amount = *req.RentAmount
	}
	if !amount.IsPositive() {
		result.Message = fmt.Sprintf("Agreement %s has no rent amount; nothing reconciled", agreement.ID)
		return result, nil
	}

	lease, err := s.acquireLease(ctx, agreement.ID)
	if err != nil {
		return nil, err
	}
	defer s.releaseLease(lease, agreement.ID)

	payments, err := s.PaymentRepo.ListByLease(ctx, agreement.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	existing := make([]time.Time, 0, len(payments))
	for _, p := range payments {
		existing = append(existing, p.DueDate)
	}

	today := s.Today()
	window := s.reconcileWindow(agreement, payments, req, today)
	missing := schedule.MissingDueDates(window, existing)
	missing = clipToAgreement(missing, agreement)

	log := s.Logger.WithFields(logrus.Fields{
		"lease_id":         agreement.ID,
		"agreement_number": agreement.AgreementNumber,
	})

	result.Outcome = domain.OutcomeExists
	for _, due := range missing {
		payment := s.newPendingPayment(agreement, due, amount)

		if err := s.PaymentRepo.Create(ctx, payment); err != nil {
			if errors.Is(err, repository.ErrDuplicatePayment) {
				continue
			}
			result.Message = fmt.Sprintf("Created %d missing payment(s) before failing on %s", result.Created, utils.MonthLabel(due))
			return result, customError.WrapDatabaseError(err)
		}

		result.Created++
		result.Outcome = domain.OutcomeCreated
		result.Payments = append(result.Payments, payment)
	}

	if result.Created == 0 {
		result.Message = fmt.Sprintf("No missing payments for agreement %s", agreement.ID)
	} else {
		result.Message = fmt.Sprintf("Created %d missing payment(s) for agreement %s", result.Created, agreement.ID)
		log.WithField("created", result.Created).Info("Reconciled missing rent payments")
	}

	return result, nil
}

// PreviewSchedule returns the agreement's full rent schedule, marking the
// due dates that already have a payment
func (s *PaymentService) PreviewSchedule(ctx context.Context, agreementID string) ([]*domain.ScheduledPayment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	agreement, err := s.loadAgreement(ctx, agreementID)
	if err != nil {
		return nil, err
	}

	payments, err := s.PaymentRepo.ListByLease(ctx, agreement.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	existing := make([]time.Time, 0, len(payments))
	for _, p := range payments {
		existing = append(existing, p.DueDate)
	}

	entries := schedule.Generate(agreement)
	schedule.MarkRecorded(entries, existing)
	return entries, nil
}

// RefreshOverdue marks unpaid payments past their due date as overdue and
// recomputes their late fines. It returns how many rows were changed.
// The listing and every row update each get their own OPERATION_TIMEOUT, so
// a long sweep is bounded per statement rather than as a whole.
// A failing row does not stop the sweep; the first failure is returned.
func (s *PaymentService) RefreshOverdue(ctx context.Context) (int, error) {
	today := s.Today()

	listCtx, cancel := s.withTimeout(ctx)
	payments, err := s.PaymentRepo.ListUnpaidDueBefore(listCtx, today)
	cancel()
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	updated := 0
	var firstErr error
	for _, p := range payments {
		if err := ctx.Err(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			break
		}
		if p.IsSettled() {
			continue
		}

		days := utils.DaysOverdue(p.DueDate, today)
		dailyFee := s.Settings.DefaultDailyLateFee
		if p.DailyLateFee.Valid {
			dailyFee = p.DailyLateFee.Decimal
		}
		fine := utils.CalculateLateFee(days, dailyFee, s.Settings.LateFeeCap)

		if p.Status == domain.PaymentStatusOverdue && p.DaysOverdue == days && p.LateFineAmount.Equal(fine) {
			continue
		}

		rowCtx, cancel := s.withTimeout(ctx)
		err := s.PaymentRepo.UpdateOverdue(rowCtx, p.ID, days, fine)
		cancel()
		if err != nil {
			s.Logger.WithError(err).WithField("payment_id", p.ID).Error("Failed to mark payment overdue")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		updated++
	}

	if firstErr != nil {
		return updated, customError.WrapDatabaseError(firstErr)
	}
	return updated, nil
}

func (s *PaymentService) loadAgreement(ctx context.Context, agreementID string) (*domain.Agreement, error) {
	agreement, err := s.AgreementRepo.GetByID(ctx, agreementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapAgreementNotFound(agreementID)
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return agreement, nil
}

// reconcileWindow resolves the scan bounds. Without an explicit anchor the
// scan starts at the latest recorded due date on or before Through, or, when
// there is none, one month before the lease start so its first due date is
// examined too. Payments dated after Through (force-generated ahead of time)
// never move the anchor past the gap they sit behind.
func (s *PaymentService) reconcileWindow(agreement *domain.Agreement, payments []*domain.Payment, req domain.ReconcileRequest, today time.Time) schedule.Window {
	window := schedule.Window{DueDay: agreement.DueDay(), Through: today}

	if req.Through != nil {
		window.Through = utils.DateOf(*req.Through)
	}
	if agreement.EndDate != nil && agreement.EndDate.Before(window.Through) {
		window.Through = *agreement.EndDate
	}

	if req.LastPaymentDate != nil {
		window.LastPaymentDate = utils.DateOf(*req.LastPaymentDate)
		return window
	}

	window.LastPaymentDate = utils.AddMonths(utils.FirstOfMonth(agreement.StartDate), -1)
	// payments are ordered by due date ascending
	for i := len(payments) - 1; i >= 0; i-- {
		if !payments[i].DueDate.After(window.Through) {
			window.LastPaymentDate = payments[i].DueDate
			break
		}
	}

	return window
}

// clipToAgreement drops due dates outside the lease period
func clipToAgreement(dues []time.Time, agreement *domain.Agreement) []time.Time {
	out := dues[:0]
	for _, d := range dues {
		if !agreement.StartDate.IsZero() && d.Before(agreement.StartDate) {
			continue
		}
		if agreement.EndDate != nil && d.After(*agreement.EndDate) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (s *PaymentService) newPendingPayment(agreement *domain.Agreement, dueDate time.Time, amount decimal.Decimal) *domain.Payment {
	return &domain.Payment{
		ID:              uuid.New(),
		LeaseID:         agreement.ID,
		Amount:          amount,
		AmountPaid:      decimal.Zero,
		Balance:         amount,
		DueDate:         dueDate,
		OriginalDueDate: dueDate,
		Status:          domain.PaymentStatusPending,
		Type:            domain.PaymentTypeRent,
		Description:     rentDescription(agreement, dueDate),
		LateFineAmount:  decimal.Zero,
		CreatedAt:       s.Clock.Now().UTC(),
	}
}

func (s *PaymentService) newRentPayment(agreement *domain.Agreement, dueDate, today time.Time) *domain.Payment {
	payment := s.newPendingPayment(agreement, dueDate, agreement.Rent())

	dailyFee := agreement.LateFeePerDay(s.Settings.DefaultDailyLateFee)
	payment.DailyLateFee = decimal.NullDecimal{Decimal: dailyFee, Valid: true}

	if dueDate.Before(today) {
		payment.Status = domain.PaymentStatusOverdue
		payment.DaysOverdue = utils.DaysOverdue(dueDate, today)
		payment.LateFineAmount = utils.CalculateLateFee(payment.DaysOverdue, dailyFee, s.Settings.LateFeeCap)
	}

	return payment
}

func rentDescription(agreement *domain.Agreement, dueDate time.Time) string {
	if agreement.AgreementNumber != "" {
		return fmt.Sprintf("Monthly rent for %s - agreement %s", utils.MonthLabel(dueDate), agreement.AgreementNumber)
	}
	return fmt.Sprintf("Monthly rent for %s", utils.MonthLabel(dueDate))
}

func existsResult(agreementID string, payment *domain.Payment) *domain.GenerationResult {
	return &domain.GenerationResult{
		AgreementID: agreementID,
		Outcome:     domain.OutcomeExists,
		Message:     fmt.Sprintf("Payment for %s already exists", utils.MonthLabel(payment.DueDate)),
		Payment:     payment,
	}
}

func (s *PaymentService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Settings.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Settings.OperationTimeout)
}

func leaseLockKey(agreementID string) string {
	return "lease:" + agreementID
}

func (s *PaymentService) acquireLease(ctx context.Context, agreementID string) (lock.Lease, error) {
	key := leaseLockKey(agreementID)
	lease, err := s.Locker.Acquire(ctx, key, s.Settings.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, customError.WrapLockBusy(key)
		}
		return nil, customError.WrapLockError(err)
	}
	return lease, nil
}

// releaseLease runs after the operation's context may have expired, so it
// uses its own short deadline.
func (s *PaymentService) releaseLease(lease lock.Lease, agreementID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := lease.Release(ctx); err != nil {
		s.Logger.WithError(err).WithField("lease_id", agreementID).Warn("Failed to release lease lock")
	}
}
