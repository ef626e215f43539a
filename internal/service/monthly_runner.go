package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/segyhp/rental-billing/internal/clock"
	"github.com/segyhp/rental-billing/internal/domain"
	"github.com/segyhp/rental-billing/internal/lock"
	"github.com/segyhp/rental-billing/internal/repository"
	customError "github.com/segyhp/rental-billing/pkg/errors"
	"github.com/segyhp/rental-billing/pkg/utils"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// MonthlyRunner generates the current month's rent payment for every
// eligible agreement. Agreements are handled in batches; inside a batch at
// most Settings.Concurrency agreements are in flight at once. Work for a
// single agreement is always sequential.
type MonthlyRunner struct {
	AgreementRepo repository.AgreementRepository
	Generator     PaymentGenerator
	Locker        lock.Locker
	Clock         clock.Clock
	Logger        logrus.FieldLogger
	Settings      Settings
}

func NewMonthlyRunner(
	agreementRepo repository.AgreementRepository,
	generator PaymentGenerator,
	locker lock.Locker,
	clk clock.Clock,
	logger logrus.FieldLogger,
	settings Settings,
) *MonthlyRunner {
	if locker == nil {
		locker = lock.Noop{}
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &MonthlyRunner{
		AgreementRepo: agreementRepo,
		Generator:     generator,
		Locker:        locker,
		Clock:         clk,
		Logger:        logger,
		Settings:      settings,
	}
}

// Today returns the current business date
func (r *MonthlyRunner) Today() time.Time {
	return utils.DateIn(r.Clock.Now(), r.Settings.Location)
}

// RunGated runs only on the configured day of the month, over agreements
// whose lease period spans today. A per-month lock keeps concurrent
// schedulers from running the same month at once.
func (r *MonthlyRunner) RunGated(ctx context.Context) (*domain.RunSummary, error) {
	today := r.Today()
	summary := &domain.RunSummary{Mode: domain.RunModeGated, Date: today}

	if today.Day() != r.Settings.RunDayOfMonth {
		summary.Message = fmt.Sprintf("Today is day %d; monthly generation runs on day %d", today.Day(), r.Settings.RunDayOfMonth)
		r.Logger.WithField("date", today.Format(utils.DateLayout)).Debug(summary.Message)
		return summary, nil
	}

	key := "monthly-run:" + today.Format("2006-01")
	lease, err := r.Locker.Acquire(ctx, key, r.Settings.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			summary.Message = "Monthly generation is already running"
			return summary, customError.WrapLockBusy(key)
		}
		return summary, customError.WrapLockError(err)
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lease.Release(releaseCtx); err != nil {
			r.Logger.WithError(err).Warn("Failed to release monthly run lock")
		}
	}()

	listCtx, cancel := r.withTimeout(ctx)
	agreements, err := r.AgreementRepo.ListActiveSpanning(listCtx, today)
	cancel()
	if err != nil {
		return summary, customError.WrapDatabaseError(err)
	}

	r.process(ctx, summary, agreements)
	return summary, nil
}

// RunForce ignores the date gate and processes every active agreement. Each
// agreement's status is re-read before its payment is generated.
func (r *MonthlyRunner) RunForce(ctx context.Context) (*domain.RunSummary, error) {
	today := r.Today()
	summary := &domain.RunSummary{Mode: domain.RunModeForce, Date: today}

	listCtx, cancel := r.withTimeout(ctx)
	agreements, err := r.AgreementRepo.ListActive(listCtx)
	cancel()
	if err != nil {
		return summary, customError.WrapDatabaseError(err)
	}

	r.process(ctx, summary, agreements)
	return summary, nil
}

func (r *MonthlyRunner) process(ctx context.Context, summary *domain.RunSummary, agreements []*domain.Agreement) {
	summary.Ran = true

	eligible := make([]*domain.Agreement, 0, len(agreements))
	for _, a := range agreements {
		if !a.HasPositiveRent() {
			summary.Add(domain.AgreementRunResult{
				AgreementID:     a.ID,
				AgreementNumber: a.AgreementNumber,
				Outcome:         domain.OutcomeSkipped,
				Message:         "no rent amount",
			})
			continue
		}
		eligible = append(eligible, a)
	}

	batchSize := r.Settings.BatchSize
	if batchSize <= 0 {
		batchSize = len(eligible)
	}
	concurrency := r.Settings.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var results []domain.AgreementRunResult
	for start := 0; start < len(eligible); start += batchSize {
		end := min(start+batchSize, len(eligible))

		p := pool.NewWithResults[domain.AgreementRunResult]().WithMaxGoroutines(concurrency)
		for _, a := range eligible[start:end] {
			p.Go(func() domain.AgreementRunResult {
				return r.generate(ctx, a)
			})
		}
		results = append(results, p.Wait()...)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].AgreementNumber != results[j].AgreementNumber {
			return results[i].AgreementNumber < results[j].AgreementNumber
		}
		return results[i].AgreementID < results[j].AgreementID
	})
	for _, res := range results {
		summary.Add(res)
	}

	summary.Message = fmt.Sprintf("Processed %d agreements: %d generated, %d already present, %d skipped, %d failed",
		summary.Processed, summary.Generated, summary.Existing, summary.Skipped, summary.Failed)

	r.Logger.WithFields(logrus.Fields{
		"mode":      summary.Mode,
		"date":      summary.Date.Format(utils.DateLayout),
		"processed": summary.Processed,
		"generated": summary.Generated,
		"existing":  summary.Existing,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
	}).Info("Monthly payment run finished")
}

func (r *MonthlyRunner) generate(ctx context.Context, a *domain.Agreement) domain.AgreementRunResult {
	res := domain.AgreementRunResult{AgreementID: a.ID, AgreementNumber: a.AgreementNumber}

	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		res.Message = "run cancelled"
		return res
	}

	out, err := r.Generator.ForceGeneratePayment(ctx, a.ID, nil)
	if err != nil {
		r.Logger.WithError(err).WithFields(logrus.Fields{
			"lease_id":         a.ID,
			"agreement_number": a.AgreementNumber,
		}).Error("Failed to generate monthly payment")
		res.Error = err.Error()
		res.Message = "generation failed"
		return res
	}

	res.Outcome = out.Outcome
	res.Message = out.Message
	return res
}

func (r *MonthlyRunner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Settings.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.Settings.OperationTimeout)
}
