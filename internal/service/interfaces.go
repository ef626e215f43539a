package service

import (
	"context"
	"time"

	"github.com/segyhp/rental-billing/internal/domain"
)

// PaymentGenerator creates the rent payment of one agreement for one month
type PaymentGenerator interface {
	ForceGeneratePayment(ctx context.Context, agreementID string, specificDate *time.Time) (*domain.GenerationResult, error)
}

// PaymentOperations is the payment surface exposed to the HTTP handlers
type PaymentOperations interface {
	PaymentGenerator
	ReconcileMissingMonths(ctx context.Context, leaseID string, req domain.ReconcileRequest) (*domain.ReconcileResult, error)
	PreviewSchedule(ctx context.Context, agreementID string) ([]*domain.ScheduledPayment, error)
	RefreshOverdue(ctx context.Context) (int, error)
}

// RunOperations triggers monthly batch runs
type RunOperations interface {
	RunGated(ctx context.Context) (*domain.RunSummary, error)
	RunForce(ctx context.Context) (*domain.RunSummary, error)
}

var (
	_ PaymentOperations = (*PaymentService)(nil)
	_ RunOperations     = (*MonthlyRunner)(nil)
)
