package mocks

import (
	"context"
	"time"

	"github.com/segyhp/rental-billing/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) ForceGeneratePayment(ctx context.Context, agreementID string, specificDate *time.Time) (*domain.GenerationResult, error) {
	args := m.Called(ctx, agreementID, specificDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GenerationResult), args.Error(1)
}

func (m *MockPaymentService) ReconcileMissingMonths(ctx context.Context, leaseID string, req domain.ReconcileRequest) (*domain.ReconcileResult, error) {
	args := m.Called(ctx, leaseID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconcileResult), args.Error(1)
}

func (m *MockPaymentService) PreviewSchedule(ctx context.Context, agreementID string) ([]*domain.ScheduledPayment, error) {
	args := m.Called(ctx, agreementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduledPayment), args.Error(1)
}

func (m *MockPaymentService) RefreshOverdue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunGated(ctx context.Context) (*domain.RunSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunSummary), args.Error(1)
}

func (m *MockRunner) RunForce(ctx context.Context) (*domain.RunSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunSummary), args.Error(1)
}

// NewMockPaymentService creates a new mock payment service instance
func NewMockPaymentService() *MockPaymentService {
	return &MockPaymentService{}
}
