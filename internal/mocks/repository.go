package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/rental-billing/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockAgreementRepository struct {
	mock.Mock
}

func (m *MockAgreementRepository) GetByID(ctx context.Context, id string) (*domain.Agreement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agreement), args.Error(1)
}

func (m *MockAgreementRepository) ListActive(ctx context.Context) ([]*domain.Agreement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Agreement), args.Error(1)
}

func (m *MockAgreementRepository) ListActiveSpanning(ctx context.Context, today time.Time) ([]*domain.Agreement, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Agreement), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListByLease(ctx context.Context, leaseID string) ([]*domain.Payment, error) {
	args := m.Called(ctx, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByLeaseAndDueDate(ctx context.Context, leaseID string, dueDate time.Time) (*domain.Payment, error) {
	args := m.Called(ctx, leaseID, dueDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListUnpaidDueBefore(ctx context.Context, date time.Time) ([]*domain.Payment, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) UpdateOverdue(ctx context.Context, id uuid.UUID, daysOverdue int, lateFine decimal.Decimal) error {
	args := m.Called(ctx, id, daysOverdue, lateFine)
	return args.Error(0)
}
