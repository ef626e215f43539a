package domain

import "github.com/shopspring/decimal"

// DTOs for the admin HTTP surface

type ForcePaymentRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type ReconcilePaymentsRequest struct {
	RentAmount      *decimal.Decimal `json:"rent_amount"`
	LastPaymentDate string           `json:"last_payment_date" validate:"omitempty,datetime=2006-01-02"`
	Through         string           `json:"through" validate:"omitempty,datetime=2006-01-02"`
}

type ScheduleResponse struct {
	AgreementID string              `json:"agreement_id"`
	Schedule    []*ScheduledPayment `json:"schedule"`
}

type OverdueRefreshResponse struct {
	Updated int `json:"updated"`
}
