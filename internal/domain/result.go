package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome distinguishes "did something" from the different flavours of
// "nothing to do" without treating the latter as failures.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeExists  Outcome = "exists"
	OutcomeSkipped Outcome = "skipped"
)

// GenerationResult is returned by single-agreement force generation
type GenerationResult struct {
	AgreementID string   `json:"agreement_id"`
	Outcome     Outcome  `json:"outcome"`
	Message     string   `json:"message"`
	Payment     *Payment `json:"payment,omitempty"`
}

// ReconcileResult is returned by missing-month reconciliation
type ReconcileResult struct {
	LeaseID  string     `json:"lease_id"`
	Outcome  Outcome    `json:"outcome"`
	Created  int        `json:"created"`
	Payments []*Payment `json:"payments,omitempty"`
	Message  string     `json:"message"`
}

// ReconcileRequest carries the optional inputs of a reconciliation.
// Nil dates are derived from stored payments and the clock.
type ReconcileRequest struct {
	RentAmount      *decimal.Decimal
	LastPaymentDate *time.Time
	Through         *time.Time
}

const (
	RunModeGated = "gated"
	RunModeForce = "force"
)

// AgreementRunResult records what a monthly run did for one agreement
type AgreementRunResult struct {
	AgreementID     string  `json:"agreement_id"`
	AgreementNumber string  `json:"agreement_number"`
	Outcome         Outcome `json:"outcome,omitempty"`
	Message         string  `json:"message"`
	Error           string  `json:"error,omitempty"`
}

// Failed reports whether processing the agreement returned an error
func (r AgreementRunResult) Failed() bool {
	return r.Error != ""
}

// RunSummary aggregates a monthly run
type RunSummary struct {
	Mode      string               `json:"mode"`
	Date      time.Time            `json:"date"`
	Ran       bool                 `json:"ran"`
	Message   string               `json:"message"`
	Processed int                  `json:"processed"`
	Generated int                  `json:"generated"`
	Existing  int                  `json:"existing"`
	Skipped   int                  `json:"skipped"`
	Failed    int                  `json:"failed"`
	Results   []AgreementRunResult `json:"results,omitempty"`
}

// Add folds one agreement result into the summary counters
func (s *RunSummary) Add(r AgreementRunResult) {
	s.Processed++
	switch {
	case r.Failed():
		s.Failed++
	case r.Outcome == OutcomeCreated:
		s.Generated++
	case r.Outcome == OutcomeExists:
		s.Existing++
	default:
		s.Skipped++
	}
	s.Results = append(s.Results, r)
}
