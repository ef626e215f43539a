// Package schedule holds the pure monthly rent arithmetic: the forward
// schedule of an agreement and the months missing from a payment history.
//
// Due dates are derived from (year, month, due day) for every month rather
// than by adding a month to the previous due date, so a due day of 31 gives
// 31 Jan, 29 Feb, 31 Mar instead of drifting to the 29th. Days past the end
// of a short month clamp to its last day.
package schedule

import (
	"time"

	"github.com/segyhp/rental-billing/internal/domain"
	"github.com/segyhp/rental-billing/pkg/utils"
)

// DefaultHorizonMonths bounds the schedule of an agreement without an end date
const DefaultHorizonMonths = 12

// Generate returns the ordered rent schedule of an agreement, one entry per
// calendar month from the first due date on or after start_date up to and
// including end_date. It has no side effects.
func Generate(agreement *domain.Agreement) []*domain.ScheduledPayment {
	if agreement == nil || agreement.StartDate.IsZero() {
		return nil
	}

	start := utils.DateOf(agreement.StartDate)
	dueDay := agreement.DueDay()

	var end time.Time
	if agreement.EndDate != nil && !agreement.EndDate.IsZero() {
		end = utils.DateOf(*agreement.EndDate)
	} else {
		horizon := utils.AddMonths(utils.FirstOfMonth(start), DefaultHorizonMonths)
		end = utils.DueDateFor(horizon.Year(), horizon.Month(), start.Day())
	}

	month := utils.FirstOfMonth(start)
	if FirstDueDate(month, dueDay).Before(start) {
		// The due day of the start month has already passed.
		month = utils.AddMonths(month, 1)
	}

	var entries []*domain.ScheduledPayment
	for {
		due := FirstDueDate(month, dueDay)
		if due.After(end) {
			break
		}
		entries = append(entries, &domain.ScheduledPayment{
			LeaseID: agreement.ID,
			DueDate: due,
			Amount:  agreement.Rent(),
			Status:  domain.PaymentStatusPending,
			Type:    domain.PaymentTypeRent,
		})
		month = utils.AddMonths(month, 1)
	}

	return entries
}

// FirstDueDate returns the due date inside the month that contains t
func FirstDueDate(t time.Time, dueDay int) time.Time {
	return utils.DueDateFor(t.Year(), t.Month(), dueDay)
}

// MarkRecorded flags the schedule entries whose due date already has a payment
func MarkRecorded(entries []*domain.ScheduledPayment, existing []time.Time) {
	index := newDateSet(existing)
	for _, e := range entries {
		e.Recorded = index.has(e.DueDate)
	}
}

// Window describes a missing-month scan.
type Window struct {
	// LastPaymentDate anchors the first month examined.
	LastPaymentDate time.Time
	// Through is the last date whose month is examined (inclusive).
	Through time.Time
	// DueDay selects each month's canonical due date.
	DueDay int
}

// MissingDueDates lists, in ascending order, the canonical due dates between
// the month of LastPaymentDate and the month of Through that have no entry in
// existing.
//
// The month of LastPaymentDate is only skipped outright when LastPaymentDate
// is that month's canonical due date; a payment on any other day of the month
// does not cover it, and the month is checked like any other.
func MissingDueDates(w Window, existing []time.Time) []time.Time {
	if w.LastPaymentDate.IsZero() || w.Through.IsZero() {
		return nil
	}

	last := utils.DateOf(w.LastPaymentDate)
	startMonth := utils.FirstOfMonth(last)
	endMonth := utils.FirstOfMonth(utils.DateOf(w.Through))
	index := newDateSet(existing)

	var missing []time.Time
	for month := startMonth; !month.After(endMonth); month = utils.AddMonths(month, 1) {
		due := FirstDueDate(month, w.DueDay)

		if utils.SameMonth(month, last) && utils.SameDay(last, due) {
			continue
		}
		if index.has(due) {
			continue
		}
		missing = append(missing, due)
	}

	return missing
}

type dateSet map[string]struct{}

func newDateSet(dates []time.Time) dateSet {
	s := make(dateSet, len(dates))
	for _, d := range dates {
		s[d.Format(utils.DateLayout)] = struct{}{}
	}
	return s
}

func (s dateSet) has(d time.Time) bool {
	_, ok := s[d.Format(utils.DateLayout)]
	return ok
}
