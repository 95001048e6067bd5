package triage

import "time"

// ComputeOverdue derives how late a patient is for follow-up care.
//
// The return deadline is the basis date plus the follow-up interval. The
// basis is the last completed appointment; a patient who never completed
// one falls back to their program enrollment date. With neither, the
// patient is never overdue and both results are nil.
//
// daysOverdue is reported only when strictly positive. A patient on or
// before the deadline gets a nil daysOverdue alongside the deadline.
//
// Pure and deterministic: callers supply the clock.
func ComputeOverdue(lastCompleted, enrolledAt *time.Time, intervalDays int, today time.Time) (daysOverdue *int, returnDeadline *time.Time) {
	basis := lastCompleted
	if basis == nil {
		basis = enrolledAt
	}
	if basis == nil {
		return nil, nil
	}

	deadline := dateOnly(*basis).AddDate(0, 0, intervalDays)

	days := int(dateOnly(today).Sub(deadline).Hours() / 24)
	if days <= 0 {
		return nil, &deadline
	}
	return &days, &deadline
}

// dateOnly strips the time-of-day so overdue counts are whole calendar
// days, independent of appointment hour.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
