// Package engine holds the loan accounting rules: schedule math, payment
// aggregation, closure decisions, and overdue estimation. Everything here is
// pure computation over plain values; persistence and rendering live with the
// callers. The package is safe to use concurrently as long as each call gets
// a consistent snapshot of a loan's payment history.
package engine

import "errors"

// Frequency is the repayment cadence of a loan.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// StepDays returns the approximate length of one period in days.
// Monthly is a fixed 30-day approximation, not calendar-accurate.
func (f Frequency) StepDays() int {
	switch f {
	case FrequencyDaily:
		return 1
	case FrequencyWeekly:
		return 7
	case FrequencyBiweekly:
		return 14
	case FrequencyMonthly:
		return 30
	default:
		return 0
	}
}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool { return f.StepDays() > 0 }

// PaymentKind tags how a payment applies to a loan.
type PaymentKind string

const (
	// KindInstallment covers one period's principal+interest share ("cuota").
	KindInstallment PaymentKind = "installment"
	// KindPrincipal reduces the remaining principal only ("capital").
	KindPrincipal PaymentKind = "principal"
	// KindInterest counts toward the interest-paid running total ("interes").
	KindInterest PaymentKind = "interest"
)

// Valid reports whether k is a known payment kind.
func (k PaymentKind) Valid() bool {
	switch k {
	case KindInstallment, KindPrincipal, KindInterest:
		return true
	}
	return false
}

// Status is the lifecycle state of a loan. Transitions are one-directional:
// active becomes closed and never reverses.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

var (
	ErrInvalidAmount = errors.New("payment amount must be positive")
	ErrInvalidKind   = errors.New("unknown payment kind")
)

// ValidatePayment rejects payment input that must never reach the store.
func ValidatePayment(amount float64, kind PaymentKind) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}
