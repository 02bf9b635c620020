package engine

// PaymentRecord is the slice of a stored payment the ledger math needs.
type PaymentRecord struct {
	Amount float64
	Kind   PaymentKind
}

// LedgerTotals aggregates a loan's full payment history.
//
// InterestPaid counts only explicitly interest-tagged payments. Installment
// payments logically contain an interest share but do not move this figure;
// that asymmetry is a policy carried over from the ledger this replaces.
type LedgerTotals struct {
	TotalPaid    float64
	InterestPaid float64
}

// SumPayments recomputes totals from the complete history. Callers must pass
// every payment of the loan on every invocation; totals are never cached or
// maintained incrementally.
func SumPayments(payments []PaymentRecord) LedgerTotals {
	var t LedgerTotals
	for _, p := range payments {
		t.TotalPaid += p.Amount
		if p.Kind == KindInterest {
			t.InterestPaid += p.Amount
		}
	}
	return t
}

// ApplyRunningFields returns the loan's mutable running columns after a
// payment of the given kind. Remaining principal moves only on principal
// payments and is clamped at zero; the interest-paid column moves only on
// interest payments. Installments touch neither.
func ApplyRunningFields(remaining, interestPaid, amount float64, kind PaymentKind) (newRemaining, newInterestPaid float64) {
	newRemaining = remaining
	newInterestPaid = interestPaid
	switch kind {
	case KindPrincipal:
		newRemaining = remaining - amount
		if newRemaining < 0 {
			newRemaining = 0
		}
	case KindInterest:
		newInterestPaid = interestPaid + amount
	}
	return newRemaining, newInterestPaid
}
