package engine

// ClosureTolerance absorbs float rounding when comparing cumulative payments
// against the total payable: one cent, fixed.
const ClosureTolerance = 0.01

// EvaluateClosure decides the loan status after a payment event.
//
// A closed loan stays closed no matter what the totals say. An active loan
// closes once payments cover the total payable within tolerance. The
// degenerate zero-payable case (zero rate or zero term with nothing financed)
// closes on the remaining-principal column instead.
func EvaluateClosure(totalPayable, totalPaid, remaining float64, current Status) Status {
	if current == StatusClosed {
		return StatusClosed
	}
	if totalPayable > 0 {
		if totalPaid >= totalPayable-ClosureTolerance {
			return StatusClosed
		}
		return StatusActive
	}
	if remaining <= 0 {
		return StatusClosed
	}
	return StatusActive
}
