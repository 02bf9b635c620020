package engine

// Schedule is the derived repayment plan for a loan with flat per-period
// interest: each period accrues principal*rate/100 regardless of payments
// made so far.
type Schedule struct {
	PerPeriodInterest float64
	TotalInterest     float64
	TotalPayable      float64
	Installment       float64
}

// ComputeSchedule derives the schedule from the loan terms.
// A zero term yields a zero installment rather than a division error.
func ComputeSchedule(principal, rate float64, termCount int) Schedule {
	s := Schedule{}
	s.PerPeriodInterest = principal * rate / 100
	s.TotalInterest = s.PerPeriodInterest * float64(termCount)
	s.TotalPayable = principal + s.TotalInterest
	if termCount > 0 {
		s.Installment = s.TotalPayable / float64(termCount)
	}
	return s
}
