package engine

import (
	"math"
	"time"
)

// OverdueReport compares scheduled periods against interest actually
// collected. It is advisory output for the loan detail view and must never
// feed back into closure decisions or stored state.
type OverdueReport struct {
	ExpectedPeriods int
	PaidPeriods     int
	OverduePeriods  int
	InterestDue     float64
	InterestPending float64
}

// EstimateOverdue reports arrears for a loan as of today. The caller injects
// today so views and tests agree on the clock.
func EstimateOverdue(start time.Time, freq Frequency, termCount int, rate, principal, interestPaid float64, today time.Time) OverdueReport {
	r := OverdueReport{}
	step := freq.StepDays()
	if step <= 0 || termCount <= 0 {
		return r
	}

	elapsedDays := int(today.Sub(start).Hours() / 24)
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	r.ExpectedPeriods = elapsedDays / step
	if r.ExpectedPeriods > termCount {
		r.ExpectedPeriods = termCount
	}

	perPeriod := principal * rate / 100
	if perPeriod > 0 {
		r.PaidPeriods = int(math.Floor(interestPaid / perPeriod))
	}

	r.OverduePeriods = r.ExpectedPeriods - r.PaidPeriods
	if r.OverduePeriods < 0 {
		r.OverduePeriods = 0
	}

	r.InterestDue = perPeriod * float64(r.ExpectedPeriods)
	r.InterestPending = r.InterestDue - interestPaid
	if r.InterestPending < 0 {
		r.InterestPending = 0
	}
	return r
}
