package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSumPayments(t *testing.T) {
	t.Run("total counts every kind", func(t *testing.T) {
		totals := SumPayments([]PaymentRecord{
			{Amount: 2000, Kind: KindInstallment},
			{Amount: 500, Kind: KindPrincipal},
			{Amount: 1000, Kind: KindInterest},
		})
		assert.Equal(t, 3500.0, totals.TotalPaid)
		assert.Equal(t, 1000.0, totals.InterestPaid)
	})

	t.Run("only interest kind moves interest paid", func(t *testing.T) {
		// Installments contain an interest share but by policy do not move
		// the interest-paid figure.
		totals := SumPayments([]PaymentRecord{
			{Amount: 2000, Kind: KindInstallment},
			{Amount: 2000, Kind: KindInstallment},
		})
		assert.Equal(t, 0.0, totals.InterestPaid)
	})

	t.Run("total paid never decreases as history grows", func(t *testing.T) {
		history := []PaymentRecord{}
		prev := 0.0
		for _, p := range []PaymentRecord{
			{Amount: 100, Kind: KindInstallment},
			{Amount: 50, Kind: KindInterest},
			{Amount: 0.01, Kind: KindPrincipal},
			{Amount: 300, Kind: KindInstallment},
		} {
			history = append(history, p)
			totals := SumPayments(history)
			assert.GreaterOrEqual(t, totals.TotalPaid, prev)
			prev = totals.TotalPaid
		}
	})
}

func TestApplyRunningFields(t *testing.T) {
	cases := []struct {
		name                        string
		remaining, interest, amt    float64
		kind                        PaymentKind
		wantRemaining, wantInterest float64
	}{
		{"installment leaves both untouched", 5000, 200, 2000, KindInstallment, 5000, 200},
		{"principal reduces remaining", 5000, 200, 1500, KindPrincipal, 3500, 200},
		{"principal clamps at zero", 1000, 0, 2500, KindPrincipal, 0, 0},
		{"interest adds to interest paid", 5000, 200, 300, KindInterest, 5000, 500},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			gotR, gotI := ApplyRunningFields(c.remaining, c.interest, c.amt, c.kind)
			assert.Equal(t, c.wantRemaining, gotR)
			assert.Equal(t, c.wantInterest, gotI)
		})
	}
}

func TestValidatePayment(t *testing.T) {
	assert.NoError(t, ValidatePayment(100, KindInstallment))
	assert.ErrorIs(t, ValidatePayment(0, KindInstallment), ErrInvalidAmount)
	assert.ErrorIs(t, ValidatePayment(-5, KindPrincipal), ErrInvalidAmount)
	assert.ErrorIs(t, ValidatePayment(100, PaymentKind("tip")), ErrInvalidKind)
}
