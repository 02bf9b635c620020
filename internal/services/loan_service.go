package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jdmdelivery/jdm/internal/engine"
	"github.com/jdmdelivery/jdm/internal/models"
)

var (
	ErrInvalidLoanTerms = errors.New("invalid loan terms")
	ErrFeeRestricted    = errors.New("only the administrator may waive the fee")
)

// LoanService owns loan issuance and the payment write path. All loan/payment
// math is delegated to the engine package; this layer adds persistence and
// the transaction discipline around it.
type LoanService struct {
	DB *gorm.DB
}

func NewLoanService(db *gorm.DB) *LoanService { return &LoanService{DB: db} }

// Term kinds for projecting the contractual end date.
const (
	TermKindDays  = "days"
	TermKindWeeks = "weeks"
)

type CreateLoanInput struct {
	ClientID   uint
	Amount     float64
	Rate       float64
	Frequency  engine.Frequency
	StartDate  time.Time
	TermCount  int
	TermKind   string
	FeePercent float64
}

// Create validates the terms, derives fee and disbursement, and persists the
// loan as active with the full principal outstanding.
func (s *LoanService) Create(in CreateLoanInput, actor models.User) (*models.Loan, error) {
	if in.Amount <= 0 || in.Rate < 0 || in.TermCount < 0 || !in.Frequency.Valid() {
		return nil, ErrInvalidLoanTerms
	}
	// Waiving the fee is an admin-only concession.
	if !actor.IsAdmin() && in.FeePercent <= 0 {
		return nil, ErrFeeRestricted
	}
	var client models.Client
	if err := s.DB.First(&client, in.ClientID).Error; err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}

	feeAmount := in.Amount * in.FeePercent / 100
	endDate := in.StartDate.AddDate(0, 0, in.TermCount)
	if in.TermKind == TermKindWeeks {
		endDate = in.StartDate.AddDate(0, 0, in.TermCount*7)
	}

	loan := models.Loan{
		ClientID:     in.ClientID,
		Amount:       in.Amount,
		Rate:         in.Rate,
		Frequency:    string(in.Frequency),
		StartDate:    in.StartDate,
		TermCount:    in.TermCount,
		EndDate:      endDate,
		FeePercent:   in.FeePercent,
		FeeAmount:    feeAmount,
		Disbursement: in.Amount - feeAmount,
		Remaining:    in.Amount,
		Status:       string(engine.StatusActive),
		CreatedByID:  actor.ID,
	}
	if err := s.DB.Create(&loan).Error; err != nil {
		return nil, fmt.Errorf("create loan: %w", err)
	}
	return &loan, nil
}

type PaymentInput struct {
	Amount float64
	Kind   engine.PaymentKind
	Date   time.Time
	Note   string
}

// RecordPayment appends a payment and settles the loan inside one
// transaction: insert the row first, recompute aggregates from the full
// history, move the running columns, then write the closure status. The loan
// row is locked for the duration so concurrent collectors cannot lose
// updates. Invalid input fails before anything is persisted.
func (s *LoanService) RecordPayment(loanID uint, in PaymentInput, actor models.User) (*models.Payment, error) {
	if err := engine.ValidatePayment(in.Amount, in.Kind); err != nil {
		return nil, err
	}
	var created models.Payment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		q := tx
		// SQLite serializes writers on its own and rejects FOR UPDATE.
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var loan models.Loan
		if err := q.First(&loan, loanID).Error; err != nil {
			return err
		}

		payment := models.Payment{
			LoanID:      loan.ID,
			Amount:      in.Amount,
			Kind:        string(in.Kind),
			Note:        in.Note,
			Date:        in.Date,
			Receipt:     uuid.NewString(),
			CreatedByID: actor.ID,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		// Recompute from the complete history, never from a cached counter.
		var rows []models.Payment
		if err := tx.Where("loan_id = ?", loan.ID).Find(&rows).Error; err != nil {
			return fmt.Errorf("list payments: %w", err)
		}
		records := make([]engine.PaymentRecord, 0, len(rows))
		for _, p := range rows {
			records = append(records, engine.PaymentRecord{Amount: p.Amount, Kind: engine.PaymentKind(p.Kind)})
		}
		totals := engine.SumPayments(records)

		remaining, interestPaid := engine.ApplyRunningFields(loan.Remaining, loan.TotalInterestPaid, in.Amount, in.Kind)
		status := engine.EvaluateClosure(loan.Schedule().TotalPayable, totals.TotalPaid, remaining, engine.Status(loan.Status))

		updates := map[string]any{
			"remaining":           remaining,
			"total_interest_paid": interestPaid,
			"status":              string(status),
		}
		if err := tx.Model(&models.Loan{}).Where("id = ?", loan.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("update loan: %w", err)
		}
		created = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// LoanDetail bundles everything the loan page shows: stored rows plus the
// derived schedule, ledger totals, and the advisory overdue report.
type LoanDetail struct {
	Loan           models.Loan
	Payments       []models.Payment
	Schedule       engine.Schedule
	Totals         engine.LedgerTotals
	RemainingTotal float64
	Overdue        engine.OverdueReport
}

// Detail loads a loan with its payment history and derives the display
// figures. today is injected so the overdue estimate is testable.
func (s *LoanService) Detail(loanID uint, today time.Time) (*LoanDetail, error) {
	var loan models.Loan
	if err := s.DB.Preload("Client").First(&loan, loanID).Error; err != nil {
		return nil, err
	}
	var payments []models.Payment
	if err := s.DB.Where("loan_id = ?", loan.ID).Order("id desc").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	records := make([]engine.PaymentRecord, 0, len(payments))
	for _, p := range payments {
		records = append(records, engine.PaymentRecord{Amount: p.Amount, Kind: engine.PaymentKind(p.Kind)})
	}
	totals := engine.SumPayments(records)
	sched := loan.Schedule()
	remainingTotal := sched.TotalPayable - totals.TotalPaid
	if remainingTotal < 0 {
		remainingTotal = 0
	}
	overdue := engine.EstimateOverdue(loan.StartDate, engine.Frequency(loan.Frequency), loan.TermCount, loan.Rate, loan.Amount, loan.TotalInterestPaid, today)
	return &LoanDetail{
		Loan:           loan,
		Payments:       payments,
		Schedule:       sched,
		Totals:         totals,
		RemainingTotal: remainingTotal,
		Overdue:        overdue,
	}, nil
}
