package models

import (
	"time"

	"github.com/jdmdelivery/jdm/internal/engine"
)

// Loan carries the contractual terms plus two mutable running columns:
// Remaining (moved only by principal payments) and TotalInterestPaid (moved
// only by interest payments). Aggregate sums over payments are recomputed
// from the history instead.
type Loan struct {
	ID                uint    `gorm:"primaryKey"`
	ClientID          uint    `gorm:"not null;index"`
	Client            Client  `gorm:"foreignKey:ClientID"`
	Amount            float64 `gorm:"not null"` // principal
	Rate              float64 `gorm:"not null"` // percent per period
	Frequency         string  `gorm:"not null"`
	StartDate         time.Time `gorm:"not null"`
	TermCount         int       `gorm:"not null"`
	EndDate           time.Time
	FeePercent        float64 `gorm:"default:10"`
	FeeAmount         float64 `gorm:"default:0"`
	Disbursement      float64 `gorm:"default:0"`
	Remaining         float64
	TotalInterestPaid float64 `gorm:"default:0"`
	Status            string  `gorm:"not null;default:'active';index"`
	CreatedByID       uint    `gorm:"index"`
	CreatedBy         User    `gorm:"foreignKey:CreatedByID"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (l Loan) GetUserID() uint { return l.CreatedByID }

func (l Loan) IsClosed() bool { return l.Status == string(engine.StatusClosed) }

// Schedule derives the repayment plan from the stored terms.
func (l Loan) Schedule() engine.Schedule {
	return engine.ComputeSchedule(l.Amount, l.Rate, l.TermCount)
}
