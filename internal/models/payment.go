package models

import "time"

// Payment is one ledger entry against a loan. Rows are append-only: there is
// no edit or delete path once a payment is recorded.
type Payment struct {
	ID          uint    `gorm:"primaryKey"`
	LoanID      uint    `gorm:"not null;index"`
	Amount      float64 `gorm:"not null"`
	Kind        string  `gorm:"not null"` // installment, principal, interest
	Note        string
	Date        time.Time
	Receipt     string `gorm:"uniqueIndex"` // printable reference handed to the client
	CreatedByID uint   `gorm:"index"`
	CreatedAt   time.Time
}
