package models

import "time"

// Audit logging
type AuditLog struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index"`
	Action    string // ex: "login", "loan.create", "payment.create"
	Detail    string
	CreatedAt time.Time
}
