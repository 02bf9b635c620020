package models

import "time"

// CashReport is a route expense or cash handover declared by a collector.
type CashReport struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;index"`
	User      User `gorm:"foreignKey:UserID"`
	Date      time.Time `gorm:"not null"`
	Amount    float64   `gorm:"not null"`
	Note      string
	CreatedAt time.Time
}
