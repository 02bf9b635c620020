package models

import "time"

// Client is a borrower on a collection route.
type Client struct {
	ID          uint   `gorm:"primaryKey"`
	FirstName   string `gorm:"not null;index"`
	LastName    string `gorm:"index"`
	Phone       string
	Address     string
	DocumentID  string `gorm:"index"`
	Route       string `gorm:"index"`
	CreatedByID uint   `gorm:"index"` // collector who registered the client
	CreatedBy   User   `gorm:"foreignKey:CreatedByID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c Client) GetUserID() uint { return c.CreatedByID }

func (c Client) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
