package services

import (
	"log"

	"gorm.io/gorm"

	"github.com/jdmdelivery/jdm/internal/models"
)

// AuditService appends to the audit trail. Recording is best-effort: a failed
// audit write is logged but never fails the action being audited.
type AuditService struct {
	DB *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService { return &AuditService{DB: db} }

func (a *AuditService) Record(userID uint, action, detail string) {
	entry := models.AuditLog{UserID: userID, Action: action, Detail: detail}
	if err := a.DB.Create(&entry).Error; err != nil {
		log.Printf("audit write failed action=%s user=%d: %v", action, userID, err)
	}
}
