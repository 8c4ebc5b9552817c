package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Invoice lifecycle actions recorded in the audit log.
const (
	AuditCreated     = "created"
	AuditUpdated     = "updated"
	AuditMadeVisible = "made_visible"
	AuditNotified    = "notified"
)

type InvoiceAuditLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID      `gorm:"type:uuid;index" json:"invoice_id"`
	Action      string         `gorm:"size:32;index" json:"action"`
	PerformedBy uuid.UUID      `gorm:"type:uuid" json:"performed_by"`
	Details     datatypes.JSON `json:"details"`
	CreatedAt   time.Time      `json:"created_at"`
}
