package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"timetrack-invoicing-backend/internal/services/billing"
)

// Invoice is billed to a client for the time logged on a project. It stays
// a draft until it is made visible.
type Invoice struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID             uuid.UUID  `gorm:"type:uuid;index"`
	ProjectID          uuid.UUID  `gorm:"type:uuid;index"`
	ClientID           *uuid.UUID `gorm:"type:uuid;index"`
	From               *time.Time `gorm:"column:starts_at"`
	To                 *time.Time `gorm:"column:ends_at"`
	IsVisible          bool       `gorm:"default:false"`
	IsClientVisible    bool       `gorm:"index;default:false"`
	DiscountPercentage decimal.Decimal `gorm:"type:numeric(5,2);default:0"`
	Entries            []InvoiceEntry  `gorm:"foreignKey:InvoiceID"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (inv *Invoice) BeforeCreate(tx *gorm.DB) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	return nil
}

// Draft returns the billing view of the invoice, removed entries included.
func (inv Invoice) Draft() billing.Invoice {
	d := billing.Invoice{
		ID:      inv.ID,
		Project: inv.ProjectID,
		From:    inv.From,
		To:      inv.To,
		Entries: make([]billing.InvoiceEntry, 0, len(inv.Entries)),
	}
	if inv.ClientID != nil {
		d.Client = *inv.ClientID
	}
	for _, e := range inv.Entries {
		d.Entries = append(d.Entries, e.Line())
	}
	return d
}

// InvoiceEntry is a persisted line item. Removing it from the invoice sets
// DeletedAt; each track appears at most once per invoice.
type InvoiceEntry struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_invoice_entry_track"`
	ActivityTrackID uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_invoice_entry_track"`
	Description     string
	Rate            decimal.Decimal `gorm:"type:numeric(12,2)"`
	From            time.Time       `gorm:"column:starts_at"`
	To              time.Time       `gorm:"column:ends_at"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (e *InvoiceEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Line returns the billing view of the entry.
func (e InvoiceEntry) Line() billing.InvoiceEntry {
	status := billing.EntryActive
	if e.DeletedAt.Valid {
		status = billing.EntryRemoved
	}
	return billing.InvoiceEntry{
		ID:          e.ID,
		Description: e.Description,
		Rate:        e.Rate.String(),
		From:        e.From,
		To:          e.To,
		Track:       e.ActivityTrackID,
		Status:      status,
	}
}
