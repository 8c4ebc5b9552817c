package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"timetrack-invoicing-backend/internal/models"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Expose DB for transactions
func (r *InvoiceRepository) DB() *gorm.DB {
	return r.db
}

// WithTx returns a repository bound to tx.
func (r *InvoiceRepository) WithTx(tx *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: tx}
}

// withEntries preloads every entry, removed ones included, in time order.
func withEntries(db *gorm.DB) *gorm.DB {
	return db.Preload("Entries", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped().Order("starts_at ASC").Order("created_at ASC")
	})
}

// GetByID fetches an invoice with all of its entries
func (r *InvoiceRepository) GetByID(id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := withEntries(r.db).First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ListForProject returns the invoices of a project, newest period first.
// owner: all; clientOnly: only client-visible ones; otherwise the ones userID created.
func (r *InvoiceRepository) ListForProject(projectID, userID uuid.UUID, owner, clientOnly bool) ([]models.Invoice, error) {
	var invoices []models.Invoice

	q := withEntries(r.db).Where("project_id = ?", projectID)
	switch {
	case owner:
	case clientOnly:
		q = q.Where("is_client_visible = ?", true)
	default:
		q = q.Where("user_id = ?", userID)
	}

	err := q.Order("starts_at DESC").Order("created_at DESC").Find(&invoices).Error
	return invoices, err
}

func (r *InvoiceRepository) Create(invoice *models.Invoice) error {
	return r.db.Omit("Entries").Create(invoice).Error
}

// UpdateHeader saves the invoice columns, leaving entries untouched.
func (r *InvoiceRepository) UpdateHeader(invoice *models.Invoice) error {
	return r.db.Model(invoice).Updates(map[string]interface{}{
		"client_id": invoice.ClientID,
		"starts_at": invoice.From,
		"ends_at":   invoice.To,
	}).Error
}

// EntriesOf returns every entry of an invoice, removed ones included.
func (r *InvoiceRepository) EntriesOf(invoiceID uuid.UUID) ([]models.InvoiceEntry, error) {
	var entries []models.InvoiceEntry
	err := r.db.Unscoped().Where("invoice_id = ?", invoiceID).Find(&entries).Error
	return entries, err
}

func (r *InvoiceRepository) CreateEntry(entry *models.InvoiceEntry) error {
	return r.db.Create(entry).Error
}

// SaveEntry writes every column of entry, including DeletedAt, so it both
// removes and restores line items.
func (r *InvoiceRepository) SaveEntry(entry *models.InvoiceEntry) error {
	return r.db.Unscoped().Save(entry).Error
}

// MarkVisible publishes the invoice to the client.
func (r *InvoiceRepository) MarkVisible(id uuid.UUID) error {
	return r.db.Model(&models.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_visible":        true,
			"is_client_visible": true,
		}).Error
}

func (r *InvoiceRepository) AddAuditLog(log *models.InvoiceAuditLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	return r.db.Create(log).Error
}

func (r *InvoiceRepository) AuditLogs(invoiceID uuid.UUID) ([]models.InvoiceAuditLog, error) {
	var logs []models.InvoiceAuditLog
	err := r.db.Where("invoice_id = ?", invoiceID).Order("created_at ASC").Find(&logs).Error
	return logs, err
}
