package invoicing

import (
	"context"
	"log"

	"timetrack-invoicing-backend/internal/models"
)

// Notifier tells a client that an invoice is ready.
type Notifier interface {
	NotifyInvoice(ctx context.Context, invoice models.Invoice, project models.Project, recipient string) error
}

// LogNotifier only logs the notification.
type LogNotifier struct{}

func (LogNotifier) NotifyInvoice(ctx context.Context, invoice models.Invoice, project models.Project, recipient string) error {
	log.Printf("invoice %s of project %q ready for %s", invoice.ID, project.Name, recipient)
	return nil
}
