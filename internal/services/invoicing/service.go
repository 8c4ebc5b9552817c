package invoicing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"timetrack-invoicing-backend/internal/models"
	"timetrack-invoicing-backend/internal/repository"
	"timetrack-invoicing-backend/internal/services/billing"
)

type Service struct {
	invoiceRepo *repository.InvoiceRepository
	projectRepo *repository.ProjectRepository
	trackRepo   *repository.TrackRepository
	clientRepo  *repository.ClientRepository
	db          *gorm.DB
	notifier    Notifier
	now         func() time.Time

	pending sync.WaitGroup
}

func NewService(
	invoiceRepo *repository.InvoiceRepository,
	projectRepo *repository.ProjectRepository,
	trackRepo *repository.TrackRepository,
	clientRepo *repository.ClientRepository,
	notifier Notifier,
) *Service {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Service{
		invoiceRepo: invoiceRepo,
		projectRepo: projectRepo,
		trackRepo:   trackRepo,
		clientRepo:  clientRepo,
		db:          invoiceRepo.DB(),
		notifier:    notifier,
		now:         time.Now,
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Wait blocks until every notification sent so far has been delivered.
func (s *Service) Wait() {
	s.pending.Wait()
}

// WorkEntriesFromPeriod groups the tracks logged on a project between from
// and to by user. Owners see the whole team billed at project rates;
// members only see their own time at their user rate.
func (s *Service) WorkEntriesFromPeriod(userID, projectID uuid.UUID, from, to time.Time) ([]billing.Entry, error) {
	project, err := s.projectRepo.GetForUser(projectID, userID)
	if err != nil {
		return nil, err
	}

	owner := project.IsOwner(userID)
	var contracts []models.ProjectContract
	if owner {
		contracts, err = s.projectRepo.ActiveTeamContracts(projectID, s.now())
		if err != nil {
			return nil, err
		}
	} else {
		contract, err := s.projectRepo.ActiveContractFor(projectID, userID, s.now())
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotMember
		}
		if err != nil {
			return nil, err
		}
		if !contract.IsTeam() {
			return nil, ErrNotMember
		}
		contracts = []models.ProjectContract{*contract}
	}

	entries := make([]billing.Entry, 0, len(contracts))
	for _, c := range contracts {
		tracks, err := s.trackRepo.LoggedInPeriod(c.ID, from, to)
		if err != nil {
			return nil, err
		}

		rate := c.UserRate
		if owner {
			rate = c.ProjectRate
		}
		entry := billing.Entry{
			Contract: billing.Contract{ProjectRate: rate.String()},
			User: billing.User{
				ID:        c.User.ID,
				Email:     c.User.Email,
				FirstName: c.User.FirstName,
				LastName:  c.User.LastName,
			},
			Tracks: make([]billing.Track, 0, len(tracks)),
		}
		for _, t := range tracks {
			entry.Tracks = append(entry.Tracks, t.Track(owner))
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CreateInvoice persists a draft invoice with its entries.
func (s *Service) CreateInvoice(userID uuid.UUID, draft billing.Invoice) (*models.Invoice, error) {
	project, err := s.ownedProject(draft.Project, userID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(project.ID, userID, draft); err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		UserID:    userID,
		ProjectID: project.ID,
		From:      draft.From,
		To:        draft.To,
	}
	if draft.Client != uuid.Nil {
		invoice.ClientID = &draft.Client
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.invoiceRepo.WithTx(tx)
		if err := repo.Create(invoice); err != nil {
			return err
		}
		stats, err := s.syncEntries(repo, invoice.ID, draft.Entries)
		if err != nil {
			return err
		}
		return s.audit(repo, invoice.ID, userID, models.AuditCreated, stats)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("invoice %s created on project %s with %d entries", invoice.ID, project.ID, len(draft.Entries))
	return s.invoiceRepo.GetByID(invoice.ID)
}

// UpdateInvoice applies a draft to an existing invoice. Entries are matched
// by id, or by track when they have none. Entries the draft does not mention
// are left untouched.
func (s *Service) UpdateInvoice(userID, invoiceID uuid.UUID, draft billing.Invoice) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedProject(invoice.ProjectID, userID); err != nil {
		return nil, err
	}
	if invoice.IsVisible {
		return nil, ErrInvoiceFinalized
	}
	if err := s.validate(invoice.ProjectID, userID, draft); err != nil {
		return nil, err
	}

	invoice.From = draft.From
	invoice.To = draft.To
	invoice.ClientID = nil
	if draft.Client != uuid.Nil {
		invoice.ClientID = &draft.Client
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.invoiceRepo.WithTx(tx)
		if err := repo.UpdateHeader(invoice); err != nil {
			return err
		}
		stats, err := s.syncEntries(repo, invoice.ID, draft.Entries)
		if err != nil {
			return err
		}
		return s.audit(repo, invoice.ID, userID, models.AuditUpdated, stats)
	})
	if err != nil {
		return nil, err
	}
	return s.invoiceRepo.GetByID(invoice.ID)
}

// GetInvoice returns an invoice the user may see: owners see every invoice
// of the project, clients only visible ones, members the ones they created.
func (s *Service) GetInvoice(userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.GetForUser(invoice.ProjectID, userID)
	if err != nil {
		return nil, err
	}
	if project.IsOwner(userID) {
		return invoice, nil
	}

	isClient, err := s.projectRepo.IsClient(project.ID, userID)
	if err != nil {
		return nil, err
	}
	if isClient && invoice.IsClientVisible {
		return invoice, nil
	}
	if !isClient && invoice.UserID == userID {
		return invoice, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// InvoicesFrom lists the invoices of a project the user may see.
func (s *Service) InvoicesFrom(userID, projectID uuid.UUID) ([]models.Invoice, error) {
	project, err := s.projectRepo.GetForUser(projectID, userID)
	if err != nil {
		return nil, err
	}
	owner := project.IsOwner(userID)
	isClient := false
	if !owner {
		isClient, err = s.projectRepo.IsClient(projectID, userID)
		if err != nil {
			return nil, err
		}
	}
	return s.invoiceRepo.ListForProject(projectID, userID, owner, isClient)
}

// MakeVisible finalizes the invoice and shows it to the client. Making a
// visible invoice visible again changes nothing.
func (s *Service) MakeVisible(userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedProject(invoice.ProjectID, userID); err != nil {
		return nil, err
	}
	if invoice.IsVisible {
		return invoice, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.invoiceRepo.WithTx(tx)
		if err := repo.MarkVisible(invoice.ID); err != nil {
			return err
		}
		total := billing.CalculateTotalFromEntries(invoice.Draft().Entries)
		return s.audit(repo, invoice.ID, userID, models.AuditMadeVisible, map[string]interface{}{
			"total": total.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("invoice %s made visible", invoice.ID)
	return s.invoiceRepo.GetByID(invoice.ID)
}

// NotifyClient records the notification and hands it to the notifier in
// the background.
func (s *Service) NotifyClient(ctx context.Context, userID, projectID, invoiceID uuid.UUID) error {
	project, err := s.ownedProject(projectID, userID)
	if err != nil {
		return err
	}
	invoice, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return err
	}
	if invoice.ProjectID != project.ID {
		return gorm.ErrRecordNotFound
	}

	recipient := project.ClientEmail
	if invoice.ClientID != nil {
		client, err := s.clientRepo.GetForUser(*invoice.ClientID, project.OwnerID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if client != nil && client.Email != "" {
			recipient = client.Email
		}
	}
	if recipient == "" {
		return ErrNoRecipient
	}

	if err := s.audit(s.invoiceRepo, invoice.ID, userID, models.AuditNotified, map[string]interface{}{
		"recipient": recipient,
	}); err != nil {
		return err
	}

	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func(inv models.Invoice, p models.Project) {
		defer s.pending.Done()
		if err := s.notifier.NotifyInvoice(ctx, inv, p, recipient); err != nil {
			log.Printf("notify invoice %s: %v", inv.ID, err)
		}
	}(*invoice, *project)
	return nil
}

// AuditTrail returns the lifecycle actions recorded for an invoice.
func (s *Service) AuditTrail(userID, invoiceID uuid.UUID) ([]models.InvoiceAuditLog, error) {
	invoice, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedProject(invoice.ProjectID, userID); err != nil {
		return nil, err
	}
	return s.invoiceRepo.AuditLogs(invoiceID)
}

func (s *Service) ownedProject(projectID, userID uuid.UUID) (*models.Project, error) {
	project, err := s.projectRepo.GetForUser(projectID, userID)
	if err != nil {
		return nil, err
	}
	if !project.IsOwner(userID) {
		return nil, ErrNotOwner
	}
	return project, nil
}

func (s *Service) validate(projectID, userID uuid.UUID, draft billing.Invoice) error {
	if draft.From != nil && draft.To != nil && draft.To.Before(*draft.From) {
		return ErrInvalidPeriod
	}

	if draft.Client != uuid.Nil {
		if _, err := s.clientRepo.GetForUser(draft.Client, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownClient
			}
			return err
		}
	}

	entries := billing.UniqueByTrack(draft.Entries)
	tracks := make([]uuid.UUID, 0, len(entries))
	for i, e := range entries {
		if e.Track == uuid.Nil {
			return fmt.Errorf("entry %d has no track: %w", i, ErrInvalidEntry)
		}
		if e.To.Before(e.From) {
			return fmt.Errorf("entry %d ends before it starts: %w", i, ErrInvalidEntry)
		}
		tracks = append(tracks, e.Track)
	}
	if len(tracks) == 0 {
		return nil
	}

	contracts, err := s.projectRepo.ContractIDs(projectID)
	if err != nil {
		return err
	}
	count, err := s.trackRepo.CountIn(tracks, contracts)
	if err != nil {
		return err
	}
	if count != int64(len(tracks)) {
		return ErrUnknownTrack
	}
	return nil
}

type syncStats map[string]interface{}

// syncEntries writes the entries of a draft to the invoice. Removed entries
// are soft-deleted so they can be restored later; a removed entry the
// invoice never had is ignored.
func (s *Service) syncEntries(repo *repository.InvoiceRepository, invoiceID uuid.UUID, lines []billing.InvoiceEntry) (syncStats, error) {
	existing, err := repo.EntriesOf(invoiceID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.InvoiceEntry, len(existing))
	byTrack := make(map[uuid.UUID]*models.InvoiceEntry, len(existing))
	for i := range existing {
		byID[existing[i].ID] = &existing[i]
		byTrack[existing[i].ActivityTrackID] = &existing[i]
	}

	created, updated, removed := 0, 0, 0
	for _, line := range billing.UniqueByTrack(lines) {
		var row *models.InvoiceEntry
		if line.Persisted() {
			row = byID[line.ID]
			if row == nil {
				return nil, fmt.Errorf("entry %s: %w", line.ID, ErrUnknownEntry)
			}
			if row.ActivityTrackID != line.Track {
				return nil, fmt.Errorf("entry %s cannot change its track: %w", line.ID, ErrInvalidEntry)
			}
		} else {
			row = byTrack[line.Track]
		}

		if row == nil {
			if line.Removed() {
				continue
			}
			row = &models.InvoiceEntry{InvoiceID: invoiceID, ActivityTrackID: line.Track}
			applyLine(row, line)
			if err := repo.CreateEntry(row); err != nil {
				return nil, err
			}
			byTrack[line.Track] = row
			created++
			continue
		}

		applyLine(row, line)
		if line.Removed() {
			if !row.DeletedAt.Valid {
				row.DeletedAt = gorm.DeletedAt{Time: s.now(), Valid: true}
			}
			removed++
		} else {
			row.DeletedAt = gorm.DeletedAt{}
		}
		if err := repo.SaveEntry(row); err != nil {
			return nil, err
		}
		updated++
	}

	return syncStats{"created": created, "updated": updated, "removed": removed}, nil
}

func applyLine(row *models.InvoiceEntry, line billing.InvoiceEntry) {
	row.Description = line.Description
	row.Rate = billing.ParseRate(line.Rate)
	row.From = line.From
	row.To = line.To
}

func (s *Service) audit(repo *repository.InvoiceRepository, invoiceID, userID uuid.UUID, action string, details map[string]interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}
	return repo.AddAuditLog(&models.InvoiceAuditLog{
		InvoiceID:   invoiceID,
		Action:      action,
		PerformedBy: userID,
		Details:     detailsJSON,
	})
}
