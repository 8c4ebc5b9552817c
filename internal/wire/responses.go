package wire

import (
	"time"

	"github.com/google/uuid"

	"timetrack-invoicing-backend/internal/models"
	"timetrack-invoicing-backend/internal/services/billing"
)

type InvoiceJSON struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	ProjectID          uuid.UUID  `json:"project_id"`
	ClientID           *uuid.UUID `json:"client_id"`
	From               *time.Time `json:"from"`
	To                 *time.Time `json:"to"`
	IsVisible          bool       `json:"is_visible"`
	IsClientVisible    bool       `json:"is_client_visible"`
	DiscountPercentage string     `json:"discount_percentage"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	DeletedAt          *time.Time `json:"deleted_at"`
}

// EntryJSON is a persisted line item. A non-null deleted_at marks it as
// removed from the invoice.
type EntryJSON struct {
	ID              uuid.UUID  `json:"id"`
	InvoiceID       uuid.UUID  `json:"invoice_id"`
	ActivityTrackID uuid.UUID  `json:"activity_track_id"`
	Description     string     `json:"description"`
	Rate            string     `json:"rate"`
	From            time.Time  `json:"from"`
	To              time.Time  `json:"to"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at"`
}

// InvoiceShowResponse is the canonical state of an invoice after every
// create, update or show.
type InvoiceShowResponse struct {
	Invoice InvoiceJSON `json:"invoice"`
	Entries []EntryJSON `json:"entries"`
}

func NewInvoiceShowResponse(inv models.Invoice) InvoiceShowResponse {
	resp := InvoiceShowResponse{
		Invoice: InvoiceJSON{
			ID:                 inv.ID,
			UserID:             inv.UserID,
			ProjectID:          inv.ProjectID,
			ClientID:           inv.ClientID,
			From:               inv.From,
			To:                 inv.To,
			IsVisible:          inv.IsVisible,
			IsClientVisible:    inv.IsClientVisible,
			DiscountPercentage: inv.DiscountPercentage.StringFixed(2),
			CreatedAt:          inv.CreatedAt,
			UpdatedAt:          inv.UpdatedAt,
			DeletedAt:          deletedAt(inv.DeletedAt.Time, inv.DeletedAt.Valid),
		},
		Entries: make([]EntryJSON, 0, len(inv.Entries)),
	}
	for _, e := range inv.Entries {
		resp.Entries = append(resp.Entries, EntryJSON{
			ID:              e.ID,
			InvoiceID:       e.InvoiceID,
			ActivityTrackID: e.ActivityTrackID,
			Description:     e.Description,
			Rate:            e.Rate.StringFixed(2),
			From:            e.From,
			To:              e.To,
			CreatedAt:       e.CreatedAt,
			UpdatedAt:       e.UpdatedAt,
			DeletedAt:       deletedAt(e.DeletedAt.Time, e.DeletedAt.Valid),
		})
	}
	return resp
}

// Draft converts the response back into the invoice being edited.
func (r InvoiceShowResponse) Draft() billing.Invoice {
	inv := billing.Invoice{
		ID:      r.Invoice.ID,
		Project: r.Invoice.ProjectID,
		From:    r.Invoice.From,
		To:      r.Invoice.To,
		Entries: make([]billing.InvoiceEntry, 0, len(r.Entries)),
	}
	if r.Invoice.ClientID != nil {
		inv.Client = *r.Invoice.ClientID
	}
	for _, e := range r.Entries {
		status := billing.EntryActive
		if e.DeletedAt != nil {
			status = billing.EntryRemoved
		}
		inv.Entries = append(inv.Entries, billing.InvoiceEntry{
			ID:          e.ID,
			Description: e.Description,
			Rate:        e.Rate,
			From:        e.From,
			To:          e.To,
			Track:       e.ActivityTrackID,
			Status:      status,
		})
	}
	return inv
}

func deletedAt(t time.Time, valid bool) *time.Time {
	if !valid {
		return nil
	}
	return &t
}

type ProjectJSON struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func NewProjects(projects []models.Project) []ProjectJSON {
	out := make([]ProjectJSON, 0, len(projects))
	for _, p := range projects {
		out = append(out, ProjectJSON{ID: p.ID, Name: p.Name})
	}
	return out
}

type ClientJSON struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
}

func NewClient(c models.Client) ClientJSON {
	return ClientJSON{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Address:   c.Address,
	}
}

func NewClients(clients []models.Client) []ClientJSON {
	out := make([]ClientJSON, 0, len(clients))
	for _, c := range clients {
		out = append(out, NewClient(c))
	}
	return out
}

// TrackJSON is a logged track as its author sees it.
type TrackJSON struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Hours       string    `json:"hours"`
	ProjectRate string    `json:"project_rate"`
	UserRate    string    `json:"user_rate"`
}

func NewTrack(t models.ActivityTrack, asOwner bool) TrackJSON {
	view := t.Track(asOwner)
	return TrackJSON{
		ID:          t.ID,
		Description: t.Description,
		From:        t.From,
		To:          t.To,
		Hours:       t.Hours(),
		ProjectRate: view.ProjectRate,
		UserRate:    view.UserRate,
	}
}

type StopWatchJSON struct {
	ID              uuid.UUID  `json:"id"`
	ProjectID       uuid.UUID  `json:"project_id"`
	Description     string     `json:"description"`
	Start           time.Time  `json:"start"`
	End             *time.Time `json:"end"`
	Paused          bool       `json:"paused"`
	ActivityTrackID *uuid.UUID `json:"activity_track_id"`
}

func NewStopWatch(w models.ActivityStopWatch) StopWatchJSON {
	return StopWatchJSON{
		ID:              w.ID,
		ProjectID:       w.ProjectID,
		Description:     w.Description,
		Start:           w.Start,
		End:             w.End,
		Paused:          w.Paused,
		ActivityTrackID: w.ActivityTrackID,
	}
}

// LoginResponse carries the bearer token for later requests.
type LoginResponse struct {
	Token string   `json:"token"`
	User  UserJSON `json:"user"`
}

type UserJSON struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

func NewUser(u models.User) UserJSON {
	return UserJSON{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}
