package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrMissingTrackID = errors.New("track has no id")

// EntryStatus tells whether a line item counts towards the invoice.
type EntryStatus int

const (
	EntryActive EntryStatus = iota
	// EntryRemoved line items stay on the invoice so they can be restored,
	// but never contribute to totals.
	EntryRemoved
)

func (s EntryStatus) String() string {
	if s == EntryRemoved {
		return "removed"
	}
	return "active"
}

// InvoiceEntry is a line item of an invoice, derived from a Track.
// ID is uuid.Nil until the server has persisted the line item.
type InvoiceEntry struct {
	ID          uuid.UUID   `json:"id,omitempty"`
	Description string      `json:"description"`
	Rate        string      `json:"rate"`
	From        time.Time   `json:"from"`
	To          time.Time   `json:"to"`
	Track       uuid.UUID   `json:"track"`
	Status      EntryStatus `json:"status"`
}

// Persisted reports whether the server assigned an id to the line item.
func (e InvoiceEntry) Persisted() bool {
	return e.ID != uuid.Nil
}

// Removed reports whether the line item was soft-deleted from the invoice.
func (e InvoiceEntry) Removed() bool {
	return e.Status == EntryRemoved
}

// Invoice is a draft invoice as edited before it is made visible.
type Invoice struct {
	ID      uuid.UUID      `json:"id,omitempty"`
	Project uuid.UUID      `json:"project"`
	Client  uuid.UUID      `json:"client"`
	From    *time.Time     `json:"from,omitempty"`
	To      *time.Time     `json:"to,omitempty"`
	Entries []InvoiceEntry `json:"entries"`
}

// Persisted reports whether the invoice exists on the server.
func (inv Invoice) Persisted() bool {
	return inv.ID != uuid.Nil
}

// TrackToInvoiceEntry converts what a user logged into a line item billed
// at the project rate.
func TrackToInvoiceEntry(t Track) InvoiceEntry {
	return InvoiceEntry{
		Description: t.Description,
		Rate:        t.ProjectRate,
		From:        t.From,
		To:          t.To,
		Track:       t.ID,
		Status:      EntryActive,
	}
}

// EntryToInvoiceEntries converts every track of entry, keeping their order.
func EntryToInvoiceEntries(entry Entry) ([]InvoiceEntry, error) {
	out := make([]InvoiceEntry, 0, len(entry.Tracks))
	for i, t := range entry.Tracks {
		if t.ID == uuid.Nil {
			return nil, fmt.Errorf("track %d of user %s: %w", i, entry.User.Email, ErrMissingTrackID)
		}
		out = append(out, TrackToInvoiceEntry(t))
	}
	return out, nil
}

// EntriesToInvoiceEntries flattens the tracks of all entries into line items.
func EntriesToInvoiceEntries(entries []Entry) ([]InvoiceEntry, error) {
	var out []InvoiceEntry
	for _, entry := range entries {
		converted, err := EntryToInvoiceEntries(entry)
		if err != nil {
			return nil, err
		}
		out = append(out, converted...)
	}
	return out, nil
}

// ActiveEntries returns the line items that were not removed.
func ActiveEntries(entries []InvoiceEntry) []InvoiceEntry {
	out := make([]InvoiceEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Removed() {
			out = append(out, e)
		}
	}
	return out
}

// CloneEntries returns a copy of entries that shares no backing array.
func CloneEntries(entries []InvoiceEntry) []InvoiceEntry {
	out := make([]InvoiceEntry, len(entries))
	copy(out, entries)
	return out
}
