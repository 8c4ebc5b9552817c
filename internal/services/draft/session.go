// Package draft keeps the invoice a user is composing in sync with the
// server while it is edited.
package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"timetrack-invoicing-backend/internal/services/billing"
)

var (
	ErrInvalidTransition = errors.New("invalid draft transition")
	ErrStaleResponse     = errors.New("stale entries response discarded")
	ErrUnknownTrack      = errors.New("track is not on the invoice")
	ErrInvalidPeriod     = errors.New("period ends before it starts")
)

// Backend is the server side of a draft.
type Backend interface {
	FetchEntries(ctx context.Context, project uuid.UUID, start, end time.Time) ([]billing.Entry, error)
	CreateInvoice(ctx context.Context, invoice billing.Invoice) (billing.Invoice, error)
	UpdateInvoice(ctx context.Context, invoice billing.Invoice) (billing.Invoice, error)
	MakeInvoiceVisible(ctx context.Context, id uuid.UUID) error
}

type State int

const (
	StateEmpty State = iota
	StateConfigured
	StatePopulated
	StatePreviewing
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateConfigured:
		return "configured"
	case StatePopulated:
		return "populated"
	case StatePreviewing:
		return "previewing"
	case StateFinalized:
		return "finalized"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session is one invoice being composed. Every edit is applied locally and
// then saved; the entries the server returns replace the local ones. When
// saving fails the local edits are kept and the next edit saves them again.
// Operations are serialized; Fetching may be read at any time.
type Session struct {
	backend Backend

	mu       sync.Mutex
	state    State
	invoice  billing.Invoice
	fetchSeq uint64
	fetchErr string
	syncErr  string

	fetching atomic.Int32
}

func NewSession(backend Backend) *Session {
	return &Session{backend: backend}
}

// Configure picks the project and client to invoice.
func (s *Session) Configure(project, client uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect("configure", StateEmpty, StateConfigured); err != nil {
		return err
	}
	s.invoice.Project = project
	s.invoice.Client = client
	s.state = StateConfigured
	return nil
}

// SetPeriod records the period the invoice covers.
func (s *Session) SetPeriod(from, to time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinalized {
		return s.invalid("set period")
	}
	if to.Before(from) {
		return ErrInvalidPeriod
	}
	s.invoice.From = &from
	s.invoice.To = &to
	return nil
}

// Import fetches the work logged between start and end, adds the tracks
// the invoice does not have yet and saves the invoice. When Import is
// called again before an earlier fetch returns, the earlier response is
// discarded with ErrStaleResponse.
func (s *Session) Import(ctx context.Context, start, end time.Time) error {
	s.mu.Lock()
	if err := s.expect("import", StateConfigured, StatePopulated); err != nil {
		s.mu.Unlock()
		return err
	}
	s.fetchSeq++
	seq := s.fetchSeq
	project := s.invoice.Project
	s.mu.Unlock()

	s.fetching.Add(1)
	entries, err := s.backend.FetchEntries(ctx, project, start, end)
	s.fetching.Add(-1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.fetchSeq {
		return ErrStaleResponse
	}
	if err != nil {
		s.fetchErr = err.Error()
		return fmt.Errorf("fetching entries: %w", err)
	}
	if s.state != StateConfigured && s.state != StatePopulated {
		return s.invalid("import")
	}
	s.fetchErr = ""

	s.invoice.Entries = billing.MergeEntriesToInvoiceEntries(s.invoice.Entries, entries)
	s.state = StatePopulated
	return s.sync(ctx)
}

// Remove takes the entry of track out of the total. It stays on the
// invoice and can be restored.
func (s *Session) Remove(ctx context.Context, track uuid.UUID) error {
	return s.edit(ctx, "remove", track, func(e *billing.InvoiceEntry) {
		e.Status = billing.EntryRemoved
	})
}

// Restore puts a removed entry back into the total.
func (s *Session) Restore(ctx context.Context, track uuid.UUID) error {
	return s.edit(ctx, "restore", track, func(e *billing.InvoiceEntry) {
		e.Status = billing.EntryActive
	})
}

// SetQuantity makes the entry of track last hours and minutes.
func (s *Session) SetQuantity(ctx context.Context, track uuid.UUID, hours, minutes int) error {
	return s.edit(ctx, "set quantity", track, func(e *billing.InvoiceEntry) {
		*e = billing.SetHoursAndMinutesFromEntry(*e, hours, minutes)
	})
}

// SetRate changes the rate of a single entry.
func (s *Session) SetRate(ctx context.Context, track uuid.UUID, rate string) error {
	rate = strings.TrimSpace(rate)
	return s.edit(ctx, "set rate", track, func(e *billing.InvoiceEntry) {
		e.Rate = rate
	})
}

func (s *Session) SetDescription(ctx context.Context, track uuid.UUID, description string) error {
	return s.edit(ctx, "set description", track, func(e *billing.InvoiceEntry) {
		e.Description = description
	})
}

// ApplyRate sets rate on every entry, removed ones included.
func (s *Session) ApplyRate(ctx context.Context, rate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect("apply rate", StatePopulated); err != nil {
		return err
	}
	rate = strings.TrimSpace(rate)
	for i := range s.invoice.Entries {
		s.invoice.Entries[i].Rate = rate
	}
	return s.sync(ctx)
}

// Preview freezes the draft for review.
func (s *Session) Preview() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect("preview", StatePopulated); err != nil {
		return err
	}
	s.state = StatePreviewing
	return nil
}

// ContinueEditing leaves the preview.
func (s *Session) ContinueEditing() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect("continue editing", StatePreviewing); err != nil {
		return err
	}
	s.state = StatePopulated
	return nil
}

// Finalize makes the previewed invoice visible to the client. Unsaved
// edits are saved first.
func (s *Session) Finalize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect("finalize", StatePreviewing); err != nil {
		return err
	}
	if s.syncErr != "" || !s.invoice.Persisted() {
		if err := s.sync(ctx); err != nil {
			return err
		}
	}
	if err := s.backend.MakeInvoiceVisible(ctx, s.invoice.ID); err != nil {
		s.syncErr = err.Error()
		return fmt.Errorf("making invoice visible: %w", err)
	}
	s.syncErr = ""
	s.state = StateFinalized
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Invoice returns a copy of the draft.
func (s *Session) Invoice() billing.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := s.invoice
	inv.Entries = billing.CloneEntries(s.invoice.Entries)
	return inv
}

// Total sums the entries that were not removed.
func (s *Session) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return billing.CalculateTotalFromEntries(s.invoice.Entries)
}

// FetchError is the message of the last failed import, or "".
func (s *Session) FetchError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchErr
}

// SyncError is the message of the last failed save, or "".
func (s *Session) SyncError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncErr
}

// Fetching reports whether an import is waiting for the server.
func (s *Session) Fetching() bool {
	return s.fetching.Load() > 0
}

func (s *Session) edit(ctx context.Context, op string, track uuid.UUID, apply func(*billing.InvoiceEntry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect(op, StatePopulated); err != nil {
		return err
	}
	i := s.indexOf(track)
	if i < 0 {
		return fmt.Errorf("%s %s: %w", op, track, ErrUnknownTrack)
	}
	apply(&s.invoice.Entries[i])
	return s.sync(ctx)
}

// sync saves the draft. The first save creates the invoice; later ones
// update it. Callers hold s.mu.
func (s *Session) sync(ctx context.Context) error {
	local := s.invoice
	local.Entries = billing.CloneEntries(s.invoice.Entries)

	var saved billing.Invoice
	var err error
	if local.Persisted() {
		saved, err = s.backend.UpdateInvoice(ctx, local)
	} else {
		saved, err = s.backend.CreateInvoice(ctx, local)
	}
	if err != nil {
		s.syncErr = err.Error()
		return fmt.Errorf("saving invoice: %w", err)
	}

	s.syncErr = ""
	s.invoice.ID = saved.ID
	s.invoice.Entries = billing.CloneEntries(saved.Entries)
	return nil
}

func (s *Session) indexOf(track uuid.UUID) int {
	for i, e := range s.invoice.Entries {
		if e.Track == track {
			return i
		}
	}
	return -1
}

func (s *Session) expect(op string, allowed ...State) error {
	for _, st := range allowed {
		if s.state == st {
			return nil
		}
	}
	return s.invalid(op)
}

func (s *Session) invalid(op string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, s.state)
}
