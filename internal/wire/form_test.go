package wire_test

import (
	"bytes"
	"errors"
	"mime"
	"mime/multipart"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"timetrack-invoicing-backend/internal/models"
	"timetrack-invoicing-backend/internal/services/billing"
	"timetrack-invoicing-backend/internal/wire"
)

func sampleInvoice() billing.Invoice {
	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	return billing.Invoice{
		Project: uuid.New(),
		Client:  uuid.New(),
		From:    &from,
		To:      &to,
		Entries: []billing.InvoiceEntry{
			{ID: uuid.New(), Description: "design", Rate: "40", From: start, To: start.Add(90 * time.Minute), Track: uuid.New()},
			{Description: "build", Rate: "30.5", From: start, To: start.Add(time.Hour), Track: uuid.New(), Status: billing.EntryRemoved},
		},
	}
}

func TestInvoiceFieldsUseNestedAttributes(t *testing.T) {
	inv := sampleInvoice()
	fields := wire.InvoiceFields(inv)

	got := map[string]string{}
	for _, f := range fields {
		got[f.Name] = f.Value
	}

	want := map[string]string{
		"invoice[project_id]": inv.Project.String(),
		"invoice[client_id]":  inv.Client.String(),
		"invoice[from]":       "2024-03-01T00:00:00Z",
		"invoice[invoice_entries_attributes][0][id]":                inv.Entries[0].ID.String(),
		"invoice[invoice_entries_attributes][0][_destroy]":          "0",
		"invoice[invoice_entries_attributes][0][activity_track_id]": inv.Entries[0].Track.String(),
		"invoice[invoice_entries_attributes][1][rate]":              "30.5",
		"invoice[invoice_entries_attributes][1][_destroy]":          "1",
		"invoice[invoice_entries_attributes][1][to]":                "2024-03-04T10:00:00Z",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
	if _, ok := got["invoice[invoice_entries_attributes][1][id]"]; ok {
		t.Error("unsaved entry must not send an id")
	}
}

func TestMultipartRoundTrip(t *testing.T) {
	inv := sampleInvoice()

	var buf bytes.Buffer
	contentType, err := wire.WriteInvoiceForm(&buf, inv)
	if err != nil {
		t.Fatalf("WriteInvoiceForm: %v", err)
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatalf("content type %q: %v", contentType, err)
	}
	form, err := multipart.NewReader(&buf, params["boundary"]).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}

	got, err := wire.ParseInvoiceForm(form.Value)
	if err != nil {
		t.Fatalf("ParseInvoiceForm: %v", err)
	}
	if got.Project != inv.Project || got.Client != inv.Client {
		t.Errorf("header mismatch: %+v", got)
	}
	if !got.From.Equal(*inv.From) || !got.To.Equal(*inv.To) {
		t.Errorf("period mismatch: %v - %v", got.From, got.To)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(got.Entries))
	}
	for i := range inv.Entries {
		w, g := inv.Entries[i], got.Entries[i]
		if g.ID != w.ID || g.Track != w.Track || g.Rate != w.Rate || g.Description != w.Description || g.Status != w.Status {
			t.Errorf("entry %d = %+v, want %+v", i, g, w)
		}
		if !g.From.Equal(w.From) || !g.To.Equal(w.To) {
			t.Errorf("entry %d period mismatch", i)
		}
	}
}

func TestParseInvoiceFormOrdersEntriesNumerically(t *testing.T) {
	values := map[string][]string{"invoice[project_id]": {uuid.NewString()}}
	ts := "2024-03-04T09:00:00Z"
	for _, idx := range []string{"10", "2", "0"} {
		p := "invoice[invoice_entries_attributes][" + idx + "]"
		values[p+"[description]"] = []string{"entry " + idx}
		values[p+"[from]"] = []string{ts}
		values[p+"[to]"] = []string{ts}
		values[p+"[activity_track_id]"] = []string{uuid.NewString()}
	}

	inv, err := wire.ParseInvoiceForm(values)
	if err != nil {
		t.Fatalf("ParseInvoiceForm: %v", err)
	}
	var order []string
	for _, e := range inv.Entries {
		order = append(order, e.Description)
	}
	if len(order) != 3 || order[0] != "entry 0" || order[1] != "entry 2" || order[2] != "entry 10" {
		t.Errorf("order = %v", order)
	}
	if inv.From != nil || inv.Client != uuid.Nil {
		t.Error("missing fields must stay empty")
	}
}

func TestParseInvoiceFormRejectsMalformedValues(t *testing.T) {
	tests := map[string]map[string][]string{
		"project": {"invoice[project_id]": {"not-a-uuid"}},
		"from":    {"invoice[from]": {"yesterday"}},
		"entry": {
			"invoice[invoice_entries_attributes][0][from]": {"2024-03-04"},
			"invoice[invoice_entries_attributes][0][to]":   {"2024-03-04T09:00:00Z"},
		},
	}
	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := wire.ParseInvoiceForm(values); !errors.Is(err, wire.ErrMalformedForm) {
				t.Errorf("expected ErrMalformedForm, got %v", err)
			}
		})
	}
}

func TestShowResponseMarksDeletedEntriesRemoved(t *testing.T) {
	clientID := uuid.New()
	start := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	inv := models.Invoice{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		ClientID:  &clientID,
		Entries: []models.InvoiceEntry{
			{ID: uuid.New(), ActivityTrackID: uuid.New(), Rate: decimal.NewFromInt(40), From: start, To: start.Add(time.Hour)},
			{ID: uuid.New(), ActivityTrackID: uuid.New(), Rate: decimal.NewFromInt(30), From: start, To: start.Add(time.Hour),
				DeletedAt: gorm.DeletedAt{Time: start, Valid: true}},
		},
	}

	resp := wire.NewInvoiceShowResponse(inv)
	if resp.Entries[0].Rate != "40.00" {
		t.Errorf("rate = %q, want 40.00", resp.Entries[0].Rate)
	}
	if resp.Entries[0].DeletedAt != nil || resp.Entries[1].DeletedAt == nil {
		t.Fatal("deleted_at not carried over")
	}

	draft := resp.Draft()
	if draft.ID != inv.ID || draft.Client != clientID {
		t.Errorf("header mismatch: %+v", draft)
	}
	if draft.Entries[0].Removed() || !draft.Entries[1].Removed() {
		t.Error("deleted_at must map to removed")
	}
	if draft.Entries[1].Track != inv.Entries[1].ActivityTrackID {
		t.Error("activity_track_id must map to track")
	}
	if total := billing.CalculateTotalFromEntries(draft.Entries); !total.Equal(decimal.NewFromInt(40)) {
		t.Errorf("total = %s, want 40", total)
	}
}
