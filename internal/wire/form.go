// Package wire holds the request and response formats shared by the HTTP
// server and its client.
package wire

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"timetrack-invoicing-backend/internal/services/billing"
)

// TimeLayout is how instants travel in forms and query strings.
const TimeLayout = time.RFC3339Nano

var ErrMalformedForm = errors.New("malformed invoice form")

const entriesKey = "invoice[invoice_entries_attributes]"

var entryKeyPattern = regexp.MustCompile(`^invoice\[invoice_entries_attributes\]\[(\d+)\]\[(\w+)\]$`)

// Field is a single form field.
type Field struct {
	Name  string
	Value string
}

// InvoiceFields flattens an invoice into nested attribute fields:
// invoice[project_id], invoice[client_id], invoice[from], invoice[to] and
// invoice[invoice_entries_attributes][i][...] for every entry.
func InvoiceFields(inv billing.Invoice) []Field {
	fields := []Field{
		{"invoice[project_id]", idString(inv.Project)},
		{"invoice[client_id]", idString(inv.Client)},
	}
	if inv.From != nil {
		fields = append(fields, Field{"invoice[from]", inv.From.Format(TimeLayout)})
	}
	if inv.To != nil {
		fields = append(fields, Field{"invoice[to]", inv.To.Format(TimeLayout)})
	}

	for i, e := range inv.Entries {
		prefix := fmt.Sprintf("%s[%d]", entriesKey, i)
		if e.Persisted() {
			fields = append(fields, Field{prefix + "[id]", e.ID.String()})
		}
		destroy := "0"
		if e.Removed() {
			destroy = "1"
		}
		fields = append(fields,
			Field{prefix + "[description]", e.Description},
			Field{prefix + "[rate]", e.Rate},
			Field{prefix + "[from]", e.From.Format(TimeLayout)},
			Field{prefix + "[to]", e.To.Format(TimeLayout)},
			Field{prefix + "[activity_track_id]", idString(e.Track)},
			Field{prefix + "[_destroy]", destroy},
		)
	}
	return fields
}

// WriteInvoiceForm writes the invoice as multipart/form-data and returns
// the content type to send it with.
func WriteInvoiceForm(w io.Writer, inv billing.Invoice) (string, error) {
	mw := multipart.NewWriter(w)
	for _, f := range InvoiceFields(inv) {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	return mw.FormDataContentType(), nil
}

// ParseInvoiceForm reads an invoice from nested attribute fields. Entries
// keep the numeric order of their index.
func ParseInvoiceForm(values map[string][]string) (billing.Invoice, error) {
	var inv billing.Invoice
	var err error

	if inv.Project, err = parseID(first(values, "invoice[project_id]")); err != nil {
		return inv, fmt.Errorf("%w: project_id: %v", ErrMalformedForm, err)
	}
	if inv.Client, err = parseID(first(values, "invoice[client_id]")); err != nil {
		return inv, fmt.Errorf("%w: client_id: %v", ErrMalformedForm, err)
	}
	if inv.From, err = parseOptionalTime(first(values, "invoice[from]")); err != nil {
		return inv, fmt.Errorf("%w: from: %v", ErrMalformedForm, err)
	}
	if inv.To, err = parseOptionalTime(first(values, "invoice[to]")); err != nil {
		return inv, fmt.Errorf("%w: to: %v", ErrMalformedForm, err)
	}

	byIndex := map[int]map[string]string{}
	for key, vals := range values {
		m := entryKeyPattern.FindStringSubmatch(key)
		if m == nil || len(vals) == 0 {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return inv, fmt.Errorf("%w: entry index %q", ErrMalformedForm, m[1])
		}
		if byIndex[idx] == nil {
			byIndex[idx] = map[string]string{}
		}
		byIndex[idx][m[2]] = vals[0]
	}

	indexes := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	for _, idx := range indexes {
		entry, err := parseEntry(byIndex[idx])
		if err != nil {
			return inv, fmt.Errorf("%w: entry %d: %v", ErrMalformedForm, idx, err)
		}
		inv.Entries = append(inv.Entries, entry)
	}
	return inv, nil
}

func parseEntry(attrs map[string]string) (billing.InvoiceEntry, error) {
	var e billing.InvoiceEntry
	var err error

	if e.ID, err = parseID(attrs["id"]); err != nil {
		return e, fmt.Errorf("id: %v", err)
	}
	if e.Track, err = parseID(attrs["activity_track_id"]); err != nil {
		return e, fmt.Errorf("activity_track_id: %v", err)
	}
	if e.From, err = time.Parse(TimeLayout, attrs["from"]); err != nil {
		return e, fmt.Errorf("from: %v", err)
	}
	if e.To, err = time.Parse(TimeLayout, attrs["to"]); err != nil {
		return e, fmt.Errorf("to: %v", err)
	}
	e.Description = attrs["description"]
	e.Rate = attrs["rate"]
	switch strings.ToLower(attrs["_destroy"]) {
	case "1", "true":
		e.Status = billing.EntryRemoved
	default:
		e.Status = billing.EntryActive
	}
	return e, nil
}

func first(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

func parseID(s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
