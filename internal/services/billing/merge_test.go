package billing_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"timetrack-invoicing-backend/internal/services/billing"
)

func track(start time.Time, hours int, rate string) billing.Track {
	return billing.Track{
		ID:          uuid.New(),
		Description: "task",
		From:        start,
		To:          start.Add(time.Duration(hours) * time.Hour),
		ProjectRate: rate,
		UserRate:    "1",
	}
}

func userEntry(user uuid.UUID, tracks ...billing.Track) billing.Entry {
	return billing.Entry{User: billing.User{ID: user, Email: "dev@example.com"}, Tracks: tracks}
}

func countByTrack(entries []billing.InvoiceEntry) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int)
	for _, e := range entries {
		counts[e.Track]++
	}
	return counts
}

func TestTrackToInvoiceEntry(t *testing.T) {
	tr := track(time.Date(2021, 1, 1, 9, 0, 0, 0, time.UTC), 2, "15")
	got := billing.TrackToInvoiceEntry(tr)

	if got.Track != tr.ID || got.Rate != "15" || got.Description != tr.Description {
		t.Errorf("TrackToInvoiceEntry = %+v", got)
	}
	if got.Persisted() || got.Removed() {
		t.Errorf("converted entry should be unsaved and active: %+v", got)
	}
}

func TestEntriesToInvoiceEntriesKeepsOrder(t *testing.T) {
	start := time.Date(2021, 1, 1, 9, 0, 0, 0, time.UTC)
	a := track(start, 1, "10")
	b := track(start.Add(2*time.Hour), 1, "10")
	c := track(start.Add(4*time.Hour), 1, "20")

	got, err := billing.EntriesToInvoiceEntries([]billing.Entry{
		userEntry(uuid.New(), a, b),
		userEntry(uuid.New(), c),
	})
	if err != nil {
		t.Fatalf("EntriesToInvoiceEntries: %v", err)
	}
	want := []uuid.UUID{a.ID, b.ID, c.ID}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Track != want[i] {
			t.Errorf("entry %d track = %s, want %s", i, got[i].Track, want[i])
		}
	}
}

func TestEntriesToInvoiceEntriesRejectsMissingID(t *testing.T) {
	tr := track(time.Now(), 1, "10")
	tr.ID = uuid.Nil
	_, err := billing.EntriesToInvoiceEntries([]billing.Entry{userEntry(uuid.New(), tr)})
	if !errors.Is(err, billing.ErrMissingTrackID) {
		t.Errorf("err = %v, want ErrMissingTrackID", err)
	}
}

func TestMergeEntriesToInvoiceEntriesIsIdempotent(t *testing.T) {
	start := time.Date(2021, 1, 1, 9, 0, 0, 0, time.UTC)
	imported := []billing.Entry{
		userEntry(uuid.New(), track(start, 1, "10"), track(start.Add(time.Hour), 2, "10")),
		userEntry(uuid.New(), track(start.Add(5*time.Hour), 1, "30")),
	}

	once := billing.MergeEntriesToInvoiceEntries(nil, imported)
	twice := billing.MergeEntriesToInvoiceEntries(once, imported)

	if len(once) != 3 || len(twice) != 3 {
		t.Fatalf("len(once) = %d, len(twice) = %d, want 3", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("entry %d changed on re-merge: %+v vs %+v", i, once[i], twice[i])
		}
	}
	if total := billing.CalculateTotalFromEntries(twice); !total.Equal(decimal.NewFromInt(60)) {
		t.Errorf("total = %s, want 60", total)
	}
}

func TestMergeEntriesToInvoiceEntriesNoDuplicates(t *testing.T) {
	start := time.Date(2021, 1, 1, 9, 0, 0, 0, time.UTC)
	shared := track(start, 1, "10")
	user := uuid.New()

	current := billing.MergeEntriesToInvoiceEntries(nil, []billing.Entry{userEntry(user, shared)})
	current[0].Status = billing.EntryRemoved

	// The same track arrives twice in one import and again in a later one.
	next := billing.MergeEntriesToInvoiceEntries(current, []billing.Entry{
		userEntry(user, shared, track(start.Add(time.Hour), 1, "10")),
		userEntry(uuid.New(), shared),
	})
	next = billing.MergeEntriesToInvoiceEntries(next, []billing.Entry{userEntry(user, shared)})

	for id, n := range countByTrack(next) {
		if n > 1 {
			t.Errorf("track %s referenced %d times", id, n)
		}
	}
	if len(next) != 2 {
		t.Errorf("len = %d, want 2", len(next))
	}
	if !next[0].Removed() {
		t.Error("merge must not restore or modify existing line items")
	}
}

func TestMergeEntriesToInvoiceEntriesReturnsFreshSlice(t *testing.T) {
	start := time.Date(2021, 1, 1, 9, 0, 0, 0, time.UTC)
	imported := []billing.Entry{userEntry(uuid.New(), track(start, 1, "10"))}
	current := billing.MergeEntriesToInvoiceEntries(nil, imported)

	for _, entries := range [][]billing.Entry{nil, {}, imported} {
		got := billing.MergeEntriesToInvoiceEntries(current, entries)
		if len(got) != len(current) || got[0] != current[0] {
			t.Fatalf("no-op merge changed content: %+v", got)
		}
		got[0].Description = "changed"
		if current[0].Description == "changed" {
			t.Fatal("merge result aliases the input slice")
		}
	}
}

func TestMergeUserEntryToInvoiceEntries(t *testing.T) {
	start := time.Date(2021, 1, 1, 9, 0, 0, 0, time.UTC)
	a := track(start, 1, "10")
	b := track(start.Add(time.Hour), 1, "10")
	user := uuid.New()

	current := billing.MergeUserEntryToInvoiceEntries(nil, userEntry(user, a))
	got := billing.MergeUserEntryToInvoiceEntries(current, userEntry(user, a, b))
	if len(got) != 2 || got[1].Track != b.ID {
		t.Errorf("MergeUserEntryToInvoiceEntries = %+v", got)
	}
}

func TestMergeEntries(t *testing.T) {
	start := time.Date(2021, 1, 1, 9, 0, 0, 0, time.UTC)
	alice, bob := uuid.New(), uuid.New()
	t1, t2, t3 := track(start, 1, "10"), track(start.Add(time.Hour), 1, "10"), track(start, 3, "5")

	a := []billing.Entry{userEntry(alice, t1)}
	b := []billing.Entry{userEntry(alice, t1, t2), userEntry(bob, t3)}

	merged := billing.MergeEntries(a, b)
	if len(merged) != 2 {
		t.Fatalf("len = %d, want 2", len(merged))
	}
	if merged[0].User.ID != alice || len(merged[0].Tracks) != 2 {
		t.Errorf("alice entry = %+v", merged[0])
	}
	if merged[1].User.ID != bob || len(merged[1].Tracks) != 1 {
		t.Errorf("bob entry = %+v", merged[1])
	}
	if len(a[0].Tracks) != 1 {
		t.Error("MergeEntries mutated its input")
	}

	again := billing.MergeEntries(merged, b)
	if len(again) != 2 || len(again[0].Tracks) != 2 || len(again[1].Tracks) != 1 {
		t.Errorf("MergeEntries is not idempotent: %+v", again)
	}
}

func TestUniqueByTrack(t *testing.T) {
	id := uuid.New()
	in := []billing.InvoiceEntry{
		{Track: id, Description: "first"},
		{Track: uuid.New()},
		{Track: id, Description: "second"},
	}
	got := billing.UniqueByTrack(in)
	if len(got) != 2 || got[0].Description != "first" {
		t.Errorf("UniqueByTrack = %+v", got)
	}
}

func TestEndToEndImportRemoveRestore(t *testing.T) {
	start := time.Date(2021, 3, 1, 9, 0, 0, 0, time.UTC)
	periodA := []billing.Entry{
		userEntry(uuid.New(), track(start, 2, "10"), track(start.Add(24*time.Hour), 1, "10")),
		userEntry(uuid.New(), track(start.Add(48*time.Hour), 3, "20")),
	}

	entries := billing.MergeEntriesToInvoiceEntries(nil, periodA)
	total := billing.CalculateTotalFromEntries(entries)
	if !total.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("total after first import = %s, want 90", total)
	}

	entries = billing.MergeEntriesToInvoiceEntries(entries, periodA)
	if len(entries) != 3 || !billing.CalculateTotalFromEntries(entries).Equal(total) {
		t.Fatalf("re-import changed invoice: %d entries, total %s", len(entries), billing.CalculateTotalFromEntries(entries))
	}

	removedAmount := billing.CalculateEntryAmount(entries[2])
	entries[2].Status = billing.EntryRemoved
	if got := billing.CalculateTotalFromEntries(entries); !got.Equal(total.Sub(removedAmount)) {
		t.Errorf("total after remove = %s, want %s", got, total.Sub(removedAmount))
	}

	entries[2].Status = billing.EntryActive
	if got := billing.CalculateTotalFromEntries(entries); !got.Equal(total) {
		t.Errorf("total after restore = %s, want %s", got, total)
	}
}
