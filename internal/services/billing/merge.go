package billing

import "github.com/google/uuid"

// MergeUserEntryToInvoiceEntries appends the tracks of one user's entry to
// invoiceEntries, skipping tracks that already have a line item.
func MergeUserEntryToInvoiceEntries(invoiceEntries []InvoiceEntry, entry Entry) []InvoiceEntry {
	return MergeEntriesToInvoiceEntries(invoiceEntries, []Entry{entry})
}

// MergeEntriesToInvoiceEntries appends every track of entries to
// invoiceEntries without duplicating a track. Existing line items are
// neither removed nor modified, and the result never shares memory with
// invoiceEntries. Merging the same entries twice is a no-op.
func MergeEntriesToInvoiceEntries(invoiceEntries []InvoiceEntry, entries []Entry) []InvoiceEntry {
	incoming := 0
	for _, entry := range entries {
		incoming += len(entry.Tracks)
	}

	merged := make([]InvoiceEntry, len(invoiceEntries), len(invoiceEntries)+incoming)
	copy(merged, invoiceEntries)

	seen := make(map[uuid.UUID]struct{}, cap(merged))
	for _, e := range invoiceEntries {
		seen[e.Track] = struct{}{}
	}

	for _, entry := range entries {
		for _, track := range entry.Tracks {
			if track.ID == uuid.Nil {
				continue
			}
			if _, ok := seen[track.ID]; ok {
				continue
			}
			seen[track.ID] = struct{}{}
			merged = append(merged, TrackToInvoiceEntry(track))
		}
	}
	return merged
}

// MergeEntries unions a and b per user. Tracks of the same user are
// deduplicated by id; the inputs are not mutated.
func MergeEntries(a, b []Entry) []Entry {
	var merged []Entry
	byUser := make(map[uuid.UUID]int)
	seen := make(map[uuid.UUID]map[uuid.UUID]struct{})

	for _, group := range [][]Entry{a, b} {
		for _, entry := range group {
			idx, ok := byUser[entry.User.ID]
			if !ok {
				idx = len(merged)
				byUser[entry.User.ID] = idx
				seen[entry.User.ID] = make(map[uuid.UUID]struct{})
				merged = append(merged, Entry{
					Contract: entry.Contract,
					User:     entry.User,
					Tracks:   make([]Track, 0, len(entry.Tracks)),
				})
			}
			tracks := seen[entry.User.ID]
			for _, track := range entry.Tracks {
				if _, dup := tracks[track.ID]; dup {
					continue
				}
				tracks[track.ID] = struct{}{}
				merged[idx].Tracks = append(merged[idx].Tracks, track)
			}
		}
	}
	return merged
}

// UniqueByTrack keeps the first line item for each track.
func UniqueByTrack(entries []InvoiceEntry) []InvoiceEntry {
	out := make([]InvoiceEntry, 0, len(entries))
	seen := make(map[uuid.UUID]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Track]; ok {
			continue
		}
		seen[e.Track] = struct{}{}
		out = append(out, e)
	}
	return out
}
