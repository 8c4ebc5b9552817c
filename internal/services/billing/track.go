package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Track is a logged interval of work with the rates it is billed at.
type Track struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	ProjectRate string    `json:"project_rate"`
	UserRate    string    `json:"user_rate"`
}

// User identifies who logged the tracks of an Entry.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// Contract carries the rate of the contract the tracks were logged under.
type Contract struct {
	ProjectRate string `json:"project_rate"`
}

// Entry groups every track one user logged in a period. It is the unit of
// import into an invoice and is never persisted as such.
type Entry struct {
	Contract Contract `json:"contract"`
	User     User     `json:"user"`
	Tracks   []Track  `json:"tracks"`
}

// HoursFromTrack returns the logged time in fractional hours.
func HoursFromTrack(t Track) float64 {
	return t.To.Sub(t.From).Hours()
}

// CalculateTrackAmount bills the track at its project rate.
func CalculateTrackAmount(t Track) decimal.Decimal {
	return amount(t.From, t.To, t.ProjectRate)
}

// FormatQtyTrack renders the logged time as HH:MM.
func FormatQtyTrack(t Track) string {
	return formatQty(t.From, t.To)
}

// CalculateTotalFromTracks sums the amount of every track in entries,
// skipping the tracks flagged in ignored.
func CalculateTotalFromTracks(entries []Entry, ignored map[uuid.UUID]bool) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range entries {
		for _, track := range entry.Tracks {
			if ignored[track.ID] {
				continue
			}
			total = total.Add(CalculateTrackAmount(track))
		}
	}
	return total
}
