package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"timetrack-invoicing-backend/internal/services/billing"
)

// ActivityTrack is time a user logged under a project contract. Rates left
// empty are filled from the contract when the track is created.
type ActivityTrack struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProjectContractID uuid.UUID       `gorm:"type:uuid;index"`
	ProjectContract   ProjectContract `gorm:"foreignKey:ProjectContractID"`
	Description       string          `gorm:"not null"`
	From              time.Time       `gorm:"column:starts_at;index"`
	To                time.Time       `gorm:"column:ends_at"`
	ProjectRate       decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	UserRate          decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (t *ActivityTrack) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// SetRatesFromContract fills the rates that were not given explicitly.
func (t *ActivityTrack) SetRatesFromContract(c ProjectContract) {
	if !t.ProjectRate.Valid {
		t.ProjectRate = decimal.NewNullDecimal(c.ProjectRate)
	}
	if !t.UserRate.Valid {
		t.UserRate = decimal.NewNullDecimal(c.UserRate)
	}
}

// Hours renders the logged time as H:MM.
func (t ActivityTrack) Hours() string {
	d := t.To.Sub(t.From)
	if d <= 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", int(d/time.Hour), int((d%time.Hour)/time.Minute))
}

// SetHours moves the end of the track to HH:MM after its start.
func (t *ActivityTrack) SetHours(hhmm string) {
	h, m := billing.ParseQty(hhmm)
	t.To = t.From.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

// Track returns the billing view of the track. The visible rate is the
// project rate for project owners and the user rate for everyone else.
func (t ActivityTrack) Track(asOwner bool) billing.Track {
	tr := billing.Track{
		ID:          t.ID,
		Description: t.Description,
		From:        t.From,
		To:          t.To,
		ProjectRate: rateString(t.ProjectRate),
		UserRate:    rateString(t.UserRate),
	}
	if !asOwner {
		tr.ProjectRate = tr.UserRate
	}
	return tr
}

func rateString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
