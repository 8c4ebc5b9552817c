package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityStopWatch measures time that becomes an ActivityTrack once
// finished. A stopwatch without ActivityTrackID is still running.
type ActivityStopWatch struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID `gorm:"type:uuid;index"`
	ProjectID       uuid.UUID `gorm:"type:uuid;index"`
	Description     string
	Start           time.Time
	End             *time.Time
	Paused          bool
	ActivityTrackID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (w *ActivityStopWatch) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (w ActivityStopWatch) Running() bool {
	return w.ActivityTrackID == nil
}
