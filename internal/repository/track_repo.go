package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"timetrack-invoicing-backend/internal/models"
)

type TrackRepository struct {
	db *gorm.DB
}

func NewTrackRepository(db *gorm.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

func (r *TrackRepository) Create(track *models.ActivityTrack) error {
	return r.db.Omit("ProjectContract").Create(track).Error
}

func (r *TrackRepository) Save(track *models.ActivityTrack) error {
	return r.db.Omit("ProjectContract").Save(track).Error
}

// WithTx returns a repository bound to tx.
func (r *TrackRepository) WithTx(tx *gorm.DB) *TrackRepository {
	return &TrackRepository{db: tx}
}

// GetForUser fetches a track userID logged on projectID under any of their
// contracts.
func (r *TrackRepository) GetForUser(trackID, projectID, userID uuid.UUID) (*models.ActivityTrack, error) {
	var track models.ActivityTrack
	err := r.db.
		Joins("JOIN project_contracts ON project_contracts.id = activity_tracks.project_contract_id").
		Where("activity_tracks.id = ?", trackID).
		Where("project_contracts.project_id = ? AND project_contracts.user_id = ?", projectID, userID).
		First(&track).Error
	if err != nil {
		return nil, err
	}
	return &track, nil
}

// LoggedInPeriod returns the tracks of a contract that start between the
// beginning of from's day and the end of to's day.
func (r *TrackRepository) LoggedInPeriod(contractID uuid.UUID, from, to time.Time) ([]models.ActivityTrack, error) {
	start, end := dayRange(from, to)

	var tracks []models.ActivityTrack
	err := r.db.
		Where("project_contract_id = ?", contractID).
		Where("starts_at >= ? AND starts_at <= ?", start, end).
		Order("starts_at ASC").
		Find(&tracks).Error
	return tracks, err
}

// CountIn returns how many of ids were logged under one of contractIDs,
// deleted tracks included.
func (r *TrackRepository) CountIn(ids, contractIDs []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Unscoped().Model(&models.ActivityTrack{}).
		Where("id IN ? AND project_contract_id IN ?", ids, contractIDs).
		Count(&count).Error
	return count, err
}

func (r *TrackRepository) CreateStopWatch(w *models.ActivityStopWatch) error {
	return r.db.Create(w).Error
}

func (r *TrackRepository) SaveStopWatch(w *models.ActivityStopWatch) error {
	return r.db.Save(w).Error
}

// GetStopWatch fetches a stopwatch of userID on projectID.
func (r *TrackRepository) GetStopWatch(id, userID, projectID uuid.UUID) (*models.ActivityStopWatch, error) {
	var w models.ActivityStopWatch
	err := r.db.First(&w, "id = ? AND user_id = ? AND project_id = ?", id, userID, projectID).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func dayRange(from, to time.Time) (time.Time, time.Time) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), to.Location())
	return start, end
}
