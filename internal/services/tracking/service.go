package tracking

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"timetrack-invoicing-backend/internal/models"
	"timetrack-invoicing-backend/internal/repository"
)

// DefaultDescription is used for stopwatches finished without one.
const DefaultDescription = "No description"

var (
	ErrNoContract       = errors.New("user has no active contract on this project")
	ErrRatesForbidden   = errors.New("only the project owner can set rates")
	ErrInvalidTrack     = errors.New("invalid track")
	ErrStopWatchPaused  = errors.New("stopwatch is paused")
	ErrStopWatchRunning = errors.New("stopwatch is not paused")
	ErrStopWatchDone    = errors.New("stopwatch is already finished")
)

// TrackInput describes time to log. Hours, as HH:MM, wins over To.
type TrackInput struct {
	Description string
	From        time.Time
	To          time.Time
	Hours       string
	ProjectRate *decimal.Decimal
	UserRate    *decimal.Decimal
}

// TrackUpdate changes the fields that are set.
type TrackUpdate struct {
	Description *string
	From        *time.Time
	To          *time.Time
	Hours       *string
	ProjectRate *decimal.Decimal
	UserRate    *decimal.Decimal
}

type Service struct {
	projectRepo *repository.ProjectRepository
	trackRepo   *repository.TrackRepository
	db          *gorm.DB
	now         func() time.Time
}

func NewService(db *gorm.DB, projectRepo *repository.ProjectRepository, trackRepo *repository.TrackRepository) *Service {
	return &Service{
		projectRepo: projectRepo,
		trackRepo:   trackRepo,
		db:          db,
		now:         time.Now,
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// LogTrack records time userID worked on a project. Rates that are not
// given come from the contract active when the work started.
func (s *Service) LogTrack(userID, projectID uuid.UUID, in TrackInput) (*models.ActivityTrack, error) {
	project, contract, err := s.contractAt(userID, projectID, in.From)
	if err != nil {
		return nil, err
	}
	if (in.ProjectRate != nil || in.UserRate != nil) && !project.IsOwner(userID) {
		return nil, ErrRatesForbidden
	}

	track := &models.ActivityTrack{
		ProjectContractID: contract.ID,
		Description:       strings.TrimSpace(in.Description),
		From:              in.From,
		To:                in.To,
	}
	if in.Hours != "" {
		track.SetHours(in.Hours)
	}
	if in.ProjectRate != nil {
		track.ProjectRate = decimal.NewNullDecimal(*in.ProjectRate)
	}
	if in.UserRate != nil {
		track.UserRate = decimal.NewNullDecimal(*in.UserRate)
	}
	if err := validTrack(track); err != nil {
		return nil, err
	}
	track.SetRatesFromContract(*contract)

	if err := s.trackRepo.Create(track); err != nil {
		return nil, err
	}
	return track, nil
}

// UpdateTrack edits a track userID logged on the project.
func (s *Service) UpdateTrack(userID, projectID, trackID uuid.UUID, in TrackUpdate) (*models.ActivityTrack, error) {
	project, err := s.projectRepo.GetForUser(projectID, userID)
	if err != nil {
		return nil, err
	}
	if (in.ProjectRate != nil || in.UserRate != nil) && !project.IsOwner(userID) {
		return nil, ErrRatesForbidden
	}

	track, err := s.trackRepo.GetForUser(trackID, projectID, userID)
	if err != nil {
		return nil, err
	}

	if in.Description != nil {
		track.Description = strings.TrimSpace(*in.Description)
	}
	if in.From != nil {
		d := track.To.Sub(track.From)
		track.From = *in.From
		track.To = track.From.Add(d)
	}
	if in.To != nil {
		track.To = *in.To
	}
	if in.Hours != nil {
		track.SetHours(*in.Hours)
	}
	if in.ProjectRate != nil {
		track.ProjectRate = decimal.NewNullDecimal(*in.ProjectRate)
	}
	if in.UserRate != nil {
		track.UserRate = decimal.NewNullDecimal(*in.UserRate)
	}
	if err := validTrack(track); err != nil {
		return nil, err
	}

	if err := s.trackRepo.Save(track); err != nil {
		return nil, err
	}
	return track, nil
}

// StartStopWatch starts measuring time on a project.
func (s *Service) StartStopWatch(userID, projectID uuid.UUID, description string) (*models.ActivityStopWatch, error) {
	start := s.now()
	if _, _, err := s.contractAt(userID, projectID, start); err != nil {
		return nil, err
	}

	w := &models.ActivityStopWatch{
		UserID:      userID,
		ProjectID:   projectID,
		Description: strings.TrimSpace(description),
		Start:       start,
	}
	if err := s.trackRepo.CreateStopWatch(w); err != nil {
		return nil, err
	}
	return w, nil
}

// StopStopWatch pauses a running stopwatch.
func (s *Service) StopStopWatch(userID, projectID, id uuid.UUID) (*models.ActivityStopWatch, error) {
	w, err := s.stopWatch(userID, projectID, id)
	if err != nil {
		return nil, err
	}
	if w.Paused {
		return nil, ErrStopWatchPaused
	}

	end := s.now()
	w.End = &end
	w.Paused = true
	if err := s.trackRepo.SaveStopWatch(w); err != nil {
		return nil, err
	}
	return w, nil
}

// ResumeStopWatch continues a paused stopwatch. The paused time is not
// counted.
func (s *Service) ResumeStopWatch(userID, projectID, id uuid.UUID) (*models.ActivityStopWatch, error) {
	w, err := s.stopWatch(userID, projectID, id)
	if err != nil {
		return nil, err
	}
	if !w.Paused || w.End == nil {
		return nil, ErrStopWatchRunning
	}

	w.Start = w.Start.Add(s.now().Sub(*w.End))
	w.End = nil
	w.Paused = false
	if err := s.trackRepo.SaveStopWatch(w); err != nil {
		return nil, err
	}
	return w, nil
}

// FinishStopWatch turns the measured time into a track.
func (s *Service) FinishStopWatch(userID, projectID, id uuid.UUID) (*models.ActivityTrack, error) {
	w, err := s.stopWatch(userID, projectID, id)
	if err != nil {
		return nil, err
	}

	end := s.now()
	if w.Paused && w.End != nil {
		end = *w.End
	}
	_, contract, err := s.contractAt(userID, projectID, w.Start)
	if err != nil {
		return nil, err
	}

	description := w.Description
	if description == "" {
		description = DefaultDescription
	}
	track := &models.ActivityTrack{
		ProjectContractID: contract.ID,
		Description:       description,
		From:              w.Start,
		To:                end,
	}
	track.SetRatesFromContract(*contract)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.trackRepo.WithTx(tx)
		if err := repo.Create(track); err != nil {
			return err
		}
		w.End = &end
		w.Paused = false
		w.ActivityTrackID = &track.ID
		return repo.SaveStopWatch(w)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("stopwatch %s finished as track %s (%s)", w.ID, track.ID, track.Hours())
	return track, nil
}

func (s *Service) stopWatch(userID, projectID, id uuid.UUID) (*models.ActivityStopWatch, error) {
	w, err := s.trackRepo.GetStopWatch(id, userID, projectID)
	if err != nil {
		return nil, err
	}
	if !w.Running() {
		return nil, ErrStopWatchDone
	}
	return w, nil
}

// contractAt returns the project and the team contract userID works under at t.
func (s *Service) contractAt(userID, projectID uuid.UUID, t time.Time) (*models.Project, *models.ProjectContract, error) {
	project, err := s.projectRepo.GetForUser(projectID, userID)
	if err != nil {
		return nil, nil, err
	}
	contract, err := s.projectRepo.ActiveContractFor(projectID, userID, t)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNoContract
	}
	if err != nil {
		return nil, nil, err
	}
	if !contract.IsTeam() {
		return nil, nil, ErrNoContract
	}
	return project, contract, nil
}

func validTrack(t *models.ActivityTrack) error {
	switch {
	case t.Description == "":
		return errors.Join(ErrInvalidTrack, errors.New("description is required"))
	case t.From.IsZero():
		return errors.Join(ErrInvalidTrack, errors.New("start is required"))
	case t.To.Before(t.From):
		return errors.Join(ErrInvalidTrack, errors.New("track ends before it starts"))
	}
	return nil
}
