package tracking_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"timetrack-invoicing-backend/internal/repository"
	"timetrack-invoicing-backend/internal/services/tracking"
	"timetrack-invoicing-backend/internal/testutil"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func setup(t *testing.T) (*tracking.Service, testutil.Fixture, *clock) {
	t.Helper()
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := tracking.NewService(db, repository.NewProjectRepository(db), repository.NewTrackRepository(db))
	c := &clock{t: time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)}
	svc.SetClock(c.now)
	return svc, fx, c
}

func TestLogTrackFillsRatesFromContract(t *testing.T) {
	svc, fx, c := setup(t)

	track, err := svc.LogTrack(fx.Member.ID, fx.Project.ID, tracking.TrackInput{
		Description: " build ",
		From:        c.t,
		Hours:       "01:30",
	})
	if err != nil {
		t.Fatalf("LogTrack: %v", err)
	}
	if track.Description != "build" {
		t.Errorf("description = %q", track.Description)
	}
	if got := track.Hours(); got != "1:30" {
		t.Errorf("hours = %s, want 1:30", got)
	}
	if !track.ProjectRate.Decimal.Equal(decimal.NewFromInt(40)) || !track.UserRate.Decimal.Equal(decimal.NewFromInt(25)) {
		t.Errorf("rates = %s/%s, want 40/25", track.ProjectRate.Decimal, track.UserRate.Decimal)
	}
}

func TestLogTrackRules(t *testing.T) {
	svc, fx, c := setup(t)
	rate := decimal.NewFromInt(99)

	tests := []struct {
		name string
		user uuid.UUID
		in   tracking.TrackInput
		want error
	}{
		{"member sets rate", fx.Member.ID, tracking.TrackInput{Description: "x", From: c.t, Hours: "1:00", ProjectRate: &rate}, tracking.ErrRatesForbidden},
		{"client", fx.ClientUser.ID, tracking.TrackInput{Description: "x", From: c.t, Hours: "1:00"}, tracking.ErrNoContract},
		{"outsider", fx.Outsider.ID, tracking.TrackInput{Description: "x", From: c.t, Hours: "1:00"}, gorm.ErrRecordNotFound},
		{"no description", fx.Member.ID, tracking.TrackInput{From: c.t, Hours: "1:00"}, tracking.ErrInvalidTrack},
		{"ends before start", fx.Member.ID, tracking.TrackInput{Description: "x", From: c.t, To: c.t.Add(-time.Hour)}, tracking.ErrInvalidTrack},
		{"before contract", fx.Member.ID, tracking.TrackInput{Description: "x", From: testutil.ContractStart.AddDate(0, 0, -1), Hours: "1:00"}, tracking.ErrNoContract},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.LogTrack(tt.user, fx.Project.ID, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestOwnerSetsRates(t *testing.T) {
	svc, fx, c := setup(t)
	rate := decimal.NewFromInt(80)

	track, err := svc.LogTrack(fx.Owner.ID, fx.Project.ID, tracking.TrackInput{
		Description: "review", From: c.t, Hours: "2:00", ProjectRate: &rate,
	})
	if err != nil {
		t.Fatalf("LogTrack: %v", err)
	}
	if !track.ProjectRate.Decimal.Equal(rate) {
		t.Errorf("project rate = %s, want 80", track.ProjectRate.Decimal)
	}
	if !track.UserRate.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Errorf("user rate = %s, want contract rate 50", track.UserRate.Decimal)
	}
}

func TestUpdateTrack(t *testing.T) {
	svc, fx, c := setup(t)

	track, err := svc.LogTrack(fx.Member.ID, fx.Project.ID, tracking.TrackInput{Description: "build", From: c.t, Hours: "1:00"})
	if err != nil {
		t.Fatalf("LogTrack: %v", err)
	}

	hours, desc := "02:15", "build api"
	updated, err := svc.UpdateTrack(fx.Member.ID, fx.Project.ID, track.ID, tracking.TrackUpdate{Description: &desc, Hours: &hours})
	if err != nil {
		t.Fatalf("UpdateTrack: %v", err)
	}
	if updated.Hours() != "2:15" || updated.Description != "build api" {
		t.Errorf("unexpected track: %s %q", updated.Hours(), updated.Description)
	}

	if _, err := svc.UpdateTrack(fx.Owner.ID, fx.Project.ID, track.ID, tracking.TrackUpdate{Description: &desc}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("other users cannot edit the track, got %v", err)
	}
}

func TestStopWatchLifecycle(t *testing.T) {
	svc, fx, c := setup(t)

	w, err := svc.StartStopWatch(fx.Member.ID, fx.Project.ID, "")
	if err != nil {
		t.Fatalf("StartStopWatch: %v", err)
	}

	c.t = c.t.Add(30 * time.Minute)
	if _, err := svc.StopStopWatch(fx.Member.ID, fx.Project.ID, w.ID); err != nil {
		t.Fatalf("StopStopWatch: %v", err)
	}
	if _, err := svc.StopStopWatch(fx.Member.ID, fx.Project.ID, w.ID); !errors.Is(err, tracking.ErrStopWatchPaused) {
		t.Errorf("stopping twice: expected ErrStopWatchPaused, got %v", err)
	}

	c.t = c.t.Add(2 * time.Hour)
	if _, err := svc.ResumeStopWatch(fx.Member.ID, fx.Project.ID, w.ID); err != nil {
		t.Fatalf("ResumeStopWatch: %v", err)
	}
	if _, err := svc.ResumeStopWatch(fx.Member.ID, fx.Project.ID, w.ID); !errors.Is(err, tracking.ErrStopWatchRunning) {
		t.Errorf("resuming a running stopwatch: expected ErrStopWatchRunning, got %v", err)
	}

	c.t = c.t.Add(15 * time.Minute)
	track, err := svc.FinishStopWatch(fx.Member.ID, fx.Project.ID, w.ID)
	if err != nil {
		t.Fatalf("FinishStopWatch: %v", err)
	}
	if track.Description != tracking.DefaultDescription {
		t.Errorf("description = %q", track.Description)
	}
	if track.Hours() != "0:45" {
		t.Errorf("hours = %s, want 0:45", track.Hours())
	}

	if _, err := svc.FinishStopWatch(fx.Member.ID, fx.Project.ID, w.ID); !errors.Is(err, tracking.ErrStopWatchDone) {
		t.Errorf("finishing twice: expected ErrStopWatchDone, got %v", err)
	}
}
