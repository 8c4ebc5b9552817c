package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"timetrack-invoicing-backend/internal/models"
	"timetrack-invoicing-backend/internal/services/tracking"
	"timetrack-invoicing-backend/internal/wire"
)

type stopWatchFunc func(userID, projectID, id uuid.UUID) (*models.ActivityStopWatch, error)

type TrackHandler struct {
	service *tracking.Service
}

func NewTrackHandler(service *tracking.Service) *TrackHandler {
	return &TrackHandler{service: service}
}

type trackPayload struct {
	Description *string    `json:"description"`
	From        *time.Time `json:"from"`
	To          *time.Time `json:"to"`
	Hours       *string    `json:"hours"`
	ProjectRate *string    `json:"project_rate"`
	UserRate    *string    `json:"user_rate"`
}

func (p trackPayload) rates() (project, user *decimal.Decimal, err error) {
	if p.ProjectRate != nil {
		d, err := decimal.NewFromString(*p.ProjectRate)
		if err != nil {
			return nil, nil, err
		}
		project = &d
	}
	if p.UserRate != nil {
		d, err := decimal.NewFromString(*p.UserRate)
		if err != nil {
			return nil, nil, err
		}
		user = &d
	}
	return project, user, nil
}

// Create logs time. The length comes from hours (HH:MM) or from to.
func (h *TrackHandler) Create(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var payload trackPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.From == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	projectRate, userRate, err := payload.rates()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid rate"})
		return
	}

	in := tracking.TrackInput{
		From:        *payload.From,
		ProjectRate: projectRate,
		UserRate:    userRate,
	}
	if payload.Description != nil {
		in.Description = *payload.Description
	}
	if payload.To != nil {
		in.To = *payload.To
	}
	if payload.Hours != nil {
		in.Hours = *payload.Hours
	}

	track, err := h.service.LogTrack(currentUser(c), projectID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wire.NewTrack(*track, false))
}

func (h *TrackHandler) Update(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	trackID, ok := idParam(c, "track")
	if !ok {
		return
	}
	var payload trackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	projectRate, userRate, err := payload.rates()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid rate"})
		return
	}

	track, err := h.service.UpdateTrack(currentUser(c), projectID, trackID, tracking.TrackUpdate{
		Description: payload.Description,
		From:        payload.From,
		To:          payload.To,
		Hours:       payload.Hours,
		ProjectRate: projectRate,
		UserRate:    userRate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.NewTrack(*track, false))
}

func (h *TrackHandler) StartStopWatch(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var payload struct {
		Description string `json:"description"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
	}

	w, err := h.service.StartStopWatch(currentUser(c), projectID, payload.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wire.NewStopWatch(*w))
}

func (h *TrackHandler) StopStopWatch(c *gin.Context) {
	h.stopWatchAction(c, h.service.StopStopWatch)
}

func (h *TrackHandler) ResumeStopWatch(c *gin.Context) {
	h.stopWatchAction(c, h.service.ResumeStopWatch)
}

func (h *TrackHandler) FinishStopWatch(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	watchID, ok := idParam(c, "watch")
	if !ok {
		return
	}
	track, err := h.service.FinishStopWatch(currentUser(c), projectID, watchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wire.NewTrack(*track, false))
}

func (h *TrackHandler) stopWatchAction(c *gin.Context, action stopWatchFunc) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	watchID, ok := idParam(c, "watch")
	if !ok {
		return
	}
	w, err := action(currentUser(c), projectID, watchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.NewStopWatch(*w))
}
