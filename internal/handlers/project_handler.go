package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timetrack-invoicing-backend/internal/repository"
	"timetrack-invoicing-backend/internal/services/invoicing"
	"timetrack-invoicing-backend/internal/wire"
)

type ProjectHandler struct {
	projects *repository.ProjectRepository
	service  *invoicing.Service
}

func NewProjectHandler(projects *repository.ProjectRepository, service *invoicing.Service) *ProjectHandler {
	return &ProjectHandler{projects: projects, service: service}
}

func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projects.ListForUser(currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.NewProjects(projects))
}

// StatusPeriod returns the work logged on the project between start_date
// and end_date, grouped by user.
func (h *ProjectHandler) StatusPeriod(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	start, err := parseDay(c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	end, err := parseDay(c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date is before start_date"})
		return
	}

	entries, err := h.service.WorkEntriesFromPeriod(currentUser(c), projectID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
