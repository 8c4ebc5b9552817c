package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"timetrack-invoicing-backend/internal/services/auth"
	"timetrack-invoicing-backend/internal/services/invoicing"
	"timetrack-invoicing-backend/internal/services/tracking"
	"timetrack-invoicing-backend/internal/wire"
)

const userIDKey = "user_id"

// AuthRequired rejects requests without a valid bearer token and stores
// the user id in the context.
func AuthRequired(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		userID, err := authService.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUser(c *gin.Context) uuid.UUID {
	id, _ := c.Get(userIDKey)
	userID, _ := id.(uuid.UUID)
	return userID
}

// idParam reads a uuid path parameter, ignoring a trailing ".json".
func idParam(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := strings.TrimSuffix(c.Param(name), ".json")
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// parseDay accepts a date or an RFC 3339 timestamp.
func parseDay(value string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

var unprocessable = []error{
	invoicing.ErrInvoiceFinalized,
	invoicing.ErrUnknownTrack,
	invoicing.ErrUnknownEntry,
	invoicing.ErrUnknownClient,
	invoicing.ErrInvalidEntry,
	invoicing.ErrInvalidPeriod,
	invoicing.ErrNoRecipient,
	tracking.ErrInvalidTrack,
	tracking.ErrStopWatchPaused,
	tracking.ErrStopWatchRunning,
	tracking.ErrStopWatchDone,
	auth.ErrEmailTaken,
	auth.ErrInvalidSignup,
}

var forbidden = []error{
	invoicing.ErrNotOwner,
	invoicing.ErrNotMember,
	tracking.ErrNoContract,
	tracking.ErrRatesForbidden,
}

// respondError maps service errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	case errors.Is(err, wire.ErrMalformedForm):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	for _, target := range forbidden {
		if errors.Is(err, target) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
	}
	for _, target := range unprocessable {
		if errors.Is(err, target) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
	}

	log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
