package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"equipment-maintenance-backend/internal/lifecycle"
	"equipment-maintenance-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	svc     *lifecycle.Service
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, svc *lifecycle.Service, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		svc:     svc,
		webpush: webpushOptions,
	}
}

// abortForError maps domain errors onto HTTP statuses.
func abortForError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, lifecycle.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	case errors.Is(err, lifecycle.ErrInvalidStatus):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrNotCompleted):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
