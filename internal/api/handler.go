package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hospital-iot-backend/internal/checkin"
	"hospital-iot-backend/internal/logs"
	"hospital-iot-backend/internal/store"
	"hospital-iot-backend/internal/ticket"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	checkin *checkin.Service
	tickets *ticket.Engine
	loc     *time.Location
	now     func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, svc *checkin.Service, engine *ticket.Engine, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		store:   s,
		checkin: svc,
		tickets: engine,
		loc:     loc,
		now:     time.Now,
	}
}

// writeError maps a domain error to its HTTP response.
func writeError(c *gin.Context, err error) {
	var se *store.StorageError
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &se):
		logs.Logger.WithField("op", se.Op).Errorf("storage failure: %v", se.Err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":     "storage temporarily unavailable, please retry",
			"retryable": true,
		})
	default:
		logs.Logger.Errorf("unexpected error: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// writeDegraded answers a failed collection read with an empty result.
// The response is marked no-store so the cache does not keep it.
func writeDegraded(c *gin.Context, op string, err error, empty any) {
	logs.Logger.WithFields(logrus.Fields{
		"op":   op,
		"path": c.Request.URL.Path,
	}).Warnf("read failed, serving empty result: %v", err)
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, empty)
}
