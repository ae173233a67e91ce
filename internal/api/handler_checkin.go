package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hospital-iot-backend/internal/checkin"
	"hospital-iot-backend/internal/logs"
	"hospital-iot-backend/internal/store"
)

type checkinRequest struct {
	DeviceID string `json:"device_id"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

type checkinResponse struct {
	Success       bool   `json:"success"`
	Device        string `json:"device"`
	LocalTime     string `json:"local_time"`
	TicketCreated string `json:"ticket_created,omitempty"`
}

// PostCheckin handles POST /api/v1/checkin.
func (h *Handler) PostCheckin(c *gin.Context) {
	var req checkinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.checkin.Checkin(c.Request.Context(), checkin.Input{
		DeviceID: req.DeviceID,
		Status:   req.Status,
		Message:  req.Message,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logs.Logger.WithField("device_id", req.DeviceID).Errorf("check-in failed: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to record check-in"})
		return
	}

	c.JSON(http.StatusOK, checkinResponse{
		Success:       true,
		Device:        res.DeviceID,
		LocalTime:     res.LocalTime,
		TicketCreated: res.TicketID,
	})
}
