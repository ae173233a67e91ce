package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hospital-iot-backend/internal/model"
)

type assignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

type noteRequest struct {
	Text string `json:"text" binding:"required"`
}

// GetTickets handles GET /api/v1/tickets?active=true|false.
func (h *Handler) GetTickets(c *gin.Context) {
	activeOnly := true
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "active must be true or false"})
			return
		}
		activeOnly = v
	}

	tickets, err := h.tickets.List(c.Request.Context(), activeOnly)
	if err != nil {
		writeDegraded(c, "list tickets", err, []model.Ticket{})
		return
	}
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	c.JSON(http.StatusOK, tickets)
}

// GetTicket handles GET /api/v1/tickets/{ticket_id}.
func (h *Handler) GetTicket(c *gin.Context) {
	t, err := h.tickets.Get(c.Request.Context(), c.Param("ticket_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// PutAssignee handles PUT /api/v1/tickets/{ticket_id}/assignee.
func (h *Handler) PutAssignee(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	t, err := h.tickets.Assign(c.Request.Context(), c.Param("ticket_id"), req.AssignedTo)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// PostNote handles POST /api/v1/tickets/{ticket_id}/notes.
func (h *Handler) PostNote(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	t, err := h.tickets.AppendNote(c.Request.Context(), c.Param("ticket_id"), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
