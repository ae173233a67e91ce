package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hospital-iot-backend/internal/checkin"
	"hospital-iot-backend/internal/parse"
)

type summaryResponse struct {
	TotalDevices  int            `json:"total_devices"`
	ByStatus      map[string]int `json:"by_status"`
	ByCategory    map[string]int `json:"by_category"`
	ActiveTickets int64          `json:"active_tickets"`
}

// GetSummary handles GET /api/v1/summary.
func (h *Handler) GetSummary(c *gin.Context) {
	ctx := c.Request.Context()
	empty := summaryResponse{ByStatus: map[string]int{}, ByCategory: map[string]int{}}

	devices, err := h.store.ListDevices(ctx)
	if err != nil {
		writeDegraded(c, "summary devices", err, empty)
		return
	}
	active, err := h.store.CountActiveTickets(ctx)
	if err != nil {
		writeDegraded(c, "summary tickets", err, empty)
		return
	}

	resp := empty
	resp.TotalDevices = len(devices)
	resp.ActiveTickets = active
	for _, d := range devices {
		resp.ByStatus[d.Status]++
		resp.ByCategory[parse.Categorize(d.DeviceID)]++
	}
	c.JSON(http.StatusOK, resp)
}

// GetRoot handles GET /.
func (h *Handler) GetRoot(c *gin.Context) {
	c.String(http.StatusOK, "IT Support API Server running on local time: %s",
		h.now().In(h.loc).Format(checkin.LocalTimeLayout))
}

// GetHealth handles GET /healthz.
func (h *Handler) GetHealth(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
