package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hospital-iot-backend/internal/model"
	"hospital-iot-backend/internal/parse"
	"hospital-iot-backend/internal/store"
)

// deviceResponse is a registry entry plus what its id tells about it.
type deviceResponse struct {
	model.Device
	Category string `json:"category"`
	Kind     string `json:"kind"`
	Number   int    `json:"number,omitempty"`
	Location string `json:"location,omitempty"`
}

func newDeviceResponse(d model.Device) deviceResponse {
	resp := deviceResponse{Device: d, Category: parse.Categorize(d.DeviceID)}
	if p, err := parse.ParseDeviceID(d.DeviceID); err == nil {
		resp.Kind = p.Kind
		resp.Number = p.Number
		resp.Location = p.Location
	}
	return resp
}

// GetDevices handles GET /api/v1/devices.
func (h *Handler) GetDevices(c *gin.Context) {
	devices, err := h.store.ListDevices(c.Request.Context())
	if err != nil {
		writeDegraded(c, "list devices", err, []deviceResponse{})
		return
	}

	response := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		response = append(response, newDeviceResponse(d))
	}
	c.JSON(http.StatusOK, response)
}

// GetDevice handles GET /api/v1/devices/{device_id}.
func (h *Handler) GetDevice(c *gin.Context) {
	d, err := h.store.GetDevice(c.Request.Context(), c.Param("device_id"))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			err = &store.StorageError{Op: "get device", Err: err}
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDeviceResponse(*d))
}

// GetDeviceHistory handles GET /api/v1/devices/{device_id}/history.
func (h *Handler) GetDeviceHistory(c *gin.Context) {
	limit := store.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > store.MaxHistoryLimit {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "limit must be an integer between 1 and " + strconv.Itoa(store.MaxHistoryLimit),
			})
			return
		}
		limit = n
	}

	records, err := h.store.History(c.Request.Context(), c.Param("device_id"), limit)
	if err != nil {
		writeDegraded(c, "device history", err, []model.HistoryRecord{})
		return
	}
	if records == nil {
		records = []model.HistoryRecord{}
	}
	c.JSON(http.StatusOK, records)
}
