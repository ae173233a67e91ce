package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"hospital-iot-backend/internal/logs"
	"hospital-iot-backend/internal/mw"
)

// RouterOptions tunes the presentation middleware.
type RouterOptions struct {
	RateLimitPerSec float64
	RateBurst       int
	CacheTTL        time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger(logs.Logger))

	// Cache for presentation reads; every successful mutation flushes it.
	responses := mw.NewResponseCache(opts.CacheTTL)
	caching := responses.Cache()
	invalidate := responses.Invalidate()

	r.GET("/", h.GetRoot)
	r.GET("/healthz", h.GetHealth)

	v1 := r.Group("/api/v1")
	v1.Use(invalidate)

	// Devices are never throttled.
	v1.POST("/checkin", h.PostCheckin)

	presentation := v1.Group("")
	if opts.RateLimitPerSec > 0 {
		presentation.Use(mw.RateLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateBurst))
	}
	{
		presentation.GET("/devices", caching, h.GetDevices)
		presentation.GET("/devices/:device_id", caching, h.GetDevice)
		presentation.GET("/devices/:device_id/history", caching, h.GetDeviceHistory)

		presentation.GET("/tickets", caching, h.GetTickets)
		presentation.GET("/tickets/:ticket_id", caching, h.GetTicket)
		presentation.PUT("/tickets/:ticket_id/assignee", h.PutAssignee)
		presentation.POST("/tickets/:ticket_id/notes", h.PostNote)

		presentation.GET("/summary", caching, h.GetSummary)
	}

	return r
}
