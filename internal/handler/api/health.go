package api

import (
	"time"

	"github.com/labstack/echo/v4"

	xhttp "NepsePulse/pkg/http"
)

// HealthHandler reports process liveness and cache occupancy.
type HealthHandler struct {
	started      time.Time
	cacheEntries func() int
}

func NewHealthHandler(cacheEntries func() int) *HealthHandler {
	return &HealthHandler{started: time.Now(), cacheEntries: cacheEntries}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

type healthStatus struct {
	Status       string `json:"status"`
	UptimeSec    int64  `json:"uptime_sec"`
	CacheEntries int    `json:"cache_entries"`
}

func (h *HealthHandler) Health(c echo.Context) error {
	entries := 0
	if h.cacheEntries != nil {
		entries = h.cacheEntries()
	}
	return xhttp.SuccessResponse(c, healthStatus{
		Status:       "ok",
		UptimeSec:    int64(time.Since(h.started).Seconds()),
		CacheEntries: entries,
	})
}
