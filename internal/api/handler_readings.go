package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dispenser-monitor/internal/model"
	"dispenser-monitor/internal/parse"
	"dispenser-monitor/internal/store"
)

type readingRequest struct {
	FillLevel     *float64   `json:"fill_level" binding:"omitempty,gte=0,lte=100"`
	Temperature   *float64   `json:"temperature"`
	Humidity      *float64   `json:"humidity"`
	Pressure      *float64   `json:"pressure"`
	WaterConsumed *float64   `json:"water_consumed"`
	Timestamp     *time.Time `json:"timestamp"`
}

// ListReadings handles GET /api/devices/:id/readings?hours=&limit=.
// Readings from the last `hours` hours (default 24) are returned oldest first.
func (h *Handler) ListReadings(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	window, err := parse.Hours(c.Query("hours"))
	if err != nil {
		badRequest(c, err)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			badRequest(c, errInvalidQuery("limit", raw))
			return
		}
	}

	readings, err := h.store.ListReadings(c.Request.Context(), id, model.Now().Add(-window), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]map[string]any, len(readings))
	for i := range readings {
		out[i] = readings[i].ToMap()
	}
	c.JSON(http.StatusOK, out)
}

// RecordReading handles POST /api/devices/:id/readings.
func (h *Handler) RecordReading(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req readingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	reading, err := h.store.RecordReading(c.Request.Context(), id, store.ReadingInput{
		FillLevel:     req.FillLevel,
		Temperature:   req.Temperature,
		Humidity:      req.Humidity,
		Pressure:      req.Pressure,
		WaterConsumed: req.WaterConsumed,
		Timestamp:     req.Timestamp,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reading.ToMap())
}
