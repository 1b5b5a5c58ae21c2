package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dispenser-monitor/internal/model"
	"dispenser-monitor/internal/parse"
	"dispenser-monitor/internal/store"
)

type raiseAlertRequest struct {
	Type        string `json:"type" binding:"required,max=50"`
	Description string `json:"description" binding:"max=500"`
	Severity    string `json:"severity"`
}

func errInvalidQuery(key, raw string) error {
	return fmt.Errorf("invalid %s %q", key, raw)
}

func alertMaps(alerts []model.Alert) []map[string]any {
	out := make([]map[string]any, len(alerts))
	for i := range alerts {
		out[i] = alerts[i].ToMap()
	}
	return out
}

// alertFilter reads the resolved and limit query parameters.
func alertFilter(c *gin.Context) (store.AlertFilter, error) {
	var f store.AlertFilter
	resolved, err := parse.Bool(c.Query("resolved"))
	if err != nil {
		return f, err
	}
	f.Resolved = resolved
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, errInvalidQuery("limit", raw)
		}
		f.Limit = n
	}
	return f, nil
}

// ListAlerts handles GET /api/alerts?resolved=&limit=.
func (h *Handler) ListAlerts(c *gin.Context) {
	f, err := alertFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	alerts, err := h.store.ListAlerts(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alertMaps(alerts))
}

// ListDeviceAlerts handles GET /api/devices/:id/alerts?resolved=.
func (h *Handler) ListDeviceAlerts(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	f, err := alertFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	f.DeviceID = id

	alerts, err := h.store.ListAlerts(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alertMaps(alerts))
}

// RaiseAlert handles POST /api/devices/:id/alerts and queues push notifications.
func (h *Handler) RaiseAlert(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req raiseAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	alert, err := h.store.RaiseAlert(c.Request.Context(), id, store.AlertInput{
		Type:        req.Type,
		Description: req.Description,
		Severity:    req.Severity,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if h.notifier != nil {
		h.notifier.Dispatch(alert.ID)
	}
	c.JSON(http.StatusCreated, alert.ToMap())
}

// ResolveAlert handles POST /api/alerts/:id/resolve.
func (h *Handler) ResolveAlert(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	alert, err := h.store.ResolveAlert(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert.ToMap())
}
