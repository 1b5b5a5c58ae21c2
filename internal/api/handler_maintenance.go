package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"dispenser-monitor/internal/store"
)

type openMaintenanceRequest struct {
	Type        string `json:"type" binding:"required,max=50"`
	Description string `json:"description" binding:"max=500"`
	Responsible string `json:"responsible" binding:"max=100"`
}

type closeMaintenanceRequest struct {
	Cost         float64 `json:"cost" binding:"gte=0"`
	Observations string  `json:"observations"`
}

// ListMaintenance handles GET /api/devices/:id/maintenance.
func (h *Handler) ListMaintenance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	records, err := h.store.ListMaintenance(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]map[string]any, len(records))
	for i := range records {
		out[i] = records[i].ToMap()
	}
	c.JSON(http.StatusOK, out)
}

// OpenMaintenance handles POST /api/devices/:id/maintenance.
func (h *Handler) OpenMaintenance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req openMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	record, err := h.store.OpenMaintenance(c.Request.Context(), id, store.MaintenanceInput{
		Type:        req.Type,
		Description: req.Description,
		Responsible: req.Responsible,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record.ToMap())
}

// CloseMaintenance handles POST /api/maintenance/:id/close. The body is optional.
func (h *Handler) CloseMaintenance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req closeMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	record, err := h.store.CloseMaintenance(c.Request.Context(), id, req.Cost, req.Observations)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record.ToMap())
}
