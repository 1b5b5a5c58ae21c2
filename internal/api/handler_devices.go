package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispenser-monitor/internal/model"
	"dispenser-monitor/internal/parse"
	"dispenser-monitor/internal/store"
)

type createDeviceRequest struct {
	Name           string   `json:"name" binding:"required,max=100"`
	Location       string   `json:"location" binding:"required,max=200"`
	Serial         string   `json:"serial" binding:"required,max=50"`
	Category       string   `json:"category" binding:"required,max=50"`
	FillLevel      *float64 `json:"fill_level" binding:"omitempty,gte=0,lte=100"`
	CapacityLiters *float64 `json:"capacity_liters" binding:"omitempty,gte=0"`
	Status         string   `json:"status"`
	Temperature    *float64 `json:"temperature"`
	Humidity       *float64 `json:"humidity"`
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func deviceMaps(devices []model.Device) []map[string]any {
	out := make([]map[string]any, len(devices))
	for i := range devices {
		out[i] = devices[i].ToMap()
	}
	return out
}

// pathID parses the :id path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context) (int64, bool) {
	id, err := parse.ID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return 0, false
	}
	return id, true
}

// ListDevices handles GET /api/devices?active=&status=.
func (h *Handler) ListDevices(c *gin.Context) {
	var f store.DeviceFilter
	active, err := parse.Bool(c.Query("active"))
	if err != nil {
		badRequest(c, err)
		return
	}
	f.ActiveOnly = active != nil && *active
	if raw := c.Query("status"); raw != "" {
		if f.Status, err = model.ParseDeviceStatus(raw); err != nil {
			writeError(c, err)
			return
		}
	}

	devices, err := h.store.ListDevices(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, deviceMaps(devices))
}

// CreateDevice handles POST /api/devices.
func (h *Handler) CreateDevice(c *gin.Context) {
	var req createDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	in := store.DeviceInput{
		Name:           req.Name,
		Location:       req.Location,
		Serial:         req.Serial,
		Category:       req.Category,
		FillLevel:      req.FillLevel,
		CapacityLiters: req.CapacityLiters,
		Temperature:    req.Temperature,
		Humidity:       req.Humidity,
	}
	if req.Status != "" {
		status, err := model.ParseDeviceStatus(req.Status)
		if err != nil {
			writeError(c, err)
			return
		}
		in.Status = &status
	}

	device, err := h.store.CreateDevice(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, device.ToMap())
}

// GetDevice handles GET /api/devices/:id.
func (h *Handler) GetDevice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	device, err := h.store.GetDevice(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, device.ToMap())
}

// SetDeviceStatus handles PUT /api/devices/:id/status.
func (h *Handler) SetDeviceStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	status, err := model.ParseDeviceStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	device, err := h.store.SetDeviceStatus(c.Request.Context(), id, status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, device.ToMap())
}

// DeactivateDevice handles POST /api/devices/:id/deactivate.
func (h *Handler) DeactivateDevice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	device, err := h.store.DeactivateDevice(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, device.ToMap())
}

// DeleteDevice handles DELETE /api/devices/:id.
func (h *Handler) DeleteDevice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteDevice(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
