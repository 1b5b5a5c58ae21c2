package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"dispenser-monitor/internal/model"
)

// GetStatus handles GET /api/status.
func (h *Handler) GetStatus(c *gin.Context) {
	now := model.Now().Format(model.TimestampLayout)
	if err := h.store.Ping(c.Request.Context()); err != nil {
		log.Warn().Err(err).Msg("database ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable", "time": now})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok", "time": now})
}

// GetStats handles GET /api/stats.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
