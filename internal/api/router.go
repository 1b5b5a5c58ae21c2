package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"dispenser-monitor/config"
	"dispenser-monitor/internal/mw"
	"dispenser-monitor/internal/web"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger())

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	r.GET("/", caching, h.Index)
	r.GET("/paneles", caching, h.Panels)
	for _, p := range h.panels {
		r.GET("/panel/"+p.Slug, caching, h.PanelPage(p.Slug))
	}
	r.GET("/acerca-de", caching, h.About)

	limit := rate.Inf
	if cfg.RateLimitPerSec > 0 {
		limit = rate.Limit(cfg.RateLimitPerSec)
	}

	api := r.Group("/api")
	api.Use(mw.RateLimiter(limit, cfg.RateLimitBurst), mw.Invalidate(cacheStore))
	{
		api.GET("/status", h.GetStatus)
		api.GET("/stats", caching, h.GetStats)

		api.GET("/devices", h.ListDevices)
		api.POST("/devices", h.CreateDevice)
		api.GET("/devices/:id", h.GetDevice)
		api.DELETE("/devices/:id", h.DeleteDevice)
		api.PUT("/devices/:id/status", h.SetDeviceStatus)
		api.POST("/devices/:id/deactivate", h.DeactivateDevice)
		api.GET("/devices/:id/readings", h.ListReadings)
		api.POST("/devices/:id/readings", h.RecordReading)
		api.GET("/devices/:id/alerts", h.ListDeviceAlerts)
		api.POST("/devices/:id/alerts", h.RaiseAlert)
		api.GET("/devices/:id/maintenance", h.ListMaintenance)
		api.POST("/devices/:id/maintenance", h.OpenMaintenance)

		api.GET("/alerts", h.ListAlerts)
		api.POST("/alerts/:id/resolve", h.ResolveAlert)
		api.POST("/maintenance/:id/close", h.CloseMaintenance)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r, nil
}
