package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Panel is one embedded report page of the dashboard.
type Panel struct {
	Slug     string
	Title    string
	Summary  string
	EmbedURL string
}

var panelCatalog = []Panel{
	{Slug: "Resumen", Title: "Resumen", Summary: "Estado general de las dispensadoras."},
	{Slug: "Analisis", Title: "Análisis", Summary: "Niveles de llenado y consumo por ubicación."},
	{Slug: "Temporal", Title: "Temporal", Summary: "Evolución de las lecturas en el tiempo."},
	{Slug: "reportes", Title: "Reportes", Summary: "Alertas y mantenimientos registrados."},
}

// buildPanels attaches the configured embed URLs to the panel catalog.
func buildPanels(embedURLs map[string]string) []Panel {
	panels := make([]Panel, len(panelCatalog))
	copy(panels, panelCatalog)
	for i := range panels {
		panels[i].EmbedURL = embedURLs[panels[i].Slug]
	}
	return panels
}

// Index renders the landing page with the current dashboard counters. The
// counters render as "-" when the store cannot be read.
func (h *Handler) Index(c *gin.Context) {
	data := gin.H{"Title": "Inicio"}
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load dashboard counters")
		c.Header("Cache-Control", "no-store")
	} else {
		data["Stats"] = stats
	}
	c.HTML(http.StatusOK, "inicio.html", data)
}

// Panels renders the list of report panels.
func (h *Handler) Panels(c *gin.Context) {
	c.HTML(http.StatusOK, "paneles.html", gin.H{"Title": "Paneles", "Panels": h.panels})
}

// PanelPage returns the handler rendering the panel with the given slug.
func (h *Handler) PanelPage(slug string) gin.HandlerFunc {
	var panel Panel
	for _, p := range h.panels {
		if p.Slug == slug {
			panel = p
		}
	}
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "panel.html", gin.H{"Title": panel.Title, "Panel": panel})
	}
}

// About renders the about page.
func (h *Handler) About(c *gin.Context) {
	c.HTML(http.StatusOK, "acerca_de.html", gin.H{"Title": "Acerca de"})
}
