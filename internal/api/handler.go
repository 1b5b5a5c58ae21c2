package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"dispenser-monitor/internal/store"
)

// Notifier queues push notifications for a raised alert.
type Notifier interface {
	Dispatch(alertID int64) bool
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	notifier Notifier
	webpush  *webpush.Options
	panels   []Panel
}

// NewHandler creates a new API handler. notifier may be nil when push is disabled.
func NewHandler(s store.Store, notifier Notifier, webpushOptions *webpush.Options, embedURLs map[string]string) *Handler {
	return &Handler{
		store:    s,
		notifier: notifier,
		webpush:  webpushOptions,
		panels:   buildPanels(embedURLs),
	}
}
