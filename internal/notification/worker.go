package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog/log"

	"dispenser-monitor/internal/model"
	"dispenser-monitor/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Source is the slice of the store the workers read from.
type Source interface {
	GetAlert(ctx context.Context, id int64) (*model.Alert, error)
	GetDevice(ctx context.Context, id int64) (*model.Device, error)
	SubscriptionsForDevice(ctx context.Context, deviceID int64) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Payload is the JSON document delivered to the browser.
type Payload struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Alert map[string]any `json:"alert"`
}

// WorkerPool delivers push notifications for raised alerts.
type WorkerPool struct {
	size    int
	jobs    chan int64
	src     Source
	webpush *webpush.Options
	sender  NotificationSender
	wg      sync.WaitGroup
}

// NewWorkerPool creates a pool of size workers reading from a queue of queueSize alert IDs.
func NewWorkerPool(size, queueSize int, src Source, webpushOptions *webpush.Options) *WorkerPool {
	if size < 1 {
		size = 1
	}
	if queueSize < size {
		queueSize = size
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, queueSize),
		src:     src,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines. They exit when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log.Debug().Int("worker", id).Msg("notification worker started")
	for {
		select {
		case alertID := <-wp.jobs:
			wp.notifyAlert(ctx, alertID)
		case <-ctx.Done():
			log.Debug().Int("worker", id).Msg("notification worker shutting down")
			return
		}
	}
}

// Dispatch queues an alert for delivery. It never blocks: when the queue is
// full the alert is dropped and false is returned.
func (wp *WorkerPool) Dispatch(alertID int64) bool {
	select {
	case wp.jobs <- alertID:
		return true
	default:
		log.Warn().Int64("alert_id", alertID).Msg("notification queue full; dropping alert")
		return false
	}
}

func (wp *WorkerPool) notifyAlert(ctx context.Context, alertID int64) {
	logger := log.With().Int64("alert_id", alertID).Logger()

	alert, err := wp.src.GetAlert(ctx, alertID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load alert")
		return
	}
	subs, err := wp.src.SubscriptionsForDevice(ctx, alert.DeviceID)
	if err != nil {
		logger.Error().Err(err).Int64("device_id", alert.DeviceID).Msg("failed to fetch subscriptions")
		return
	}
	if len(subs) == 0 {
		return
	}

	deviceLabel := fmt.Sprintf("#%d", alert.DeviceID)
	if device, err := wp.src.GetDevice(ctx, alert.DeviceID); err != nil {
		logger.Warn().Err(err).Msg("failed to load device; using its id")
	} else if device.Name != "" {
		deviceLabel = device.Name
	}

	payload, err := json.Marshal(Payload{
		Title: fmt.Sprintf("%s: %s", deviceLabel, alert.Type),
		Body:  alert.Description,
		Alert: alert.ToMap(),
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode notification")
		return
	}

	logger.Info().Int("subscriptions", len(subs)).Msg("sending alert notifications")
	for _, sub := range subs {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to send notification")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Info().Str("endpoint", sub.Endpoint).Msg("subscription expired; deleting")
		if err := wp.src.DeleteSubscription(ctx, sub.Endpoint); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to delete expired subscription")
		}
	}
}
