package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"dispenser-monitor/config"
	"dispenser-monitor/internal/store"
)

// Subscriber records samples pushed by devices to an MQTT topic, one JSON
// Sample per message.
type Subscriber struct {
	cfg  config.MQTTConfig
	sink Sink
	loc  *time.Location
}

// NewSubscriber creates a subscriber. Bare observed_at values are read in loc.
func NewSubscriber(cfg config.MQTTConfig, loc *time.Location, sink Sink) *Subscriber {
	if cfg.ClientID == "" {
		cfg.ClientID = "dispenserd-" + uuid.NewString()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Subscriber{cfg: cfg, sink: sink, loc: loc}
}

// ClientID returns the MQTT client identifier in use.
func (s *Subscriber) ClientID() string { return s.cfg.ClientID }

// Run connects to the broker and consumes messages until ctx is cancelled.
// The subscription is renewed on every reconnect.
func (s *Subscriber) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.Broker).
		SetClientID(s.cfg.ClientID).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(time.Minute)
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
		opts.SetPassword(s.cfg.Password)
	}

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		if err := s.HandleMessage(ctx, msg.Payload()); err != nil {
			log.Error().Err(err).Str("topic", msg.Topic()).Msg("mqtt ingest failed")
		}
	}
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		if token := c.Subscribe(s.cfg.Topic, s.cfg.QoS, handler); token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Str("topic", s.cfg.Topic).Msg("mqtt subscribe failed")
			return
		}
		log.Info().Str("topic", s.cfg.Topic).Str("client_id", s.cfg.ClientID).Msg("mqtt subscribed")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}

	<-ctx.Done()
	client.Disconnect(250)
	log.Info().Msg("mqtt ingestion shutting down")
	return nil
}

// HandleMessage decodes and records one sample. Samples for unregistered
// devices are dropped without error.
func (s *Subscriber) HandleMessage(ctx context.Context, payload []byte) error {
	var sample Sample
	if err := json.Unmarshal(payload, &sample); err != nil {
		return fmt.Errorf("failed to decode sample: %w", err)
	}
	in, err := sample.Input(s.loc)
	if err != nil {
		return err
	}
	if _, err := s.sink.IngestReading(ctx, sample.Serial, in); err != nil {
		if errors.Is(err, store.ErrDeviceNotFound) {
			log.Warn().Str("serial", sample.Serial).Msg("dropping sample for unregistered device")
			return nil
		}
		return err
	}
	return nil
}
