package ingest

import (
	"context"
	"fmt"
	"time"

	"dispenser-monitor/internal/model"
	"dispenser-monitor/internal/parse"
	"dispenser-monitor/internal/store"
)

// GatewayResponse models the top-level structure of the gateway's response.
type GatewayResponse struct {
	Code int `json:"code"`
	Data struct {
		Page     int      `json:"page"`
		PageSize int      `json:"pageSize"`
		Total    int      `json:"total"`
		Items    []Sample `json:"items"`
	} `json:"data"`
}

// Sample is one sensor measurement as reported by the gateway or published over MQTT.
type Sample struct {
	Serial        string   `json:"serial"`
	FillLevel     *float64 `json:"fill_level"`
	Temperature   *float64 `json:"temperature"`
	Humidity      *float64 `json:"humidity"`
	Pressure      *float64 `json:"pressure"`
	WaterConsumed *float64 `json:"water_consumed"`
	ObservedAt    string   `json:"observed_at"`
}

// Input converts the sample into a reading. observed_at is read in loc when it
// carries no offset; a missing observed_at means "now".
func (s Sample) Input(loc *time.Location) (store.ReadingInput, error) {
	if s.Serial == "" {
		return store.ReadingInput{}, fmt.Errorf("%w: sample serial", model.ErrRequired)
	}
	ts, err := parse.Timestamp(s.ObservedAt, loc)
	if err != nil {
		return store.ReadingInput{}, err
	}
	return store.ReadingInput{
		FillLevel:     s.FillLevel,
		Temperature:   s.Temperature,
		Humidity:      s.Humidity,
		Pressure:      s.Pressure,
		WaterConsumed: s.WaterConsumed,
		Timestamp:     ts,
	}, nil
}

// Sink persists ingested samples.
type Sink interface {
	IngestReading(ctx context.Context, serial string, in store.ReadingInput) (*model.Reading, error)
}
