package model

import "time"

// Reading is one timestamped sensor sample. Readings are append-only.
type Reading struct {
	ID            int64 `gorm:"primaryKey"`
	DeviceID      int64 `gorm:"not null;index:idx_readings_device_timestamp,priority:1"`
	FillLevel     *float64
	Temperature   *float64
	Humidity      *float64
	Pressure      *float64
	WaterConsumed *float64  // liters
	Timestamp     time.Time `gorm:"not null;index;index:idx_readings_device_timestamp,priority:2"`

	// Associations
	Device *Device `gorm:"constraint:OnDelete:CASCADE"`
}

// ToMap returns the transport representation of the reading.
func (r *Reading) ToMap() map[string]any {
	return map[string]any{
		"id":             r.ID,
		"device_id":      r.DeviceID,
		"fill_level":     optionalFloat(r.FillLevel),
		"temperature":    optionalFloat(r.Temperature),
		"humidity":       optionalFloat(r.Humidity),
		"pressure":       optionalFloat(r.Pressure),
		"water_consumed": optionalFloat(r.WaterConsumed),
		"timestamp":      formatTime(r.Timestamp),
	}
}
