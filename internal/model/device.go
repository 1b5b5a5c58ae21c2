package model

import (
	"fmt"
	"time"
)

// Default values applied by NewDevice.
const (
	DefaultCapacityLiters = 20
	DefaultTemperature    = 20
	DefaultHumidity       = 50
)

// Device represents a physical dispensing unit. Readings and alerts are owned
// (ON DELETE CASCADE); maintenance records only reference it (ON DELETE RESTRICT).
type Device struct {
	ID                int64        `gorm:"primaryKey"`
	Name              string       `gorm:"size:100;not null"`
	Location          string       `gorm:"size:200;not null"`
	Serial            string       `gorm:"uniqueIndex;size:50;not null"`
	Category          string       `gorm:"size:50;not null"`
	FillLevel         float64      `gorm:"not null;check:chk_devices_fill_level,fill_level >= 0 AND fill_level <= 100"`
	CapacityLiters    float64      `gorm:"not null;check:chk_devices_capacity,capacity_liters >= 0"`
	Status            DeviceStatus `gorm:"size:20;not null;index"`
	Temperature       float64      `gorm:"not null"`
	Humidity          float64      `gorm:"not null"`
	InstalledAt       time.Time    `gorm:"not null"`
	LastMaintenanceAt *time.Time
	Active            bool `gorm:"not null;index"`
}

// NewDevice builds an active device with the documented defaults. InstalledAt is captured now.
func NewDevice(name, location, serial, category string) Device {
	return Device{
		Name:           name,
		Location:       location,
		Serial:         serial,
		Category:       category,
		CapacityLiters: DefaultCapacityLiters,
		Status:         StatusActive,
		Temperature:    DefaultTemperature,
		Humidity:       DefaultHumidity,
		InstalledAt:    Now(),
		Active:         true,
	}
}

// Validate checks the closed status set and the numeric ranges.
func (d *Device) Validate() error {
	if d.Serial == "" {
		return fmt.Errorf("%w: serial", ErrRequired)
	}
	if !d.Status.Valid() {
		return fmt.Errorf("%w: device status %q", ErrInvalidState, string(d.Status))
	}
	if err := ValidateFillLevel(d.FillLevel); err != nil {
		return err
	}
	if d.CapacityLiters < 0 {
		return fmt.Errorf("%w: capacity_liters %v is negative", ErrOutOfRange, d.CapacityLiters)
	}
	return nil
}

// ValidateFillLevel rejects percentages outside [0,100].
func ValidateFillLevel(v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: fill_level %v not in [0,100]", ErrOutOfRange, v)
	}
	return nil
}

// ToMap returns the transport representation of the device.
func (d *Device) ToMap() map[string]any {
	return map[string]any{
		"id":                  d.ID,
		"name":                d.Name,
		"location":            d.Location,
		"serial":              d.Serial,
		"category":            d.Category,
		"fill_level":          d.FillLevel,
		"capacity_liters":     d.CapacityLiters,
		"status":              string(d.Status),
		"temperature":         d.Temperature,
		"humidity":            d.Humidity,
		"installed_at":        formatTime(d.InstalledAt),
		"last_maintenance_at": formatOptionalTime(d.LastMaintenanceAt),
		"active":              d.Active,
	}
}
