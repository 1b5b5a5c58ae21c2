package store

import (
	"errors"
	"time"

	"dispenser-monitor/internal/model"
)

var (
	// ErrDuplicateSerial is returned when a device serial is already registered.
	ErrDuplicateSerial = errors.New("device serial already exists")
	// ErrDeviceNotFound is returned when a record references a device that does not exist.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrNotFound is returned when an alert or maintenance record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyResolved is returned when resolving an alert twice.
	ErrAlreadyResolved = errors.New("alert already resolved")
	// ErrAlreadyClosed is returned when closing a maintenance record twice.
	ErrAlreadyClosed = errors.New("maintenance record already closed")
	// ErrDeviceHasMaintenance is returned when deleting a device that maintenance records still reference.
	ErrDeviceHasMaintenance = errors.New("device is referenced by maintenance records")
)

// DeviceInput carries the attributes of a device registration.
// Nil pointers take the model defaults.
type DeviceInput struct {
	Name           string
	Location       string
	Serial         string
	Category       string
	FillLevel      *float64
	CapacityLiters *float64
	Status         *model.DeviceStatus
	Temperature    *float64
	Humidity       *float64
}

// DeviceFilter narrows ListDevices.
type DeviceFilter struct {
	ActiveOnly bool
	Status     model.DeviceStatus
}

// ReadingInput carries one sensor sample. A nil Timestamp means "now".
type ReadingInput struct {
	FillLevel     *float64
	Temperature   *float64
	Humidity      *float64
	Pressure      *float64
	WaterConsumed *float64
	Timestamp     *time.Time
}

// AlertInput carries a new alert. An empty Severity means medium.
type AlertInput struct {
	Type        string
	Description string
	Severity    string
}

// AlertFilter narrows ListAlerts. Zero values match everything.
type AlertFilter struct {
	Resolved *bool
	DeviceID int64
	Limit    int
}

// MaintenanceInput carries a maintenance record being opened.
type MaintenanceInput struct {
	Type        string
	Description string
	Responsible string
}

// Stats holds the dashboard counters.
type Stats struct {
	TotalDevices    int64 `json:"total_devices"`
	ActiveDevices   int64 `json:"active_devices"`
	PendingAlerts   int64 `json:"pending_alerts"`
	OpenMaintenance int64 `json:"open_maintenance"`
}
