package model

import "time"

// MaintenanceRecord logs service performed on a device. It is open while EndedAt is nil.
type MaintenanceRecord struct {
	ID           int64     `gorm:"primaryKey"`
	DeviceID     int64     `gorm:"not null;index"`
	Type         string    `gorm:"size:50;not null"` // cleaning, repair, upgrade, ...
	Description  string    `gorm:"size:500"`
	Responsible  string    `gorm:"size:100"`
	StartedAt    time.Time `gorm:"not null"`
	EndedAt      *time.Time
	Cost         float64 `gorm:"not null;check:chk_maintenance_records_cost,cost >= 0"`
	Observations string  `gorm:"type:text"`

	// Associations
	Device *Device `gorm:"constraint:OnDelete:RESTRICT"`
}

// Open reports whether the record has not been closed yet.
func (m *MaintenanceRecord) Open() bool { return m.EndedAt == nil }

// ToMap returns the transport representation of the record.
func (m *MaintenanceRecord) ToMap() map[string]any {
	return map[string]any{
		"id":           m.ID,
		"device_id":    m.DeviceID,
		"type":         m.Type,
		"description":  m.Description,
		"responsible":  m.Responsible,
		"started_at":   formatTime(m.StartedAt),
		"ended_at":     formatOptionalTime(m.EndedAt),
		"cost":         m.Cost,
		"observations": m.Observations,
	}
}
