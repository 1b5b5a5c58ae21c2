package model

import "time"

// Alert is a notification about an abnormal device condition.
// Resolved is true exactly when ResolvedAt is set.
type Alert struct {
	ID          int64      `gorm:"primaryKey"`
	DeviceID    int64      `gorm:"not null;index"`
	Type        string     `gorm:"size:50;not null"` // low_level, high_temperature, sensor_failure, ...
	Description string     `gorm:"size:500"`
	Severity    Severity   `gorm:"size:20;not null"`
	Resolved    bool       `gorm:"not null;index"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime:false"`
	ResolvedAt  *time.Time `gorm:"check:chk_alerts_resolution,(resolved AND resolved_at IS NOT NULL) OR (NOT resolved AND resolved_at IS NULL)"`

	// Associations
	Device *Device `gorm:"constraint:OnDelete:CASCADE"`
}

// MaxAlertDescription is the longest description an alert may carry.
const MaxAlertDescription = 500

// ToMap returns the transport representation of the alert.
func (a *Alert) ToMap() map[string]any {
	return map[string]any{
		"id":          a.ID,
		"device_id":   a.DeviceID,
		"type":        a.Type,
		"description": a.Description,
		"severity":    string(a.Severity),
		"resolved":    a.Resolved,
		"created_at":  formatTime(a.CreatedAt),
		"resolved_at": formatOptionalTime(a.ResolvedAt),
	}
}
