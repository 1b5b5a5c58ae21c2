package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidState is returned when a value outside a closed enumeration is assigned.
	ErrInvalidState = errors.New("invalid state")
	// ErrOutOfRange is returned when a numeric attribute is outside its accepted range.
	ErrOutOfRange = errors.New("value out of range")
	// ErrRequired is returned when a mandatory attribute is empty.
	ErrRequired = errors.New("required value missing")
)

// DeviceStatus is the operating status of a device.
type DeviceStatus string

const (
	StatusActive      DeviceStatus = "active"
	StatusInactive    DeviceStatus = "inactive"
	StatusAlert       DeviceStatus = "alert"
	StatusCritical    DeviceStatus = "critical"
	StatusMaintenance DeviceStatus = "maintenance"
)

// DeviceStatuses lists every accepted status in display order.
var DeviceStatuses = []DeviceStatus{StatusActive, StatusInactive, StatusAlert, StatusCritical, StatusMaintenance}

// ParseDeviceStatus converts raw text into a DeviceStatus. Matching ignores case and surrounding space.
func ParseDeviceStatus(raw string) (DeviceStatus, error) {
	s := DeviceStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: device status %q", ErrInvalidState, raw)
	}
	return s, nil
}

// Valid reports whether s is one of the enumerated statuses.
func (s DeviceStatus) Valid() bool {
	for _, v := range DeviceStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s DeviceStatus) String() string { return string(s) }

// Value implements driver.Valuer.
func (s DeviceStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: device status %q", ErrInvalidState, string(s))
	}
	return string(s), nil
}

// Scan implements sql.Scanner.
func (s *DeviceStatus) Scan(src any) error {
	raw, err := scanText(src)
	if err != nil {
		return err
	}
	parsed, err := ParseDeviceStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s DeviceStatus) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: device status %q", ErrInvalidState, string(s))
	}
	return json.Marshal(string(s))
}

func (s *DeviceStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseDeviceStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Severity grades an alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// ParseSeverity converts raw text into a Severity. An empty string yields SeverityMedium.
func ParseSeverity(raw string) (Severity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SeverityMedium, nil
	}
	s := Severity(strings.ToLower(raw))
	if !s.Valid() {
		return "", fmt.Errorf("%w: severity %q", ErrInvalidState, raw)
	}
	return s, nil
}

// Valid reports whether s is one of the enumerated severities.
func (s Severity) Valid() bool {
	for _, v := range severities {
		if s == v {
			return true
		}
	}
	return false
}

func (s Severity) String() string { return string(s) }

// Value implements driver.Valuer.
func (s Severity) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: severity %q", ErrInvalidState, string(s))
	}
	return string(s), nil
}

// Scan implements sql.Scanner.
func (s *Severity) Scan(src any) error {
	raw, err := scanText(src)
	if err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func scanText(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", fmt.Errorf("%w: null enumeration value", ErrInvalidState)
	default:
		return "", fmt.Errorf("%w: unsupported enumeration type %T", ErrInvalidState, src)
	}
}
