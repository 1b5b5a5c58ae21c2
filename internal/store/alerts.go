package store

import (
	"context"
	"fmt"
	"unicode/utf8"

	"gorm.io/gorm"

	"dispenser-monitor/internal/model"
)

// RaiseAlert opens an unresolved alert on an existing device.
func (s *gormStore) RaiseAlert(ctx context.Context, deviceID int64, in AlertInput) (*model.Alert, error) {
	severity, err := model.ParseSeverity(in.Severity)
	if err != nil {
		return nil, err
	}
	if in.Type == "" {
		return nil, fmt.Errorf("%w: alert type", model.ErrRequired)
	}
	if n := utf8.RuneCountInString(in.Description); n > model.MaxAlertDescription {
		return nil, fmt.Errorf("%w: description has %d characters, max %d", model.ErrOutOfRange, n, model.MaxAlertDescription)
	}

	alert := model.Alert{
		DeviceID:    deviceID,
		Type:        in.Type,
		Description: in.Description,
		Severity:    severity,
		CreatedAt:   s.now(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireDevice(tx, deviceID); err != nil {
			return err
		}
		if err := tx.Create(&alert).Error; err != nil {
			return fmt.Errorf("failed to raise alert for device %d: %w", deviceID, translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (s *gormStore) GetAlert(ctx context.Context, id int64) (*model.Alert, error) {
	var alert model.Alert
	if err := s.db.WithContext(ctx).First(&alert, id).Error; err != nil {
		return nil, notFound(err, ErrNotFound, "alert", id)
	}
	return &alert, nil
}

// ResolveAlert marks an alert resolved and stamps the resolution time.
// Resolution is one-way: a second call fails with ErrAlreadyResolved.
func (s *gormStore) ResolveAlert(ctx context.Context, id int64) (*model.Alert, error) {
	var alert model.Alert
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Alert{}).
			Where("id = ? AND resolved = ?", id, false).
			Updates(map[string]any{"resolved": true, "resolved_at": s.now()})
		if res.Error != nil {
			return fmt.Errorf("failed to resolve alert %d: %w", id, res.Error)
		}
		if err := tx.First(&alert, id).Error; err != nil {
			return notFound(err, ErrNotFound, "alert", id)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: alert %d", ErrAlreadyResolved, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// ListAlerts returns alerts newest first.
func (s *gormStore) ListAlerts(ctx context.Context, f AlertFilter) ([]model.Alert, error) {
	q := s.db.WithContext(ctx).Model(&model.Alert{})
	if f.DeviceID != 0 {
		if err := requireDevice(s.db.WithContext(ctx), f.DeviceID); err != nil {
			return nil, err
		}
		q = q.Where("device_id = ?", f.DeviceID)
	}
	if f.Resolved != nil {
		q = q.Where("resolved = ?", *f.Resolved)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	alerts := make([]model.Alert, 0)
	if err := q.Order("created_at DESC").Order("id DESC").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}
