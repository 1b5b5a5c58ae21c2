package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"dispenser-monitor/internal/model"
)

// OpenMaintenance starts a maintenance record on an existing device.
func (s *gormStore) OpenMaintenance(ctx context.Context, deviceID int64, in MaintenanceInput) (*model.MaintenanceRecord, error) {
	if in.Type == "" {
		return nil, fmt.Errorf("%w: maintenance type", model.ErrRequired)
	}
	record := model.MaintenanceRecord{
		DeviceID:    deviceID,
		Type:        in.Type,
		Description: in.Description,
		Responsible: in.Responsible,
		StartedAt:   s.now(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireDevice(tx, deviceID); err != nil {
			return err
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to open maintenance for device %d: %w", deviceID, translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// CloseMaintenance ends an open record and stamps the device's last maintenance time.
func (s *gormStore) CloseMaintenance(ctx context.Context, id int64, cost float64, observations string) (*model.MaintenanceRecord, error) {
	if cost < 0 {
		return nil, fmt.Errorf("%w: cost %v is negative", model.ErrOutOfRange, cost)
	}

	var record model.MaintenanceRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, id).Error; err != nil {
			return notFound(err, ErrNotFound, "maintenance record", id)
		}
		if !record.Open() {
			return fmt.Errorf("%w: record %d", ErrAlreadyClosed, id)
		}

		endedAt := s.now()
		if endedAt.Before(record.StartedAt) {
			return fmt.Errorf("%w: end %s precedes start %s", model.ErrOutOfRange, endedAt, record.StartedAt)
		}

		res := tx.Model(&model.MaintenanceRecord{}).
			Where("id = ? AND ended_at IS NULL", id).
			Updates(map[string]any{"ended_at": endedAt, "cost": cost, "observations": observations})
		if res.Error != nil {
			return fmt.Errorf("failed to close maintenance record %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: record %d", ErrAlreadyClosed, id)
		}

		if err := tx.Model(&model.Device{}).Where("id = ?", record.DeviceID).
			Update("last_maintenance_at", endedAt).Error; err != nil {
			return fmt.Errorf("failed to stamp maintenance on device %d: %w", record.DeviceID, err)
		}

		record.EndedAt = &endedAt
		record.Cost = cost
		record.Observations = observations
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListMaintenance returns a device's maintenance records, most recent first.
func (s *gormStore) ListMaintenance(ctx context.Context, deviceID int64) ([]model.MaintenanceRecord, error) {
	db := s.db.WithContext(ctx)
	if err := requireDevice(db, deviceID); err != nil {
		return nil, err
	}
	records := make([]model.MaintenanceRecord, 0)
	if err := db.Where("device_id = ?", deviceID).Order("started_at DESC").Order("id DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list maintenance for device %d: %w", deviceID, err)
	}
	return records, nil
}
