package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dispenser-monitor/internal/model"
)

func (s *gormStore) newReading(deviceID int64, in ReadingInput) (model.Reading, error) {
	if in.FillLevel != nil {
		if err := model.ValidateFillLevel(*in.FillLevel); err != nil {
			return model.Reading{}, err
		}
	}
	ts := s.now()
	if in.Timestamp != nil {
		ts = model.Stamp(*in.Timestamp)
	}
	return model.Reading{
		DeviceID:      deviceID,
		FillLevel:     in.FillLevel,
		Temperature:   in.Temperature,
		Humidity:      in.Humidity,
		Pressure:      in.Pressure,
		WaterConsumed: in.WaterConsumed,
		Timestamp:     ts,
	}, nil
}

// RecordReading appends a reading to an existing device.
func (s *gormStore) RecordReading(ctx context.Context, deviceID int64, in ReadingInput) (*model.Reading, error) {
	reading, err := s.newReading(deviceID, in)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireDevice(tx, deviceID); err != nil {
			return err
		}
		if err := tx.Create(&reading).Error; err != nil {
			return fmt.Errorf("failed to record reading for device %d: %w", deviceID, translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

// IngestReading records a sample for the device with the given serial and copies
// the measured fill level, temperature and humidity onto the device.
func (s *gormStore) IngestReading(ctx context.Context, serial string, in ReadingInput) (*model.Reading, error) {
	var reading model.Reading
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var device model.Device
		if err := tx.Where("serial = ?", serial).First(&device).Error; err != nil {
			return notFound(err, ErrDeviceNotFound, "device serial", serial)
		}

		var err error
		reading, err = s.newReading(device.ID, in)
		if err != nil {
			return err
		}
		if err := tx.Create(&reading).Error; err != nil {
			return fmt.Errorf("failed to record reading for device %q: %w", serial, translate(err))
		}

		updates := make(map[string]any, 3)
		if in.FillLevel != nil {
			updates["fill_level"] = *in.FillLevel
		}
		if in.Temperature != nil {
			updates["temperature"] = *in.Temperature
		}
		if in.Humidity != nil {
			updates["humidity"] = *in.Humidity
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&device).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to refresh device %q: %w", serial, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

// ListReadings returns the readings of a device taken at or after since, oldest first.
// A non-positive limit returns every matching reading.
func (s *gormStore) ListReadings(ctx context.Context, deviceID int64, since time.Time, limit int) ([]model.Reading, error) {
	db := s.db.WithContext(ctx)
	if err := requireDevice(db, deviceID); err != nil {
		return nil, err
	}

	q := db.Where("device_id = ?", deviceID)
	if !since.IsZero() {
		q = q.Where(clause.Gte{Column: clause.Column{Name: "timestamp"}, Value: model.Stamp(since)})
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}}).Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}

	readings := make([]model.Reading, 0)
	if err := q.Find(&readings).Error; err != nil {
		return nil, fmt.Errorf("failed to list readings for device %d: %w", deviceID, err)
	}
	return readings, nil
}
