package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"dispenser-monitor/internal/model"
)

// CreateDevice registers a device. Serials are unique.
func (s *gormStore) CreateDevice(ctx context.Context, in DeviceInput) (*model.Device, error) {
	device := model.NewDevice(in.Name, in.Location, in.Serial, in.Category)
	device.InstalledAt = s.now()
	if in.FillLevel != nil {
		device.FillLevel = *in.FillLevel
	}
	if in.CapacityLiters != nil {
		device.CapacityLiters = *in.CapacityLiters
	}
	if in.Status != nil {
		device.Status = *in.Status
	}
	if in.Temperature != nil {
		device.Temperature = *in.Temperature
	}
	if in.Humidity != nil {
		device.Humidity = *in.Humidity
	}
	if err := device.Validate(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Device{}).Where("serial = ?", device.Serial).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to check serial %q: %w", device.Serial, err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %q", ErrDuplicateSerial, device.Serial)
		}
		if err := tx.Create(&device).Error; err != nil {
			return fmt.Errorf("failed to create device %q: %w", device.Serial, translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (s *gormStore) GetDevice(ctx context.Context, id int64) (*model.Device, error) {
	var device model.Device
	if err := s.db.WithContext(ctx).First(&device, id).Error; err != nil {
		return nil, notFound(err, ErrDeviceNotFound, "device", id)
	}
	return &device, nil
}

func (s *gormStore) GetDeviceBySerial(ctx context.Context, serial string) (*model.Device, error) {
	var device model.Device
	if err := s.db.WithContext(ctx).Where("serial = ?", serial).First(&device).Error; err != nil {
		return nil, notFound(err, ErrDeviceNotFound, "device serial", serial)
	}
	return &device, nil
}

// ListDevices returns devices ordered by id.
func (s *gormStore) ListDevices(ctx context.Context, f DeviceFilter) ([]model.Device, error) {
	q := s.db.WithContext(ctx).Model(&model.Device{})
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	devices := make([]model.Device, 0)
	if err := q.Order("id").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// SetDeviceStatus assigns one of the enumerated statuses.
func (s *gormStore) SetDeviceStatus(ctx context.Context, id int64, status model.DeviceStatus) (*model.Device, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: device status %q", model.ErrInvalidState, string(status))
	}
	return s.updateDevice(ctx, id, map[string]any{"status": status})
}

// DeactivateDevice soft-deletes a device: it stays in the registry with active=false.
func (s *gormStore) DeactivateDevice(ctx context.Context, id int64) (*model.Device, error) {
	return s.updateDevice(ctx, id, map[string]any{"active": false, "status": model.StatusInactive})
}

func (s *gormStore) updateDevice(ctx context.Context, id int64, updates map[string]any) (*model.Device, error) {
	var device model.Device
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Device{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update device %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: id %d", ErrDeviceNotFound, id)
		}
		if err := tx.First(&device, id).Error; err != nil {
			return notFound(err, ErrDeviceNotFound, "device", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// DeleteDevice removes a device together with its readings and alerts in one
// transaction. Maintenance records are not owned by the device, so a device that
// still has them is left untouched and ErrDeviceHasMaintenance is returned.
func (s *gormStore) DeleteDevice(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireDevice(tx, id); err != nil {
			return err
		}

		var maintenance int64
		if err := tx.Model(&model.MaintenanceRecord{}).Where("device_id = ?", id).Count(&maintenance).Error; err != nil {
			return fmt.Errorf("failed to count maintenance records for device %d: %w", id, err)
		}
		if maintenance > 0 {
			return fmt.Errorf("%w: device %d has %d", ErrDeviceHasMaintenance, id, maintenance)
		}

		if err := tx.Where("device_id = ?", id).Delete(&model.Reading{}).Error; err != nil {
			return fmt.Errorf("failed to delete readings for device %d: %w", id, err)
		}
		if err := tx.Where("device_id = ?", id).Delete(&model.Alert{}).Error; err != nil {
			return fmt.Errorf("failed to delete alerts for device %d: %w", id, err)
		}
		if err := tx.Exec("DELETE FROM subscription_devices WHERE device_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to unlink subscriptions from device %d: %w", id, err)
		}
		if err := tx.Delete(&model.Device{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete device %d: %w", id, translate(err))
		}
		return nil
	})
}
