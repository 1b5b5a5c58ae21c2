package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"dispenser-monitor/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	CreateDevice(ctx context.Context, in DeviceInput) (*model.Device, error)
	GetDevice(ctx context.Context, id int64) (*model.Device, error)
	GetDeviceBySerial(ctx context.Context, serial string) (*model.Device, error)
	ListDevices(ctx context.Context, f DeviceFilter) ([]model.Device, error)
	SetDeviceStatus(ctx context.Context, id int64, status model.DeviceStatus) (*model.Device, error)
	DeactivateDevice(ctx context.Context, id int64) (*model.Device, error)
	DeleteDevice(ctx context.Context, id int64) error

	RecordReading(ctx context.Context, deviceID int64, in ReadingInput) (*model.Reading, error)
	IngestReading(ctx context.Context, serial string, in ReadingInput) (*model.Reading, error)
	ListReadings(ctx context.Context, deviceID int64, since time.Time, limit int) ([]model.Reading, error)

	RaiseAlert(ctx context.Context, deviceID int64, in AlertInput) (*model.Alert, error)
	GetAlert(ctx context.Context, id int64) (*model.Alert, error)
	ResolveAlert(ctx context.Context, id int64) (*model.Alert, error)
	ListAlerts(ctx context.Context, f AlertFilter) ([]model.Alert, error)

	OpenMaintenance(ctx context.Context, deviceID int64, in MaintenanceInput) (*model.MaintenanceRecord, error)
	CloseMaintenance(ctx context.Context, id int64, cost float64, observations string) (*model.MaintenanceRecord, error)
	ListMaintenance(ctx context.Context, deviceID int64) ([]model.MaintenanceRecord, error)

	SaveSubscription(ctx context.Context, sub model.PushSubscription, deviceIDs []int64) error
	GetSubscriptionDevices(ctx context.Context, endpoint string) ([]int64, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForDevice(ctx context.Context, deviceID int64) ([]model.PushSubscription, error)

	Stats(ctx context.Context) (Stats, error)
	Ping(ctx context.Context) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: model.Now}
}

// Stats counts devices, active devices, unresolved alerts and open maintenance records.
func (s *gormStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)
	if err := db.Model(&model.Device{}).Count(&st.TotalDevices).Error; err != nil {
		return st, fmt.Errorf("failed to count devices: %w", err)
	}
	if err := db.Model(&model.Device{}).Where("active = ?", true).Count(&st.ActiveDevices).Error; err != nil {
		return st, fmt.Errorf("failed to count active devices: %w", err)
	}
	if err := db.Model(&model.Alert{}).Where("resolved = ?", false).Count(&st.PendingAlerts).Error; err != nil {
		return st, fmt.Errorf("failed to count pending alerts: %w", err)
	}
	if err := db.Model(&model.MaintenanceRecord{}).Where("ended_at IS NULL").Count(&st.OpenMaintenance).Error; err != nil {
		return st, fmt.Errorf("failed to count open maintenance: %w", err)
	}
	return st, nil
}

// Ping checks that the database is reachable.
func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// --- helpers ---

// requireDevice fails with ErrDeviceNotFound unless a device with id exists.
func requireDevice(tx *gorm.DB, id int64) error {
	var n int64
	if err := tx.Model(&model.Device{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to look up device %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrDeviceNotFound, id)
	}
	return nil
}

// translate maps driver errors surfaced through gorm's TranslateError onto store errors.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicateSerial, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	default:
		return err
	}
}

func notFound(err error, sentinel error, what string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %v", sentinel, what, id)
	}
	return fmt.Errorf("failed to load %s %v: %w", what, id, err)
}
