package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dispenser-monitor/internal/model"
)

// SaveSubscription creates or replaces a push subscription and the devices it follows.
func (s *gormStore) SaveSubscription(ctx context.Context, sub model.PushSubscription, deviceIDs []int64) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Omit("Devices").Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		devices := make([]*model.Device, 0, len(deviceIDs))
		if len(deviceIDs) > 0 {
			if err := tx.Find(&devices, deviceIDs).Error; err != nil {
				return fmt.Errorf("failed to load subscribed devices: %w", err)
			}
		}

		if err := tx.Model(&sub).Association("Devices").Replace(devices); err != nil {
			return fmt.Errorf("failed to replace subscribed devices: %w", err)
		}
		return nil
	})
}

// GetSubscriptionDevices returns the ids of the devices a subscription follows.
func (s *gormStore) GetSubscriptionDevices(ctx context.Context, endpoint string) ([]int64, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).Preload("Devices").First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, notFound(err, ErrNotFound, "subscription", endpoint)
	}
	ids := make([]int64, len(sub.Devices))
	for i, d := range sub.Devices {
		ids[i] = d.ID
	}
	return ids, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := model.PushSubscription{Endpoint: endpoint}
		if err := tx.Model(&sub).Association("Devices").Clear(); err != nil {
			return fmt.Errorf("failed to unlink subscription devices: %w", err)
		}
		if err := tx.Delete(&sub).Error; err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		return nil
	})
}

// SubscriptionsForDevice returns every subscription following deviceID.
func (s *gormStore) SubscriptionsForDevice(ctx context.Context, deviceID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_devices sd ON sd.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sd.device_id = ?", deviceID).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for device %d: %w", deviceID, err)
	}
	return subs, nil
}
