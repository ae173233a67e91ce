package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospital-iot-backend/internal/model"
)

// UpsertDevice inserts the device or overwrites every field of the existing
// row. Inside a transaction on Postgres or MySQL the row stays locked until
// commit, which serializes concurrent check-ins for the same device.
func (s *gormStore) UpsertDevice(ctx context.Context, d *model.Device) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_seen", "status", "message"}),
	}).Create(d).Error
	if err != nil {
		return fmt.Errorf("failed to upsert device %s: %w", d.DeviceID, err)
	}
	return nil
}

// GetDevice returns a single device or ErrNotFound.
func (s *gormStore) GetDevice(ctx context.Context, deviceID string) (*model.Device, error) {
	var d model.Device
	err := s.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("device %s: %w", deviceID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load device %s: %w", deviceID, err)
	}
	return &d, nil
}

// ListDevices returns every known device ordered by device_id.
func (s *gormStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).Order("device_id").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}
