package store

import (
	"context"
	"fmt"

	"hospital-iot-backend/internal/model"
)

// AppendHistory writes one observation to the event log and returns its id.
func (s *gormStore) AppendHistory(ctx context.Context, rec *model.HistoryRecord) (int64, error) {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return 0, fmt.Errorf("failed to append history for device %s: %w", rec.DeviceID, err)
	}
	return rec.ID, nil
}

// History returns the most recent observations of a device, newest first.
// Records sharing a timestamp are ordered by arrival.
func (s *gormStore) History(ctx context.Context, deviceID string, limit int) ([]model.HistoryRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	var records []model.HistoryRecord
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history for device %s: %w", deviceID, err)
	}
	return records, nil
}
