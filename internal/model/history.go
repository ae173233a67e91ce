package model

import "time"

// HistoryRecord is one immutable observation of a device's status.
type HistoryRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DeviceID   string    `gorm:"size:191;not null;index:idx_history_device_id" json:"device_id"`
	Timestamp  int64     `gorm:"not null;index:idx_history_timestamp,sort:desc" json:"timestamp"`
	Status     string    `gorm:"type:text;not null" json:"status"`
	Message    string    `gorm:"type:text" json:"message"`
	RecordedAt time.Time `gorm:"autoCreateTime" json:"recorded_at"`
}

// TableName keeps the table name stable across drivers.
func (HistoryRecord) TableName() string {
	return "device_history"
}
