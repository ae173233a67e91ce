package model

// MaxDeviceIDLength is the longest device id, in characters, the indexed
// device_id columns hold.
const MaxDeviceIDLength = 191

// Device is the latest known state of a device, keyed by its identifier.
type Device struct {
	DeviceID string `gorm:"primaryKey;size:191" json:"device_id"`
	LastSeen int64  `gorm:"not null" json:"last_seen"` // epoch seconds
	Status   string `gorm:"type:text;not null" json:"status"`
	Message  string `gorm:"type:text" json:"message"`
}

// Recognized device statuses. Any other non-empty status is stored as-is.
const (
	StatusOnline  = "online"
	StatusError   = "error"
	StatusOffline = "offline"
)
