package model

// IssueType is the category of a ticket, fixed when it is opened.
type IssueType string

const (
	IssueTypeError   IssueType = "ERROR"
	IssueTypeOffline IssueType = "OFFLINE"
)

// TicketStatusResolved is the status written to a ticket when it is closed.
const TicketStatusResolved = "resolved"

// Ticket tracks one unresolved (or formerly unresolved) device issue.
type Ticket struct {
	TicketID   string    `gorm:"primaryKey;size:64" json:"ticket_id"`
	DeviceID   string    `gorm:"size:191;not null;index:idx_tickets_device_id" json:"device_id"`
	Status     string    `gorm:"type:text;not null" json:"status"`
	IssueType  IssueType `gorm:"size:16;not null" json:"issue_type"`
	Message    string    `gorm:"type:text" json:"message"`
	CreatedAt  int64     `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt  int64     `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
	ResolvedAt *int64    `json:"resolved_at"`
	AssignedTo *string   `gorm:"type:text" json:"assigned_to"`
	Notes      string    `gorm:"type:text;not null" json:"notes"`
	IsActive   bool      `gorm:"not null;index:idx_tickets_active" json:"is_active"`
}
