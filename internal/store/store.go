package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospital-iot-backend/internal/model"
)

const (
	// DefaultHistoryLimit is used when a history read asks for no limit.
	DefaultHistoryLimit = 100
	// MaxHistoryLimit caps a single history read.
	MaxHistoryLimit = 1000
)

// Store defines the interface for all database operations.
//
// A Store returned to a Transaction callback is bound to that transaction;
// every call made through it commits or rolls back together.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error

	// Device registry.
	UpsertDevice(ctx context.Context, d *model.Device) error
	GetDevice(ctx context.Context, deviceID string) (*model.Device, error)
	ListDevices(ctx context.Context) ([]model.Device, error)

	// Event store.
	AppendHistory(ctx context.Context, rec *model.HistoryRecord) (int64, error)
	History(ctx context.Context, deviceID string, limit int) ([]model.HistoryRecord, error)

	// Tickets.
	ActiveTickets(ctx context.Context, deviceID string) ([]model.Ticket, error)
	CreateTicket(ctx context.Context, t *model.Ticket) error
	UpdateTicket(ctx context.Context, ticketID string, fields map[string]any) error
	GetTicket(ctx context.Context, ticketID string) (*model.Ticket, error)
	GetTicketForUpdate(ctx context.Context, ticketID string) (*model.Ticket, error)
	ListTickets(ctx context.Context, activeOnly bool) ([]model.Ticket, error)
	CountActiveTickets(ctx context.Context) (int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Transaction runs fn inside a database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise, including on panic.
func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// Ping checks that the database is reachable.
func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// locking adds FOR UPDATE on dialects with row locks. SQLite serializes
// writers at the database level instead.
func (s *gormStore) locking(ctx context.Context) *gorm.DB {
	q := s.db.WithContext(ctx)
	if q.Dialector.Name() == "sqlite" {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}
