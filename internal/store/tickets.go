package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"hospital-iot-backend/internal/model"
)

// ActiveTickets returns the active tickets of a device ordered by ticket_id,
// locking them for the rest of the transaction where the dialect allows it.
func (s *gormStore) ActiveTickets(ctx context.Context, deviceID string) ([]model.Ticket, error) {
	var tickets []model.Ticket
	err := s.locking(ctx).
		Where("device_id = ? AND is_active = ?", deviceID, true).
		Order("ticket_id").
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load active tickets for device %s: %w", deviceID, err)
	}
	return tickets, nil
}

// CreateTicket inserts a new ticket.
func (s *gormStore) CreateTicket(ctx context.Context, t *model.Ticket) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create ticket %s: %w", t.TicketID, err)
	}
	return nil
}

// UpdateTicket writes the given columns of one ticket.
func (s *gormStore) UpdateTicket(ctx context.Context, ticketID string, fields map[string]any) error {
	err := s.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Where("ticket_id = ?", ticketID).
		Updates(fields).Error
	if err != nil {
		return fmt.Errorf("failed to update ticket %s: %w", ticketID, err)
	}
	return nil
}

// GetTicket returns one ticket or ErrNotFound.
func (s *gormStore) GetTicket(ctx context.Context, ticketID string) (*model.Ticket, error) {
	return s.getTicket(s.db.WithContext(ctx), ticketID)
}

// GetTicketForUpdate is GetTicket with a row lock held until the
// surrounding transaction ends.
func (s *gormStore) GetTicketForUpdate(ctx context.Context, ticketID string) (*model.Ticket, error) {
	return s.getTicket(s.locking(ctx), ticketID)
}

func (s *gormStore) getTicket(q *gorm.DB, ticketID string) (*model.Ticket, error) {
	var t model.Ticket
	err := q.Where("ticket_id = ?", ticketID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket %s: %w", ticketID, err)
	}
	return &t, nil
}

// ListTickets returns tickets newest first, optionally only the active ones.
func (s *gormStore) ListTickets(ctx context.Context, activeOnly bool) ([]model.Ticket, error) {
	q := s.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var tickets []model.Ticket
	if err := q.Order("created_at DESC").Order("ticket_id DESC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// CountActiveTickets returns the number of unresolved tickets across all devices.
func (s *gormStore) CountActiveTickets(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Ticket{}).Where("is_active = ?", true).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count active tickets: %w", err)
	}
	return n, nil
}
