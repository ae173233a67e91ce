// Package ticket implements the support ticket lifecycle driven by device
// status transitions.
//
// Per device there are two states: no active ticket, and exactly one
// active ticket. An error or offline check-in opens a ticket or updates the
// active one; an online check-in resolves it. A resolved ticket is never
// reopened, a later failure opens a new ticket with a new id.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hospital-iot-backend/internal/logs"
	"hospital-iot-backend/internal/model"
	"hospital-iot-backend/internal/store"
)

// noteTimeLayout prefixes every line appended to a ticket's notes.
const noteTimeLayout = "2006-01-02 15:04:05"

// IDFunc builds a unique ticket id for a device at a point in time.
type IDFunc func(deviceID string, now time.Time) string

// Engine opens, updates and resolves tickets.
type Engine struct {
	store store.Store
	loc   *time.Location
	now   func() time.Time
	newID IDFunc
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now for auxiliary operations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDFunc replaces the ticket id generator.
func WithIDFunc(fn IDFunc) Option {
	return func(e *Engine) { e.newID = fn }
}

// NewEngine creates a ticket engine. loc is used to timestamp notes.
func NewEngine(s store.Store, loc *time.Location, opts ...Option) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	e := &Engine{
		store: s,
		loc:   loc,
		now:   time.Now,
		newID: NewID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewID returns "TKT-<unix>-<last 4 chars of device>-<6 random hex>".
func NewID(deviceID string, now time.Time) string {
	suffix := []rune(deviceID)
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("TKT-%d-%s-%s", now.Unix(), string(suffix), random)
}

// IssueTypeFor maps a triggering device status to a ticket issue type.
func IssueTypeFor(status string) model.IssueType {
	if status == model.StatusError {
		return model.IssueTypeError
	}
	return model.IssueTypeOffline
}

// OpenOrUpdateIfNeeded opens a ticket for an error or offline status, or
// refreshes the message of the device's active ticket. It returns the id of
// the affected ticket, or "" when status does not call for a ticket.
//
// tx must be the transaction that already upserted the device row, so that
// concurrent check-ins for the same device cannot both observe no ticket.
func (e *Engine) OpenOrUpdateIfNeeded(ctx context.Context, tx store.Store, deviceID, status, message string, now time.Time) (string, error) {
	if status != model.StatusError && status != model.StatusOffline {
		return "", nil
	}

	active, err := tx.ActiveTickets(ctx, deviceID)
	if err != nil {
		return "", err
	}

	ts := now.Unix()
	if len(active) > 0 {
		current := active[0]
		if len(active) > 1 {
			ids := make([]string, len(active))
			for i, t := range active {
				ids[i] = t.TicketID
			}
			logs.Logger.WithFields(logrus.Fields{
				"device_id": deviceID,
				"tickets":   ids,
			}).Warnf("device has %d active tickets; updating %s", len(active), current.TicketID)
		}

		if err := tx.UpdateTicket(ctx, current.TicketID, map[string]any{
			"message":    message,
			"updated_at": ts,
		}); err != nil {
			return "", err
		}
		return current.TicketID, nil
	}

	t := &model.Ticket{
		TicketID:  e.newID(deviceID, now),
		DeviceID:  deviceID,
		Status:    status,
		IssueType: IssueTypeFor(status),
		Message:   message,
		CreatedAt: ts,
		UpdatedAt: ts,
		IsActive:  true,
	}
	if err := tx.CreateTicket(ctx, t); err != nil {
		return "", err
	}

	logs.Logger.WithFields(logrus.Fields{
		"device_id":  deviceID,
		"ticket_id":  t.TicketID,
		"issue_type": t.IssueType,
	}).Info("ticket opened")
	return t.TicketID, nil
}

// ResolveIfNeeded closes every active ticket of the device when status is
// online and returns the ids it closed. Nothing to resolve is not an error.
func (e *Engine) ResolveIfNeeded(ctx context.Context, tx store.Store, deviceID, status string, now time.Time) ([]string, error) {
	if status != model.StatusOnline {
		return nil, nil
	}

	active, err := tx.ActiveTickets(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	ts := now.Unix()
	resolved := make([]string, 0, len(active))
	for _, t := range active {
		if err := tx.UpdateTicket(ctx, t.TicketID, map[string]any{
			"is_active":   false,
			"status":      model.TicketStatusResolved,
			"resolved_at": ts,
			"updated_at":  ts,
		}); err != nil {
			return nil, err
		}
		resolved = append(resolved, t.TicketID)
		logs.Logger.WithFields(logrus.Fields{
			"device_id": deviceID,
			"ticket_id": t.TicketID,
		}).Info("ticket auto-resolved")
	}
	return resolved, nil
}

// Assign sets the technician responsible for a ticket. An empty technician
// clears the assignment. Resolved tickets can be reassigned.
func (e *Engine) Assign(ctx context.Context, ticketID, technician string) (*model.Ticket, error) {
	technician = strings.TrimSpace(technician)

	var updated *model.Ticket
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		t, err := tx.GetTicketForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}

		var assignee *string
		if technician != "" {
			assignee = &technician
		}
		ts := e.now().Unix()
		if err := tx.UpdateTicket(ctx, ticketID, map[string]any{
			"assigned_to": assignee,
			"updated_at":  ts,
		}); err != nil {
			return err
		}

		t.AssignedTo = assignee
		t.UpdatedAt = ts
		updated = t
		return nil
	})
	if err != nil {
		return nil, classify("assign ticket", err)
	}
	return updated, nil
}

// AppendNote adds a timestamped line to a ticket's notes. Existing notes are
// never rewritten. Notes may be added to resolved tickets.
func (e *Engine) AppendNote(ctx context.Context, ticketID, text string) (*model.Ticket, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("note text is empty: %w", store.ErrInvalidInput)
	}

	var updated *model.Ticket
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		t, err := tx.GetTicketForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}

		now := e.now()
		line := fmt.Sprintf("%s: %s", now.In(e.loc).Format(noteTimeLayout), text)
		notes := line
		if t.Notes != "" {
			notes = t.Notes + "\n" + line
		}

		ts := now.Unix()
		if err := tx.UpdateTicket(ctx, ticketID, map[string]any{
			"notes":      notes,
			"updated_at": ts,
		}); err != nil {
			return err
		}

		t.Notes = notes
		t.UpdatedAt = ts
		updated = t
		return nil
	})
	if err != nil {
		return nil, classify("append ticket note", err)
	}
	return updated, nil
}

// Get returns one ticket or store.ErrNotFound.
func (e *Engine) Get(ctx context.Context, ticketID string) (*model.Ticket, error) {
	t, err := e.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, classify("get ticket", err)
	}
	return t, nil
}

// List returns tickets newest first.
func (e *Engine) List(ctx context.Context, activeOnly bool) ([]model.Ticket, error) {
	tickets, err := e.store.ListTickets(ctx, activeOnly)
	if err != nil {
		return nil, classify("list tickets", err)
	}
	return tickets, nil
}

// classify leaves domain errors untouched and wraps everything else as a
// storage failure.
func classify(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidInput) {
		return err
	}
	var se *store.StorageError
	if errors.As(err, &se) {
		return err
	}
	return &store.StorageError{Op: op, Err: err}
}
