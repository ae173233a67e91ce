// Package checkin ingests device status reports. Each check-in updates the
// device registry, appends to the history log and drives the ticket engine
// inside a single transaction.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"hospital-iot-backend/internal/logs"
	"hospital-iot-backend/internal/model"
	"hospital-iot-backend/internal/store"
	"hospital-iot-backend/internal/ticket"
)

// LocalTimeLayout formats the server time returned to devices.
const LocalTimeLayout = "2006-01-02 15:04:05 MST"

// Input is one device report.
type Input struct {
	DeviceID string `json:"device_id" validate:"required,max=191"`
	Status   string `json:"status" validate:"required"`
	Message  string `json:"message"`
}

// Result describes an applied check-in.
type Result struct {
	DeviceID  string
	LocalTime string
	// TicketID is the ticket opened or updated by this check-in, if any.
	TicketID string
	// Resolved lists the tickets closed by this check-in.
	Resolved []string
}

// Options tunes a Service. Zero values pick defaults.
type Options struct {
	Location   *time.Location
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	Clock      func() time.Time
}

// Service applies check-ins.
type Service struct {
	store    store.Store
	engine   *ticket.Engine
	validate *validator.Validate
	loc      *time.Location
	timeout  time.Duration
	retries  int
	backoff  time.Duration
	now      func() time.Time
}

// NewService creates a check-in service on top of s and engine.
func NewService(s store.Store, engine *ticket.Engine, opts Options) *Service {
	svc := &Service{
		store:    s,
		engine:   engine,
		validate: validator.New(),
		loc:      opts.Location,
		timeout:  opts.Timeout,
		retries:  opts.MaxRetries,
		backoff:  opts.Backoff,
		now:      opts.Clock,
	}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	if svc.backoff <= 0 {
		svc.backoff = 25 * time.Millisecond
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// Checkin validates in and applies it atomically. It returns an error
// wrapping store.ErrInvalidInput for missing fields and a
// *store.StorageError when nothing could be persisted.
func (s *Service) Checkin(ctx context.Context, in Input) (*Result, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, invalidInput(err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	now := s.now()
	var res *Result
	var err error
	for attempt := 0; ; attempt++ {
		res, err = s.apply(ctx, in, now)
		if err == nil || !store.IsRetryable(err) || attempt >= s.retries || ctx.Err() != nil {
			break
		}

		logs.Logger.WithFields(logrus.Fields{
			"device_id": in.DeviceID,
			"attempt":   attempt + 1,
		}).Warnf("check-in transaction conflict, retrying: %v", err)

		select {
		case <-time.After(time.Duration(attempt+1) * s.backoff):
		case <-ctx.Done():
		}
	}
	if err != nil {
		return nil, &store.StorageError{Op: "checkin", Err: err}
	}

	res.DeviceID = in.DeviceID
	res.LocalTime = now.In(s.loc).Format(LocalTimeLayout)
	return res, nil
}

// invalidInput turns a validation failure into a client-facing message.
func invalidInput(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "max" {
				return fmt.Errorf("device_id must be at most %d characters: %w", model.MaxDeviceIDLength, store.ErrInvalidInput)
			}
		}
	}
	return fmt.Errorf("device_id and status are required: %w", store.ErrInvalidInput)
}

// apply runs one attempt of the check-in unit of work. Order matters: the
// device upsert takes the per-device lock before tickets are inspected.
func (s *Service) apply(ctx context.Context, in Input, now time.Time) (*Result, error) {
	res := &Result{}
	ts := now.Unix()

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.UpsertDevice(ctx, &model.Device{
			DeviceID: in.DeviceID,
			LastSeen: ts,
			Status:   in.Status,
			Message:  in.Message,
		}); err != nil {
			return err
		}

		if _, err := tx.AppendHistory(ctx, &model.HistoryRecord{
			DeviceID:  in.DeviceID,
			Timestamp: ts,
			Status:    in.Status,
			Message:   in.Message,
		}); err != nil {
			return err
		}

		id, err := s.engine.OpenOrUpdateIfNeeded(ctx, tx, in.DeviceID, in.Status, in.Message, now)
		if err != nil {
			return err
		}
		res.TicketID = id

		resolved, err := s.engine.ResolveIfNeeded(ctx, tx, in.DeviceID, in.Status, now)
		if err != nil {
			return err
		}
		res.Resolved = resolved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
