package request

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentals/internal/events"
	"rentals/internal/notify"
	"rentals/internal/property"
)

// PropertyReader is the part of property.Store the manager needs.
type PropertyReader interface {
	Get(ctx context.Context, id string) (*property.Property, error)
}

// Manager owns booking request creation and the status state machine.
// Authorization is the caller's job; the manager only enforces status rules.
type Manager struct {
	Requests   Store
	Properties PropertyReader
	Notifier   notify.Publisher
	Log        *slog.Logger
	Now        func() time.Time

	// ForbidSelfBooking rejects requests where the requester owns the property.
	ForbidSelfBooking bool
}

type CreateInput struct {
	PropertyID          string
	UserID              string
	CheckInDate         *time.Time
	CheckOutDate        *time.Time
	ExpectedArrivalTime string
	NumberOfGuests      int
	AdditionalNotes     string
}

// Create validates in against the property and stores a pending request.
// Checks run in a fixed order and nothing is written unless all pass.
func (m *Manager) Create(ctx context.Context, in CreateInput, actor string) (*BookingRequest, error) {
	p, err := m.Properties.Get(ctx, in.PropertyID)
	if errors.Is(err, property.ErrNotFound) {
		return nil, notFound("property")
	}
	if err != nil {
		return nil, fmt.Errorf("load property %s: %w", in.PropertyID, err)
	}

	if !p.Status.AcceptsRequests() {
		return nil, invalidState("property is not available for booking")
	}
	if in.NumberOfGuests > p.Capacity {
		return nil, capacityExceeded(p.Capacity)
	}
	if p.ExpireDate != nil {
		if in.CheckInDate != nil && in.CheckInDate.After(*p.ExpireDate) {
			return nil, invalidDate(BoundCheckIn)
		}
		if in.CheckOutDate != nil && in.CheckOutDate.After(*p.ExpireDate) {
			return nil, invalidDate(BoundCheckOut)
		}
	}
	if m.ForbidSelfBooking && p.UserID == in.UserID {
		return nil, invalidState("hosts cannot request their own property")
	}

	r := &BookingRequest{
		ID:                  uuid.NewString(),
		PropertyID:          p.ID,
		PropertyName:        p.Title,
		UserID:              in.UserID,
		HostID:              p.UserID,
		CheckInDate:         utc(in.CheckInDate),
		CheckOutDate:        utc(in.CheckOutDate),
		ExpectedArrivalTime: in.ExpectedArrivalTime,
		NumberOfGuests:      in.NumberOfGuests,
		AdditionalNotes:     in.AdditionalNotes,
		Status:              StatusPending,
		CreatedDate:         m.now(),
	}
	if err := m.Requests.Create(ctx, r, actor); err != nil {
		return nil, fmt.Errorf("store request: %w", err)
	}

	m.log().Info("request created",
		slog.String("request_id", r.ID),
		slog.String("property_id", r.PropertyID),
		slog.String("user_id", r.UserID),
		slog.String("host_id", r.HostID),
		slog.Int("guests", r.NumberOfGuests),
	)
	m.publish(ctx, r, 0, actor, r.CreatedDate)
	return r, nil
}

func (m *Manager) Approve(ctx context.Context, id, actor string) (*BookingRequest, error) {
	return m.transition(ctx, id, ActionApprove, actor)
}

func (m *Manager) Reject(ctx context.Context, id, actor string) (*BookingRequest, error) {
	return m.transition(ctx, id, ActionReject, actor)
}

func (m *Manager) Cancel(ctx context.Context, id, actor string) (*BookingRequest, error) {
	return m.transition(ctx, id, ActionCancel, actor)
}

func (m *Manager) transition(ctx context.Context, id string, a Action, actor string) (*BookingRequest, error) {
	at := m.now()
	res, err := m.Requests.Transition(ctx, id, a, actor, at)
	if err != nil {
		var de *Error
		if errors.As(err, &de) {
			m.log().Info("request transition refused",
				slog.String("request_id", id),
				slog.String("action", string(a)),
				slog.String("reason", de.Kind.String()),
			)
			return nil, err
		}
		return nil, fmt.Errorf("%s request %s: %w", a, id, err)
	}

	m.log().Info("request status changed",
		slog.String("request_id", id),
		slog.String("from", res.From.String()),
		slog.String("to", res.Request.Status.String()),
		slog.String("actor", actor),
	)
	m.publish(ctx, res.Request, res.From, actor, at)
	return res.Request, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*BookingRequest, error) {
	return m.Requests.Get(ctx, id)
}

func (m *Manager) ListByRequester(ctx context.Context, userID string) ([]BookingRequest, error) {
	return m.Requests.ListByRequester(ctx, userID)
}

func (m *Manager) ListByHost(ctx context.Context, hostID string) ([]BookingRequest, error) {
	return m.Requests.ListByHost(ctx, hostID)
}

func (m *Manager) Events(ctx context.Context, id string) ([]events.Event, error) {
	return m.Requests.Events(ctx, id)
}

// publish never fails the caller; the change is already committed.
func (m *Manager) publish(ctx context.Context, r *BookingRequest, from Status, actor string, at time.Time) {
	if m.Notifier == nil {
		return
	}
	c := notify.Change{
		RequestID:  r.ID,
		PropertyID: r.PropertyID,
		UserID:     r.UserID,
		HostID:     r.HostID,
		To:         r.Status.String(),
		Actor:      actor,
		OccurredAt: at,
	}
	if from != 0 {
		c.From = from.String()
	}
	if err := m.Notifier.Publish(ctx, c); err != nil {
		m.log().Warn("publish request change failed", slog.String("request_id", r.ID), slog.Any("error", err))
	}
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

func (m *Manager) log() *slog.Logger {
	if m.Log != nil {
		return m.Log
	}
	return slog.Default()
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
