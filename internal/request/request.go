package request

import (
	"context"
	"time"

	"rentals/internal/events"
)

type BookingRequest struct {
	ID                  string     `json:"id"`
	PropertyID          string     `json:"propertyId"`
	PropertyName        string     `json:"propertyName"`
	UserID              string     `json:"userId"`
	HostID              string     `json:"hostId"`
	CheckInDate         *time.Time `json:"checkInDate,omitempty"`
	CheckOutDate        *time.Time `json:"checkOutDate,omitempty"`
	ExpectedArrivalTime string     `json:"expectedArrivalTime,omitempty"`
	NumberOfGuests      int        `json:"numberOfGuests"`
	AdditionalNotes     string     `json:"additionalNotes,omitempty"`
	Status              Status     `json:"status"`
	CreatedDate         time.Time  `json:"createdDate"`
}

// Transitioned is the outcome of a successful Store.Transition.
type Transitioned struct {
	From    Status
	Request *BookingRequest
}

// Store persists booking requests and their timeline.
//
// Transition must be atomic per request id: of two concurrent transitions on
// a pending request, exactly one succeeds and the other sees the new status.
type Store interface {
	Create(ctx context.Context, r *BookingRequest, actor string) error
	Get(ctx context.Context, id string) (*BookingRequest, error)
	ListByRequester(ctx context.Context, userID string) ([]BookingRequest, error)
	ListByHost(ctx context.Context, hostID string) ([]BookingRequest, error)
	ListAll(ctx context.Context) ([]BookingRequest, error)
	Transition(ctx context.Context, id string, a Action, actor string, at time.Time) (*Transitioned, error)
	Events(ctx context.Context, id string) ([]events.Event, error)
	Delete(ctx context.Context, id string) error
}
