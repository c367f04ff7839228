package property

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
	StatusMaintenance Status = "maintenance"
	StatusPending     Status = "pending"
	StatusInactive    Status = "inactive"
	StatusRejected    Status = "rejected"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusAvailable, StatusUnavailable, StatusMaintenance, StatusPending, StatusInactive, StatusRejected:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown property status: %s", s)
	}
}

// AcceptsRequests reports whether new booking requests may target a property in this status.
func (s Status) AcceptsRequests() bool {
	return s == StatusAvailable
}

// OwnerSettable reports whether a host may move their own listing into s.
// pending, inactive and rejected are set by moderation only.
func (s Status) OwnerSettable() bool {
	switch s {
	case StatusAvailable, StatusUnavailable, StatusMaintenance:
		return true
	}
	return false
}

type Property struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Location      string          `json:"location"`
	City          string          `json:"city,omitempty"`
	Country       string          `json:"country,omitempty"`
	PricePerNight decimal.Decimal `json:"price"`
	Description   string          `json:"description"`
	Features      []string        `json:"features"`
	Images        []string        `json:"images"`
	Capacity      int             `json:"capacity"`
	Rooms         int             `json:"rooms"`
	Status        Status          `json:"status"`
	ExpireDate    *time.Time      `json:"expireDate,omitempty"`
	UserID        string          `json:"userId"`
	CreatedDate   time.Time       `json:"createdDate"`
}

// Edit is the owner-editable part of a listing. Images is the full ordered
// list of image references; entries left out are dropped from the listing.
type Edit struct {
	Title         string
	Location      string
	PricePerNight decimal.Decimal
	Description   string
	Features      []string
	Images        []string
}

var ErrNotFound = errors.New("property not found")

// Store persists properties. Implementations return ErrNotFound for unknown ids.
type Store interface {
	Create(ctx context.Context, p *Property) error
	Get(ctx context.Context, id string) (*Property, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Property, error)
	ListAll(ctx context.Context) ([]Property, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Property, error)
	Update(ctx context.Context, id string, e Edit) (*Property, error)
	Delete(ctx context.Context, id string) error
}
