package request

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"rentals/internal/events"
)

// MemoryStore keeps requests in process. A single mutex makes Transition's
// check-and-set atomic.
type MemoryStore struct {
	mu       sync.Mutex
	requests map[string]BookingRequest
	events   map[string][]events.Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: make(map[string]BookingRequest),
		events:   make(map[string][]events.Event),
	}
}

func (m *MemoryStore) Create(ctx context.Context, r *BookingRequest, actor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = clone(*r)
	m.events[r.ID] = append(m.events[r.ID], events.Event{
		ID:         uuid.NewString(),
		RequestID:  r.ID,
		EventType:  events.TypeRequestCreated,
		Summary:    "Request created",
		Actor:      actor,
		OccurredAt: r.CreatedDate,
		Data:       map[string]any{"status": r.Status.String()},
	})
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*BookingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, notFound("request")
	}
	out := clone(r)
	return &out, nil
}

func (m *MemoryStore) ListByRequester(ctx context.Context, userID string) ([]BookingRequest, error) {
	return m.filter(func(r BookingRequest) bool { return r.UserID == userID }), nil
}

func (m *MemoryStore) ListByHost(ctx context.Context, hostID string) ([]BookingRequest, error) {
	return m.filter(func(r BookingRequest) bool { return r.HostID == hostID }), nil
}

func (m *MemoryStore) ListAll(ctx context.Context) ([]BookingRequest, error) {
	return m.filter(func(BookingRequest) bool { return true }), nil
}

func (m *MemoryStore) Transition(ctx context.Context, id string, a Action, actor string, at time.Time) (*Transitioned, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.requests[id]
	if !ok {
		return nil, notFound("request")
	}
	from := r.Status
	next, err := from.Apply(a)
	if err != nil {
		return nil, err
	}
	r.Status = next
	m.requests[id] = r
	m.events[id] = append(m.events[id], statusChangedEvent(id, from, next, actor, at))

	out := clone(r)
	return &Transitioned{From: from, Request: &out}, nil
}

func (m *MemoryStore) Events(ctx context.Context, id string) ([]events.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return nil, notFound("request")
	}
	return append([]events.Event{}, m.events[id]...), nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return notFound("request")
	}
	delete(m.requests, id)
	delete(m.events, id)
	return nil
}

func (m *MemoryStore) filter(keep func(BookingRequest) bool) []BookingRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []BookingRequest{}
	for _, r := range m.requests {
		if keep(r) {
			out = append(out, clone(r))
		}
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(rs []BookingRequest) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedDate.Equal(rs[j].CreatedDate) {
			return rs[i].CreatedDate.After(rs[j].CreatedDate)
		}
		return rs[i].ID < rs[j].ID
	})
}

func statusChangedEvent(id string, from, to Status, actor string, at time.Time) events.Event {
	return events.Event{
		ID:         uuid.NewString(),
		RequestID:  id,
		EventType:  events.TypeStatusChanged,
		Summary:    "Request " + to.String(),
		Actor:      actor,
		OccurredAt: at,
		Data:       map[string]any{"from": from.String(), "to": to.String()},
	}
}

func clone(r BookingRequest) BookingRequest {
	if r.CheckInDate != nil {
		t := *r.CheckInDate
		r.CheckInDate = &t
	}
	if r.CheckOutDate != nil {
		t := *r.CheckOutDate
		r.CheckOutDate = &t
	}
	return r
}
