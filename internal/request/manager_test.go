package request

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentals/internal/events"
	"rentals/internal/notify"
	"rentals/internal/property"
)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []notify.Change
	err     error
}

func (p *recordingPublisher) Publish(ctx context.Context, c notify.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return p.err
}

var testNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T, props ...property.Property) (*Manager, *recordingPublisher) {
	t.Helper()
	ps := property.NewMemoryStore()
	for i := range props {
		require.NoError(t, ps.Create(context.Background(), &props[i]))
	}
	pub := &recordingPublisher{}
	return &Manager{
		Requests:   NewMemoryStore(),
		Properties: ps,
		Notifier:   pub,
		Log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:        func() time.Time { return testNow },
	}, pub
}

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestCreate_Capacity(t *testing.T) {
	m, pub := newTestManager(t, property.Property{ID: "p1", Title: "Cabin", UserID: "host", Capacity: 4, Status: property.StatusAvailable})
	ctx := context.Background()

	r, err := m.Create(ctx, CreateInput{PropertyID: "p1", UserID: "guest", NumberOfGuests: 4}, "guest")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, "host", r.HostID)
	assert.Equal(t, "Cabin", r.PropertyName)
	assert.Equal(t, testNow, r.CreatedDate)

	_, err = m.Create(ctx, CreateInput{PropertyID: "p1", UserID: "guest", NumberOfGuests: 5}, "guest")
	require.ErrorIs(t, err, ErrCapacityExceeded)
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 4, de.Capacity)

	all, _ := m.Requests.ListAll(ctx)
	assert.Len(t, all, 1, "failed create must not store anything")
	require.Len(t, pub.changes, 1)
	assert.Equal(t, "pending", pub.changes[0].To)
	assert.Empty(t, pub.changes[0].From)
}

func TestCreate_ExpireDate(t *testing.T) {
	m, _ := newTestManager(t, property.Property{ID: "p1", UserID: "host", Capacity: 2, Status: property.StatusAvailable, ExpireDate: day("2025-01-10")})
	ctx := context.Background()

	_, err := m.Create(ctx, CreateInput{PropertyID: "p1", UserID: "g", NumberOfGuests: 1, CheckInDate: day("2025-01-15")}, "g")
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, KindInvalidDate, de.Kind)
	assert.Equal(t, BoundCheckIn, de.Bound)

	_, err = m.Create(ctx, CreateInput{PropertyID: "p1", UserID: "g", NumberOfGuests: 1, CheckInDate: day("2025-01-05"), CheckOutDate: day("2025-01-11")}, "g")
	require.ErrorAs(t, err, &de)
	assert.Equal(t, BoundCheckOut, de.Bound)

	_, err = m.Create(ctx, CreateInput{PropertyID: "p1", UserID: "g", NumberOfGuests: 1, CheckInDate: day("2025-01-05")}, "g")
	require.NoError(t, err)

	_, err = m.Create(ctx, CreateInput{PropertyID: "p1", UserID: "g", NumberOfGuests: 1, CheckInDate: day("2025-01-10"), CheckOutDate: day("2025-01-10")}, "g")
	require.NoError(t, err, "equality with expireDate is allowed")
}

func TestCreate_PropertyState(t *testing.T) {
	statuses := []property.Status{
		property.StatusUnavailable, property.StatusMaintenance, property.StatusPending,
		property.StatusInactive, property.StatusRejected,
	}
	for _, st := range statuses {
		m, _ := newTestManager(t, property.Property{ID: "p1", UserID: "host", Capacity: 10, Status: st})
		_, err := m.Create(context.Background(), CreateInput{PropertyID: "p1", UserID: "g", NumberOfGuests: 1}, "g")
		assert.ErrorIs(t, err, ErrInvalidState, st)
	}
}

func TestCreate_CheckOrder(t *testing.T) {
	// Unavailable beats capacity, capacity beats dates.
	m, _ := newTestManager(t,
		property.Property{ID: "maint", UserID: "h", Capacity: 1, Status: property.StatusMaintenance, ExpireDate: day("2025-01-01")},
		property.Property{ID: "small", UserID: "h", Capacity: 1, Status: property.StatusAvailable, ExpireDate: day("2025-01-01")},
	)
	ctx := context.Background()

	_, err := m.Create(ctx, CreateInput{PropertyID: "missing", UserID: "g", NumberOfGuests: 1}, "g")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Create(ctx, CreateInput{PropertyID: "maint", UserID: "g", NumberOfGuests: 9, CheckInDate: day("2026-01-01")}, "g")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = m.Create(ctx, CreateInput{PropertyID: "small", UserID: "g", NumberOfGuests: 9, CheckInDate: day("2026-01-01")}, "g")
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestCreate_SelfBooking(t *testing.T) {
	m, _ := newTestManager(t, property.Property{ID: "p1", UserID: "host", Capacity: 2, Status: property.StatusAvailable})
	ctx := context.Background()

	_, err := m.Create(ctx, CreateInput{PropertyID: "p1", UserID: "host", NumberOfGuests: 1}, "host")
	require.NoError(t, err)

	m.ForbidSelfBooking = true
	_, err = m.Create(ctx, CreateInput{PropertyID: "p1", UserID: "host", NumberOfGuests: 1}, "host")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestTransitions(t *testing.T) {
	m, pub := newTestManager(t, property.Property{ID: "p1", UserID: "host", Capacity: 2, Status: property.StatusAvailable})
	ctx := context.Background()

	r, err := m.Create(ctx, CreateInput{PropertyID: "p1", UserID: "guest", NumberOfGuests: 1}, "guest")
	require.NoError(t, err)

	approved, err := m.Approve(ctx, r.ID, "host")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)

	_, err = m.Reject(ctx, r.ID, "host")
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.EqualError(t, err, "only pending requests can be rejected")

	_, err = m.Approve(ctx, r.ID, "host")
	assert.ErrorIs(t, err, ErrInvalidTransition, "second approve must fail")

	got, err := m.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got.Status)

	_, err = m.Cancel(ctx, "missing", "guest")
	assert.ErrorIs(t, err, ErrNotFound)

	evs, err := m.Events(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, events.TypeRequestCreated, evs[0].EventType)
	assert.Equal(t, events.TypeStatusChanged, evs[1].EventType)
	assert.Equal(t, "approved", evs[1].Data["to"])

	require.Len(t, pub.changes, 2)
	assert.Equal(t, "pending", pub.changes[1].From)
	assert.Equal(t, "approved", pub.changes[1].To)
	assert.Equal(t, "host", pub.changes[1].Actor)
}

func TestTransitions_ConcurrentExactlyOneWins(t *testing.T) {
	m, _ := newTestManager(t, property.Property{ID: "p1", UserID: "host", Capacity: 2, Status: property.StatusAvailable})
	ctx := context.Background()

	for round := 0; round < 20; round++ {
		r, err := m.Create(ctx, CreateInput{PropertyID: "p1", UserID: "guest", NumberOfGuests: 1}, "guest")
		require.NoError(t, err)

		ops := []func(context.Context, string, string) (*BookingRequest, error){m.Approve, m.Reject, m.Cancel, m.Approve}
		errs := make([]error, len(ops))
		var wg sync.WaitGroup
		for i, op := range ops {
			wg.Add(1)
			go func(i int, op func(context.Context, string, string) (*BookingRequest, error)) {
				defer wg.Done()
				_, errs[i] = op(ctx, r.ID, "someone")
			}(i, op)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			assert.ErrorIs(t, err, ErrInvalidTransition)
		}
		assert.Equal(t, 1, wins)
	}
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	m, pub := newTestManager(t, property.Property{ID: "p1", UserID: "host", Capacity: 2, Status: property.StatusAvailable})
	pub.err = errors.New("redis down")

	r, err := m.Create(context.Background(), CreateInput{PropertyID: "p1", UserID: "guest", NumberOfGuests: 1}, "guest")
	require.NoError(t, err)
	_, err = m.Cancel(context.Background(), r.ID, "guest")
	require.NoError(t, err)
}

func TestLists(t *testing.T) {
	m, _ := newTestManager(t,
		property.Property{ID: "p1", UserID: "host-a", Capacity: 2, Status: property.StatusAvailable},
		property.Property{ID: "p2", UserID: "host-b", Capacity: 2, Status: property.StatusAvailable},
	)
	ctx := context.Background()

	_, err := m.Create(ctx, CreateInput{PropertyID: "p1", UserID: "g1", NumberOfGuests: 1}, "g1")
	require.NoError(t, err)
	_, err = m.Create(ctx, CreateInput{PropertyID: "p2", UserID: "g1", NumberOfGuests: 1}, "g1")
	require.NoError(t, err)
	_, err = m.Create(ctx, CreateInput{PropertyID: "p1", UserID: "g2", NumberOfGuests: 1}, "g2")
	require.NoError(t, err)

	byUser, err := m.ListByRequester(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byHost, err := m.ListByHost(ctx, "host-a")
	require.NoError(t, err)
	assert.Len(t, byHost, 2)
	for _, r := range byHost {
		assert.Equal(t, "host-a", r.HostID)
	}

	none, err := m.ListByHost(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
