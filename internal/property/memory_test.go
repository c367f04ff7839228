package property

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.Create(ctx, &Property{ID: "p1", UserID: "h1", Status: StatusAvailable, PricePerNight: decimal.NewFromInt(80), Features: []string{"wifi"}, CreatedDate: base}))
	require.NoError(t, m.Create(ctx, &Property{ID: "p2", UserID: "h1", Status: StatusAvailable, CreatedDate: base.Add(time.Hour)}))
	require.NoError(t, m.Create(ctx, &Property{ID: "p3", UserID: "h2", Status: StatusPending, CreatedDate: base}))

	got, err := m.Get(ctx, "p1")
	require.NoError(t, err)
	got.Features[0] = "mutated"
	again, _ := m.Get(ctx, "p1")
	assert.Equal(t, "wifi", again.Features[0], "Get must return a copy")

	owned, err := m.ListByOwner(ctx, "h1")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "p2", owned[0].ID, "newest first")

	all, _ := m.ListAll(ctx)
	assert.Len(t, all, 3)

	updated, err := m.UpdateStatus(ctx, "p1", StatusMaintenance)
	require.NoError(t, err)
	assert.Equal(t, StatusMaintenance, updated.Status)

	_, err = m.UpdateStatus(ctx, "missing", StatusAvailable)
	assert.ErrorIs(t, err, ErrNotFound)

	edited, err := m.Update(ctx, "p2", Edit{Title: "Renamed", PricePerNight: decimal.NewFromInt(90), Images: []string{"z.jpg", "y.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", edited.Title)
	assert.Equal(t, []string{"z.jpg", "y.jpg"}, edited.Images)
	assert.Equal(t, "h1", edited.UserID)
	_, err = m.Update(ctx, "missing", Edit{})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Delete(ctx, "p3"))
	_, err = m.Get(ctx, "p3")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(ctx, "p3"), ErrNotFound)
}
