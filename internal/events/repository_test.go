package events

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventColumns = []string{"id", "request_id", "event_type", "summary", "actor", "occurred_at", "data"}

func TestListByRequest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM request_events\s+WHERE request_id = \$1`).
		WithArgs("r1").
		WillReturnRows(pgxmock.NewRows(eventColumns).
			AddRow("e1", "r1", TypeRequestCreated, "Request created", "g1", at, `{}`).
			AddRow("e2", "r1", TypeStatusChanged, "Request approved", "h1", at.Add(time.Hour), `{"from":"pending","to":"approved"}`))

	got, err := ListByRequest(context.Background(), mock, "r1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].Data)
	assert.Equal(t, "approved", got[1].Data["to"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByRequest_CorruptData(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM request_events`).
		WithArgs("r1").
		WillReturnRows(pgxmock.NewRows(eventColumns).
			AddRow("e9", "r1", TypeStatusChanged, "Request approved", "h1", time.Now(), `["not","an","object"]`))

	_, err = ListByRequest(context.Background(), mock, "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "e9")
}

func TestInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	data := `{"status":"pending"}`
	mock.ExpectExec(`INSERT INTO request_events`).
		WithArgs("e1", "r1", TypeRequestCreated, "Request created", "g1", at, &data).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = Insert(context.Background(), mock, Event{
		ID: "e1", RequestID: "r1", EventType: TypeRequestCreated, Summary: "Request created",
		Actor: "g1", OccurredAt: at, Data: map[string]any{"status": "pending"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
