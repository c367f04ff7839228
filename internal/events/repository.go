package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rentals/pkg/db"
)

const (
	TypeRequestCreated = "REQUEST_CREATED"
	TypeStatusChanged  = "STATUS_CHANGED"
)

// Event is one entry of a booking request's timeline.
type Event struct {
	ID         string         `json:"id"`
	RequestID  string         `json:"requestId"`
	EventType  string         `json:"eventType"`
	Summary    string         `json:"summary"`
	Actor      string         `json:"actor"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data,omitempty"`
}

func Insert(ctx context.Context, q db.Querier, e Event) error {
	var s *string
	if e.Data != nil {
		b, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("encode event %s data: %w", e.ID, err)
		}
		str := string(b)
		s = &str
	}
	const stmt = `
INSERT INTO request_events (id, request_id, event_type, summary, actor, occurred_at, data)
VALUES ($1, $2, $3, $4, $5, $6, CAST($7 AS jsonb))
`
	_, err := q.Exec(ctx, stmt, e.ID, e.RequestID, e.EventType, e.Summary, e.Actor, e.OccurredAt, s)
	return err
}

func ListByRequest(ctx context.Context, q db.Querier, requestID string) ([]Event, error) {
	const stmt = `
SELECT id, request_id, event_type, summary, actor, occurred_at, COALESCE(data, '{}'::jsonb)::text
FROM request_events
WHERE request_id = $1
ORDER BY occurred_at ASC, created_at ASC
`
	rows, err := q.Query(ctx, stmt, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		var raw string
		if err := rows.Scan(&e.ID, &e.RequestID, &e.EventType, &e.Summary, &e.Actor, &e.OccurredAt, &raw); err != nil {
			return nil, err
		}
		if raw != "" && raw != "{}" {
			if err := json.Unmarshal([]byte(raw), &e.Data); err != nil {
				return nil, fmt.Errorf("decode event %s data: %w", e.ID, err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
