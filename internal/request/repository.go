package request

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"rentals/internal/audit"
	"rentals/internal/events"
	"rentals/pkg/db"
)

type Repository struct {
	db db.TxBeginner
}

func NewRepository(pool db.TxBeginner) *Repository {
	return &Repository{db: pool}
}

const selectColumns = `
SELECT id, property_id, property_name, user_id, host_id, check_in_date, check_out_date,
       COALESCE(expected_arrival_time,''), number_of_guests, COALESCE(additional_notes,''), status, created_at
FROM booking_requests
`

func (r *Repository) Create(ctx context.Context, br *BookingRequest, actor string) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
INSERT INTO booking_requests (id, property_id, property_name, user_id, host_id, check_in_date, check_out_date,
                              expected_arrival_time, number_of_guests, additional_notes, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8,''), $9, NULLIF($10,''), $11, $12, $12)
`
		if _, err := tx.Exec(ctx, q,
			br.ID, br.PropertyID, br.PropertyName, br.UserID, br.HostID, br.CheckInDate, br.CheckOutDate,
			br.ExpectedArrivalTime, br.NumberOfGuests, br.AdditionalNotes, br.Status.String(), br.CreatedDate,
		); err != nil {
			return err
		}
		if err := events.Insert(ctx, tx, events.Event{
			ID:         uuid.NewString(),
			RequestID:  br.ID,
			EventType:  events.TypeRequestCreated,
			Summary:    "Request created",
			Actor:      actor,
			OccurredAt: br.CreatedDate,
			Data:       map[string]any{"status": br.Status.String()},
		}); err != nil {
			return err
		}
		return audit.Insert(ctx, tx, audit.TargetRequest, br.ID, "request.created", actor, map[string]any{
			"propertyId": br.PropertyID,
			"guests":     br.NumberOfGuests,
		})
	})
}

func (r *Repository) Get(ctx context.Context, id string) (*BookingRequest, error) {
	return get(ctx, r.db, selectColumns+`WHERE id = $1`, id)
}

func (r *Repository) ListByRequester(ctx context.Context, userID string) ([]BookingRequest, error) {
	return r.list(ctx, selectColumns+`WHERE user_id = $1 ORDER BY created_at DESC, id ASC`, userID)
}

func (r *Repository) ListByHost(ctx context.Context, hostID string) ([]BookingRequest, error) {
	return r.list(ctx, selectColumns+`WHERE host_id = $1 ORDER BY created_at DESC, id ASC`, hostID)
}

func (r *Repository) ListAll(ctx context.Context) ([]BookingRequest, error) {
	return r.list(ctx, selectColumns+`ORDER BY created_at DESC, id ASC`)
}

// Transition locks the row, applies a to the current status and records the
// change. Concurrent callers serialize on the row lock; the loser sees the
// new status and gets an InvalidTransition error.
func (r *Repository) Transition(ctx context.Context, id string, a Action, actor string, at time.Time) (*Transitioned, error) {
	var out *Transitioned
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		cur, err := GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		next, err := cur.Status.Apply(a)
		if err != nil {
			return err
		}

		const q = `UPDATE booking_requests SET status = $1, updated_at = $2 WHERE id = $3`
		if _, err := tx.Exec(ctx, q, next.String(), at, id); err != nil {
			return err
		}
		if err := events.Insert(ctx, tx, statusChangedEvent(id, cur.Status, next, actor, at)); err != nil {
			return err
		}
		if err := audit.Insert(ctx, tx, audit.TargetRequest, id, "request."+string(a), actor, map[string]any{
			"from": cur.Status.String(),
			"to":   next.String(),
		}); err != nil {
			return err
		}

		from := cur.Status
		cur.Status = next
		out = &Transitioned{From: from, Request: cur}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*BookingRequest, error) {
	return get(ctx, tx, selectColumns+`WHERE id = $1 FOR UPDATE`, id)
}

func (r *Repository) Events(ctx context.Context, id string) ([]events.Event, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}
	return events.ListByRequest(ctx, r.db, id)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	return Delete(ctx, r.db, id)
}

// Delete hard-deletes a request and its timeline. Only admin moderation calls it.
func Delete(ctx context.Context, q db.Querier, id string) error {
	tag, err := q.Exec(ctx, `DELETE FROM booking_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("request")
	}
	return nil
}

func get(ctx context.Context, q db.Querier, stmt, id string) (*BookingRequest, error) {
	br, err := scanOne(q.QueryRow(ctx, stmt, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("request")
	}
	return br, err
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]BookingRequest, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []BookingRequest{}
	for rows.Next() {
		br, err := scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *br)
	}
	return out, rows.Err()
}

func scanOne(row pgx.Row) (*BookingRequest, error) {
	var br BookingRequest
	var status string
	if err := row.Scan(
		&br.ID, &br.PropertyID, &br.PropertyName, &br.UserID, &br.HostID, &br.CheckInDate, &br.CheckOutDate,
		&br.ExpectedArrivalTime, &br.NumberOfGuests, &br.AdditionalNotes, &status, &br.CreatedDate,
	); err != nil {
		return nil, err
	}
	s, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	br.Status = s
	return &br, nil
}
