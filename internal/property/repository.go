package property

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"rentals/pkg/db"
)

type Repository struct {
	db db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

const selectColumns = `
SELECT id, title, location, COALESCE(city,''), COALESCE(country,''), price_per_night::text,
       description, features, images, capacity, rooms, status, expire_date, owner_id, created_at
FROM properties
`

func (r *Repository) Create(ctx context.Context, p *Property) error {
	const q = `
INSERT INTO properties (id, title, location, city, country, price_per_night, description,
                        features, images, capacity, rooms, status, expire_date, owner_id, created_at)
VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), CAST($6::text AS numeric), $7, $8, $9, $10, $11, $12, $13, $14, $15)
`
	_, err := r.db.Exec(ctx, q,
		p.ID, p.Title, p.Location, p.City, p.Country, p.PricePerNight.String(), p.Description,
		nonNil(p.Features), nonNil(p.Images), p.Capacity, p.Rooms, string(p.Status), p.ExpireDate, p.UserID, p.CreatedDate,
	)
	return err
}

func (r *Repository) Get(ctx context.Context, id string) (*Property, error) {
	return Get(ctx, r.db, id)
}

// Get loads a property with any Querier, so callers inside a transaction can reuse it.
func Get(ctx context.Context, q db.Querier, id string) (*Property, error) {
	p, err := scanOne(q.QueryRow(ctx, selectColumns+`WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]Property, error) {
	return r.list(ctx, selectColumns+`WHERE owner_id = $1 ORDER BY created_at DESC, id ASC`, ownerID)
}

func (r *Repository) ListAll(ctx context.Context) ([]Property, error) {
	return r.list(ctx, selectColumns+`ORDER BY created_at DESC, id ASC`)
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status) (*Property, error) {
	return UpdateStatus(ctx, r.db, id, status)
}

func UpdateStatus(ctx context.Context, q db.Querier, id string, status Status) (*Property, error) {
	const stmt = `UPDATE properties SET status = $1, updated_at = NOW() WHERE id = $2`
	tag, err := q.Exec(ctx, stmt, string(status), id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return Get(ctx, q, id)
}

func (r *Repository) Update(ctx context.Context, id string, e Edit) (*Property, error) {
	const q = `
UPDATE properties
SET title = $1, location = $2, price_per_night = CAST($3::text AS numeric), description = $4,
    features = $5, images = $6, updated_at = NOW()
WHERE id = $7
`
	tag, err := r.db.Exec(ctx, q,
		e.Title, e.Location, e.PricePerNight.String(), e.Description, nonNil(e.Features), nonNil(e.Images), id,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return Get(ctx, r.db, id)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	return Delete(ctx, r.db, id)
}

func Delete(ctx context.Context, q db.Querier, id string) error {
	tag, err := q.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]Property, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Property{}
	for rows.Next() {
		p, err := scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanOne(row pgx.Row) (*Property, error) {
	var p Property
	var price, status string
	if err := row.Scan(
		&p.ID, &p.Title, &p.Location, &p.City, &p.Country, &price,
		&p.Description, &p.Features, &p.Images, &p.Capacity, &p.Rooms, &status, &p.ExpireDate, &p.UserID, &p.CreatedDate,
	); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price_per_night %q: %w", price, err)
	}
	p.PricePerNight = d
	p.Status = Status(status)
	if p.Features == nil {
		p.Features = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
