package admin

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"rentals/internal/adminaction"
	"rentals/internal/audit"
	"rentals/internal/property"
	"rentals/internal/request"
	"rentals/pkg/db"
)

// Moderator applies admin overrides. Each override is recorded as an admin
// action next to the change it made.
type Moderator interface {
	DeleteRequest(ctx context.Context, id, actor, reason string) error
	SetPropertyStatus(ctx context.Context, id string, to property.Status, action adminaction.ActionType, actor, reason string) (*property.Property, error)
	DeleteProperty(ctx context.Context, id, actor, reason string) error
}

// PgModerator runs every override and its admin_actions/audit_logs rows in one transaction.
type PgModerator struct {
	DB db.TxBeginner
}

func (m PgModerator) DeleteRequest(ctx context.Context, id, actor, reason string) error {
	return db.WithTx(ctx, m.DB, func(tx pgx.Tx) error {
		br, err := request.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := request.Delete(ctx, tx, id); err != nil {
			return err
		}
		meta := map[string]any{"propertyId": br.PropertyID, "userId": br.UserID, "status": br.Status.String()}
		if err := adminaction.Insert(ctx, tx, id, adminaction.ActionDeleteRequest, reason, actor, meta); err != nil {
			return err
		}
		return audit.Insert(ctx, tx, audit.TargetRequest, id, string(adminaction.ActionDeleteRequest), actor, meta)
	})
}

func (m PgModerator) SetPropertyStatus(ctx context.Context, id string, to property.Status, action adminaction.ActionType, actor, reason string) (*property.Property, error) {
	var out *property.Property
	err := db.WithTx(ctx, m.DB, func(tx pgx.Tx) error {
		prev, err := property.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		updated, err := property.UpdateStatus(ctx, tx, id, to)
		if err != nil {
			return err
		}
		meta := map[string]any{"from": string(prev.Status), "to": string(to)}
		if err := adminaction.Insert(ctx, tx, id, action, reason, actor, meta); err != nil {
			return err
		}
		if err := audit.Insert(ctx, tx, audit.TargetProperty, id, string(action), actor, meta); err != nil {
			return err
		}
		out = updated
		return nil
	})
	return out, err
}

// DeleteProperty removes the listing; its booking requests go with it (ON DELETE CASCADE).
func (m PgModerator) DeleteProperty(ctx context.Context, id, actor, reason string) error {
	return db.WithTx(ctx, m.DB, func(tx pgx.Tx) error {
		p, err := property.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := property.Delete(ctx, tx, id); err != nil {
			return err
		}
		meta := map[string]any{"ownerId": p.UserID, "title": p.Title}
		if err := adminaction.Insert(ctx, tx, id, adminaction.ActionDeleteProperty, reason, actor, meta); err != nil {
			return err
		}
		return audit.Insert(ctx, tx, audit.TargetProperty, id, string(adminaction.ActionDeleteProperty), actor, meta)
	})
}

// Action is an override recorded by MemoryModerator.
type Action struct {
	TargetID string
	Type     adminaction.ActionType
	Reason   string
	Actor    string
	At       time.Time
}

// MemoryModerator backs the memory storage driver.
type MemoryModerator struct {
	Requests   request.Store
	Properties property.Store

	mu      sync.Mutex
	actions []Action
}

func (m *MemoryModerator) DeleteRequest(ctx context.Context, id, actor, reason string) error {
	if err := m.Requests.Delete(ctx, id); err != nil {
		return err
	}
	m.record(id, adminaction.ActionDeleteRequest, actor, reason)
	return nil
}

func (m *MemoryModerator) SetPropertyStatus(ctx context.Context, id string, to property.Status, action adminaction.ActionType, actor, reason string) (*property.Property, error) {
	p, err := m.Properties.UpdateStatus(ctx, id, to)
	if err != nil {
		return nil, err
	}
	m.record(id, action, actor, reason)
	return p, nil
}

// DeleteProperty removes the listing before sweeping its requests, so a
// concurrent create sees NotFound instead of leaving an orphan behind.
func (m *MemoryModerator) DeleteProperty(ctx context.Context, id, actor, reason string) error {
	if err := m.Properties.Delete(ctx, id); err != nil {
		return err
	}
	all, err := m.Requests.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, br := range all {
		if br.PropertyID != id {
			continue
		}
		if err := m.Requests.Delete(ctx, br.ID); err != nil && !errors.Is(err, request.ErrNotFound) {
			return err
		}
	}
	m.record(id, adminaction.ActionDeleteProperty, actor, reason)
	return nil
}

func (m *MemoryModerator) Actions() []Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Action{}, m.actions...)
}

func (m *MemoryModerator) record(id string, t adminaction.ActionType, actor, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, Action{TargetID: id, Type: t, Reason: reason, Actor: actor, At: time.Now().UTC()})
}
