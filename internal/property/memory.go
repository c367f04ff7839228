package property

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store used by the memory storage driver and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Property
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Property)}
}

func (m *MemoryStore) Create(ctx context.Context, p *Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.ID] = clone(*p)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := clone(p)
	return &out, nil
}

func (m *MemoryStore) ListByOwner(ctx context.Context, ownerID string) ([]Property, error) {
	return m.filter(func(p Property) bool { return p.UserID == ownerID }), nil
}

func (m *MemoryStore) ListAll(ctx context.Context) ([]Property, error) {
	return m.filter(func(Property) bool { return true }), nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, id string, status Status) (*Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Status = status
	m.items[id] = p
	out := clone(p)
	return &out, nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, e Edit) (*Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Title = e.Title
	p.Location = e.Location
	p.PricePerNight = e.PricePerNight
	p.Description = e.Description
	p.Features = e.Features
	p.Images = e.Images
	p = clone(p)
	m.items[id] = p
	out := clone(p)
	return &out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *MemoryStore) filter(keep func(Property) bool) []Property {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Property{}
	for _, p := range m.items {
		if keep(p) {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedDate.Equal(out[j].CreatedDate) {
			return out[i].CreatedDate.After(out[j].CreatedDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func clone(p Property) Property {
	p.Features = append([]string{}, p.Features...)
	p.Images = append([]string{}, p.Images...)
	if p.ExpireDate != nil {
		t := *p.ExpireDate
		p.ExpireDate = &t
	}
	return p
}
