package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"alterations-manager/internal/domain/clients"
)

type clientRepo struct {
	mu   sync.RWMutex
	byID map[string]clients.Client
}

func NewClientRepo() clients.Repository {
	return &clientRepo{
		byID: make(map[string]clients.Client),
	}
}

func (r *clientRepo) Create(ctx context.Context, c clients.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(c.ID) == "" {
		return errors.New("client id required")
	}
	if _, exists := r.byID[c.ID]; exists {
		return errors.New("client already exists")
	}
	r.byID[c.ID] = c
	return nil
}

func (r *clientRepo) Update(ctx context.Context, c clients.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.byID[c.ID]
	if !exists || cur.ShopID != c.ShopID {
		return ErrNotFound
	}
	r.byID[c.ID] = c
	return nil
}

func (r *clientRepo) Delete(ctx context.Context, shopID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.byID[id]
	if !exists || cur.ShopID != shopID {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *clientRepo) GetByID(ctx context.Context, shopID, id string) (clients.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok || c.ShopID != shopID {
		return clients.Client{}, ErrNotFound
	}
	return c, nil
}

func (r *clientRepo) Search(ctx context.Context, shopID string, f clients.SearchFilter) ([]clients.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(f.Query)
	out := make([]clients.Client, 0)
	for _, c := range r.byID {
		if c.ShopID != shopID {
			continue
		}
		if q != "" && !matchesClient(c, q) {
			continue
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i].LastName), strings.ToLower(out[j].LastName)
		if li != lj {
			return li < lj
		}
		return strings.ToLower(out[i].FirstName) < strings.ToLower(out[j].FirstName)
	})

	return page(out, f.Offset, f.Limit), nil
}

func matchesClient(c clients.Client, q string) bool {
	for _, v := range []string{c.FirstName, c.LastName, c.FullName(), c.Email, c.Phone} {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
