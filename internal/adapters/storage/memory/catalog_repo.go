package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"alterations-manager/internal/domain/catalog"
)

type catalogRepo struct {
	mu   sync.RWMutex
	byID map[string]catalog.Item
}

func NewCatalogRepo() catalog.Repository {
	return &catalogRepo{
		byID: make(map[string]catalog.Item),
	}
}

func (r *catalogRepo) Create(ctx context.Context, it catalog.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(it.ID) == "" {
		return errors.New("catalog item id required")
	}
	if _, exists := r.byID[it.ID]; exists {
		return errors.New("catalog item already exists")
	}
	r.byID[it.ID] = it
	return nil
}

func (r *catalogRepo) Update(ctx context.Context, it catalog.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.byID[it.ID]
	if !exists || cur.ShopID != it.ShopID {
		return ErrNotFound
	}
	r.byID[it.ID] = it
	return nil
}

func (r *catalogRepo) Delete(ctx context.Context, shopID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.byID[id]
	if !exists || cur.ShopID != shopID {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *catalogRepo) GetByID(ctx context.Context, shopID, id string) (catalog.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.byID[id]
	if !ok || it.ShopID != shopID {
		return catalog.Item{}, ErrNotFound
	}
	return it, nil
}

func (r *catalogRepo) List(ctx context.Context, shopID string) ([]catalog.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]catalog.Item, 0)
	for _, it := range r.byID {
		if it.ShopID == shopID {
			out = append(out, it)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FrequentlyUsed != out[j].FrequentlyUsed {
			return out[i].FrequentlyUsed
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}
