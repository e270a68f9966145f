package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"alterations-manager/internal/domain/shops"
	"alterations-manager/internal/ports/storage"
)

var ErrNotFound = storage.ErrNotFound

type shopRepo struct {
	mu   sync.RWMutex
	byID map[string]shops.Shop
}

func NewShopRepo() shops.Repository {
	return &shopRepo{
		byID: make(map[string]shops.Shop),
	}
}

func (r *shopRepo) Create(ctx context.Context, s shops.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return errors.New("shop id required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return errors.New("shop already exists")
	}
	for _, cur := range r.byID {
		if cur.OwnerUserID == s.OwnerUserID {
			return errors.New("owner already has a shop")
		}
	}
	r.byID[s.ID] = cloneShop(s)
	return nil
}

func (r *shopRepo) Update(ctx context.Context, s shops.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[s.ID]; !exists {
		return ErrNotFound
	}
	r.byID[s.ID] = cloneShop(s)
	return nil
}

func (r *shopRepo) GetByID(ctx context.Context, id string) (shops.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return shops.Shop{}, ErrNotFound
	}
	return cloneShop(s), nil
}

func (r *shopRepo) GetByOwner(ctx context.Context, ownerUserID string) (shops.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.byID {
		if s.OwnerUserID == ownerUserID {
			return cloneShop(s), nil
		}
	}
	return shops.Shop{}, ErrNotFound
}

func (r *shopRepo) GetByPaymentAccount(ctx context.Context, accountID string) (shops.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.byID {
		if accountID != "" && s.Payments.AccountID == accountID {
			return cloneShop(s), nil
		}
	}
	return shops.Shop{}, ErrNotFound
}

// cloneShop copia el slice de horarios para que el caller no mute el mapa.
func cloneShop(s shops.Shop) shops.Shop {
	if s.Hours != nil {
		s.Hours = append([]shops.WorkingHours(nil), s.Hours...)
	}
	return s
}
