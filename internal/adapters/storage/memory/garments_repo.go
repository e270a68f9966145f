package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"alterations-manager/internal/domain/garments"
)

// GarmentRepo es exportado porque el repo de etapas necesita contar y
// reasignar prendas dentro del mismo proceso.
type GarmentRepo struct {
	mu   sync.RWMutex
	byID map[string]garments.Garment
}

func NewGarmentRepo() *GarmentRepo {
	return &GarmentRepo{
		byID: make(map[string]garments.Garment),
	}
}

var _ garments.Repository = (*GarmentRepo)(nil)

func (r *GarmentRepo) CreateMany(ctx context.Context, items []garments.Garment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, g := range items {
		if strings.TrimSpace(g.ID) == "" {
			return errors.New("garment id required")
		}
		if _, exists := r.byID[g.ID]; exists {
			return errors.New("garment already exists")
		}
	}
	for _, g := range items {
		r.byID[g.ID] = cloneGarment(g)
	}
	return nil
}

func (r *GarmentRepo) GetByID(ctx context.Context, shopID, id string) (garments.Garment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[id]
	if !ok || g.ShopID != shopID {
		return garments.Garment{}, ErrNotFound
	}
	return cloneGarment(g), nil
}

// Update solo toca los campos de la prenda; los servicios se conservan.
func (r *GarmentRepo) Update(ctx context.Context, g garments.Garment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[g.ID]
	if !ok || cur.ShopID != g.ShopID {
		return ErrNotFound
	}
	g.Services = cur.Services
	r.byID[g.ID] = g
	return nil
}

func (r *GarmentRepo) List(ctx context.Context, shopID string, f garments.ListFilter) ([]garments.Garment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]garments.Garment, 0)
	for _, g := range r.byID {
		if g.ShopID != shopID {
			continue
		}
		if f.StageID != "" && g.StageID != f.StageID {
			continue
		}
		if f.ClientID != "" && g.ClientID != f.ClientID {
			continue
		}
		if f.OrderID != "" && g.OrderID != f.OrderID {
			continue
		}
		if f.DueBefore != nil && (g.DueDate == nil || g.DueDate.After(*f.DueBefore)) {
			continue
		}
		out = append(out, cloneGarment(g))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, 0, f.Limit), nil
}

func (r *GarmentRepo) SubtotalsByOrder(ctx context.Context, shopID string, orderIDs []string) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[string]bool, len(orderIDs))
	for _, id := range orderIDs {
		want[id] = true
	}
	out := make(map[string]int64, len(orderIDs))
	for _, g := range r.byID {
		if g.ShopID == shopID && want[g.OrderID] {
			out[g.OrderID] += g.SubtotalCents()
		}
	}
	return out, nil
}

func (r *GarmentRepo) AddLineItem(ctx context.Context, l garments.LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byID[l.GarmentID]
	if !ok || g.ShopID != l.ShopID {
		return ErrNotFound
	}
	g.Services = append(append([]garments.LineItem(nil), g.Services...), l)
	r.byID[g.ID] = g
	return nil
}

func (r *GarmentRepo) UpdateLineItem(ctx context.Context, l garments.LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byID[l.GarmentID]
	if !ok || g.ShopID != l.ShopID {
		return ErrNotFound
	}
	services := append([]garments.LineItem(nil), g.Services...)
	for i := range services {
		if services[i].ID == l.ID {
			services[i] = l
			g.Services = services
			r.byID[g.ID] = g
			return nil
		}
	}
	return ErrNotFound
}

func (r *GarmentRepo) DeleteLineItem(ctx context.Context, shopID, garmentID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byID[garmentID]
	if !ok || g.ShopID != shopID {
		return ErrNotFound
	}
	services := make([]garments.LineItem, 0, len(g.Services))
	for _, l := range g.Services {
		if l.ID != id {
			services = append(services, l)
		}
	}
	if len(services) == len(g.Services) {
		return ErrNotFound
	}
	g.Services = services
	r.byID[g.ID] = g
	return nil
}

func (r *GarmentRepo) countByStage(shopID string) map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int)
	for _, g := range r.byID {
		if g.ShopID == shopID {
			out[g.StageID]++
		}
	}
	return out
}

func (r *GarmentRepo) reassignStage(shopID, from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, g := range r.byID {
		if g.ShopID == shopID && g.StageID == from {
			g.StageID = to
			r.byID[id] = g
		}
	}
}

func cloneGarment(g garments.Garment) garments.Garment {
	if g.Services != nil {
		g.Services = append([]garments.LineItem(nil), g.Services...)
	}
	return g
}
