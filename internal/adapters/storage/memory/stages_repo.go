package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"alterations-manager/internal/domain/stages"
)

type stageRepo struct {
	mu       sync.RWMutex
	byID     map[string]stages.Stage
	garments *GarmentRepo
}

// NewStageRepo recibe el repo de prendas para GarmentCount y reasignaciones.
// Sin él (nil) los conteos son 0.
func NewStageRepo(garments *GarmentRepo) stages.Repository {
	return &stageRepo{
		byID:     make(map[string]stages.Stage),
		garments: garments,
	}
}

func (r *stageRepo) ListByShop(ctx context.Context, shopID string) ([]stages.Stage, error) {
	var counts map[string]int
	if r.garments != nil {
		counts = r.garments.countByStage(shopID)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]stages.Stage, 0)
	for _, st := range r.byID {
		if st.ShopID == shopID {
			st.GarmentCount = counts[st.ID]
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (r *stageRepo) GetByID(ctx context.Context, shopID, id string) (stages.Stage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.byID[id]
	if !ok || st.ShopID != shopID {
		return stages.Stage{}, ErrNotFound
	}
	return st, nil
}

func (r *stageRepo) Create(ctx context.Context, st stages.Stage) error {
	return r.CreateMany(ctx, []stages.Stage{st})
}

func (r *stageRepo) CreateMany(ctx context.Context, items []stages.Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, st := range items {
		if strings.TrimSpace(st.ID) == "" {
			return errors.New("stage id required")
		}
		if _, exists := r.byID[st.ID]; exists {
			return errors.New("stage already exists")
		}
	}
	for _, st := range items {
		st.GarmentCount = 0
		r.byID[st.ID] = st
	}
	return nil
}

func (r *stageRepo) Apply(ctx context.Context, shopID string, plan stages.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, st := range plan.Update {
		cur, ok := r.byID[st.ID]
		if !ok || cur.ShopID != shopID {
			return ErrNotFound
		}
	}
	for _, id := range plan.Delete {
		cur, ok := r.byID[id]
		if !ok || cur.ShopID != shopID {
			return ErrNotFound
		}
	}
	if r.garments != nil {
		reassigned := make(map[string]bool, len(plan.Reassign))
		for _, ra := range plan.Reassign {
			reassigned[ra.From] = true
		}
		counts := r.garments.countByStage(shopID)
		for _, id := range plan.Delete {
			if !reassigned[id] && counts[id] > 0 {
				return fmt.Errorf("%w: stage %s has %d garments and no reassignment", stages.ErrConflict, id, counts[id])
			}
		}
	}

	for _, st := range plan.Create {
		st.GarmentCount = 0
		r.byID[st.ID] = st
	}
	for _, st := range plan.Update {
		st.GarmentCount = 0
		r.byID[st.ID] = st
	}
	if r.garments != nil {
		for _, ra := range plan.Reassign {
			r.garments.reassignStage(shopID, ra.From, ra.To)
		}
	}
	for _, id := range plan.Delete {
		delete(r.byID, id)
	}
	return nil
}
