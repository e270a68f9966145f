package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"alterations-manager/internal/domain/timeentries"
)

type timeEntryRepo struct {
	mu   sync.RWMutex
	byID map[string]timeentries.Entry
}

func NewTimeEntryRepo() timeentries.Repository {
	return &timeEntryRepo{
		byID: make(map[string]timeentries.Entry),
	}
}

func (r *timeEntryRepo) Create(ctx context.Context, e timeentries.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return errors.New("time entry id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return errors.New("time entry already exists")
	}
	if e.Running() {
		for _, cur := range r.byID {
			if cur.UserID == e.UserID && cur.Running() {
				return timeentries.ErrAlreadyRunning
			}
		}
	}
	r.byID[e.ID] = e
	return nil
}

func (r *timeEntryRepo) Finish(ctx context.Context, e timeentries.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[e.ID]
	if !ok || cur.ShopID != e.ShopID || !cur.Running() {
		return ErrNotFound
	}
	cur.EndedAt = e.EndedAt
	cur.DurationMinutes = e.DurationMinutes
	r.byID[e.ID] = cur
	return nil
}

func (r *timeEntryRepo) Delete(ctx context.Context, shopID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok || cur.ShopID != shopID {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *timeEntryRepo) GetByID(ctx context.Context, shopID, id string) (timeentries.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok || e.ShopID != shopID {
		return timeentries.Entry{}, ErrNotFound
	}
	return e, nil
}

func (r *timeEntryRepo) Running(ctx context.Context, shopID, userID string) (timeentries.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.byID {
		if e.ShopID == shopID && e.UserID == userID && e.Running() {
			return e, nil
		}
	}
	return timeentries.Entry{}, ErrNotFound
}

func (r *timeEntryRepo) ListByGarment(ctx context.Context, shopID, garmentID string) ([]timeentries.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]timeentries.Entry, 0)
	for _, e := range r.byID {
		if e.ShopID == shopID && e.GarmentID == garmentID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}
