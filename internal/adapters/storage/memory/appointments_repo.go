package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"alterations-manager/internal/domain/appointments"
)

type appointmentRepo struct {
	mu   sync.RWMutex
	byID map[string]appointments.Appointment
}

func NewAppointmentRepo() appointments.Repository {
	return &appointmentRepo{
		byID: make(map[string]appointments.Appointment),
	}
}

func (r *appointmentRepo) Create(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("appointment id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return errors.New("appointment already exists")
	}
	if r.overlapsLocked(a) {
		return appointments.ErrOverlap
	}
	r.byID[a.ID] = a
	return nil
}

func (r *appointmentRepo) Update(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[a.ID]
	if !ok || cur.ShopID != a.ShopID {
		return ErrNotFound
	}
	if r.overlapsLocked(a) {
		return appointments.ErrOverlap
	}
	r.byID[a.ID] = a
	return nil
}

func (r *appointmentRepo) GetByID(ctx context.Context, shopID, id string) (appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok || a.ShopID != shopID {
		return appointments.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (r *appointmentRepo) ListRange(ctx context.Context, shopID string, from, to time.Time) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if a.ShopID == shopID && a.Overlaps(from, to) {
			out = append(out, a)
		}
	}
	sortByStart(out)
	return out, nil
}

func (r *appointmentRepo) Overlapping(ctx context.Context, shopID string, start, end time.Time, excludeID string) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if a.ShopID != shopID || a.ID == excludeID || a.Status == appointments.StatusCancelled {
			continue
		}
		if a.Overlaps(start, end) {
			out = append(out, a)
		}
	}
	sortByStart(out)
	return out, nil
}

func (r *appointmentRepo) DueForReminder(ctx context.Context, from, to time.Time, limit int) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if !a.Status.Open() || a.ReminderSentAt != nil {
			continue
		}
		if a.StartsAt.Before(from) || !a.StartsAt.Before(to) {
			continue
		}
		out = append(out, a)
	}
	sortByStart(out)
	return page(out, 0, limit), nil
}

func (r *appointmentRepo) MarkReminded(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	a.ReminderSentAt = &at
	r.byID[id] = a
	return nil
}

// overlapsLocked replica la restricción de exclusión de postgres.
func (r *appointmentRepo) overlapsLocked(a appointments.Appointment) bool {
	if a.Status == appointments.StatusCancelled {
		return false
	}
	for _, cur := range r.byID {
		if cur.ID == a.ID || cur.ShopID != a.ShopID || cur.Status == appointments.StatusCancelled {
			continue
		}
		if cur.Overlaps(a.StartsAt, a.EndsAt) {
			return true
		}
	}
	return false
}

func sortByStart(items []appointments.Appointment) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].StartsAt.Equal(items[j].StartsAt) {
			return items[i].StartsAt.Before(items[j].StartsAt)
		}
		return items[i].ID < items[j].ID
	})
}
