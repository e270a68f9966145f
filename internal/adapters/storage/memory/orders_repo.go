package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"alterations-manager/internal/domain/orders"
)

type orderRepo struct {
	mu       sync.RWMutex
	byID     map[string]orders.Order
	counters map[string]int // shop_id -> último número
	payments map[string][]orders.Payment
	external map[string]bool
}

func NewOrderRepo() orders.Repository {
	return &orderRepo{
		byID:     make(map[string]orders.Order),
		counters: make(map[string]int),
		payments: make(map[string][]orders.Payment),
		external: make(map[string]bool),
	}
}

func (r *orderRepo) Create(ctx context.Context, o *orders.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(o.ID) == "" {
		return errors.New("order id required")
	}
	if _, exists := r.byID[o.ID]; exists {
		return errors.New("order already exists")
	}
	r.counters[o.ShopID]++
	o.Number = r.counters[o.ShopID]
	r.byID[o.ID] = *o
	return nil
}

// Delete no devuelve el número; los correlativos pueden tener huecos.
func (r *orderRepo) Delete(ctx context.Context, shopID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok || cur.ShopID != shopID {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.payments, id)
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, shopID, id string) (orders.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.byID[id]
	if !ok || o.ShopID != shopID {
		return orders.Order{}, ErrNotFound
	}
	return o, nil
}

func (r *orderRepo) List(ctx context.Context, shopID string, f orders.ListFilter) ([]orders.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]orders.Order, 0)
	for _, o := range r.byID {
		if o.ShopID != shopID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.ClientID != "" && o.ClientID != f.ClientID {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Number > out[j].Number
	})
	return page(out, f.Offset, f.Limit), nil
}

// Update no toca paid_cents; eso solo cambia con AddPayment.
func (r *orderRepo) Update(ctx context.Context, o orders.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[o.ID]
	if !ok || cur.ShopID != o.ShopID {
		return ErrNotFound
	}
	o.Number = cur.Number
	o.PaidCents = cur.PaidCents
	r.byID[o.ID] = o
	return nil
}

func (r *orderRepo) AddPayment(ctx context.Context, p orders.Payment) (orders.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.byID[p.OrderID]
	if !ok || o.ShopID != p.ShopID {
		return orders.Order{}, ErrNotFound
	}
	if p.ExternalID != "" {
		if r.external[p.ExternalID] {
			return orders.Order{}, orders.ErrDuplicatePayment
		}
		r.external[p.ExternalID] = true
	}

	r.payments[p.OrderID] = append(r.payments[p.OrderID], p)
	o.PaidCents += p.AmountCents
	if p.CreatedAt.After(o.UpdatedAt) {
		o.UpdatedAt = p.CreatedAt
	}
	r.byID[o.ID] = o
	return o, nil
}

func (r *orderRepo) ListPayments(ctx context.Context, shopID, orderID string) ([]orders.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]orders.Payment, 0)
	for _, p := range r.payments[orderID] {
		if p.ShopID == shopID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *orderRepo) CountByClient(ctx context.Context, shopID, clientID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, o := range r.byID {
		if o.ShopID == shopID && o.ClientID == clientID {
			n++
		}
	}
	return n, nil
}
