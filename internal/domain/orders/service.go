package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alterations-manager/internal/domain/garments"
	"alterations-manager/internal/platform/metrics"
	"alterations-manager/internal/ports/notify"
	"alterations-manager/internal/ports/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = fmt.Errorf("order %w", storage.ErrNotFound)
	ErrConflict     = errors.New("order conflict")
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// ClientLookup lo implementa clients.Service.
type ClientLookup interface {
	Exists(ctx context.Context, shopID, id string) error
}

// GarmentStore lo implementa garments.Service.
type GarmentStore interface {
	Prepare(ctx context.Context, shopID, clientID string, in []garments.GarmentInput) ([]garments.Garment, error)
	Save(ctx context.Context, orderID string, items []garments.Garment) ([]garments.Garment, error)
	ListByOrder(ctx context.Context, shopID, orderID string) ([]garments.Garment, error)
	Subtotals(ctx context.Context, shopID string, orderIDs []string) (map[string]int64, error)
}

type Service struct {
	repo     Repository
	clients  ClientLookup
	garments GarmentStore
	pub      notify.Publisher
	now      func() time.Time
}

func NewService(repo Repository, clients ClientLookup, gs GarmentStore, pub notify.Publisher) *Service {
	return &Service{
		repo:     repo,
		clients:  clients,
		garments: gs,
		pub:      pub,
		now:      time.Now,
	}
}

// Detail es la orden completa que devuelve GET /orders/{id}.
type Detail struct {
	Order    Order
	Summary  Summary
	Garments []garments.Garment
	Payments []Payment
}

// Listed es una fila del listado (sin prendas).
type Listed struct {
	Order   Order
	Summary Summary
}

type CreateInput struct {
	ClientID      string
	DueDate       string
	DiscountCents int64
	Notes         string
	Garments      []garments.GarmentInput
}

// Create valida todo antes de escribir; si fallan las prendas, borra la orden.
func (s *Service) Create(ctx context.Context, shopID string, in CreateInput) (Detail, error) {
	if strings.TrimSpace(shopID) == "" {
		return Detail{}, ErrInvalidInput
	}
	clientID := strings.TrimSpace(in.ClientID)
	if clientID == "" {
		return Detail{}, fmt.Errorf("%w: client_id required", ErrInvalidInput)
	}
	if err := s.clients.Exists(ctx, shopID, clientID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Detail{}, fmt.Errorf("%w: unknown client", ErrInvalidInput)
		}
		return Detail{}, err
	}
	if in.DiscountCents < 0 {
		return Detail{}, fmt.Errorf("%w: discount_cents must be >= 0", ErrInvalidInput)
	}
	due, err := garments.ParseDate(in.DueDate)
	if err != nil {
		return Detail{}, fmt.Errorf("%w: due_date must be YYYY-MM-DD", ErrInvalidInput)
	}

	items, err := s.garments.Prepare(ctx, shopID, clientID, in.Garments)
	if err != nil {
		if errors.Is(err, garments.ErrInvalidInput) {
			return Detail{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return Detail{}, err
	}

	now := s.now()
	o := Order{
		ID:            uuid.NewString(),
		ShopID:        shopID,
		ClientID:      clientID,
		Status:        StatusPending,
		DiscountCents: in.DiscountCents,
		Notes:         strings.TrimSpace(in.Notes),
		DueDate:       due,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, &o); err != nil {
		return Detail{}, err
	}

	saved, err := s.garments.Save(ctx, o.ID, items)
	if err != nil {
		if derr := s.repo.Delete(ctx, shopID, o.ID); derr != nil {
			return Detail{}, fmt.Errorf("save garments: %w (rollback order: %v)", err, derr)
		}
		return Detail{}, fmt.Errorf("save garments: %w", err)
	}

	metrics.OrderCreated()
	return s.detail(o, saved, nil), nil
}

func (s *Service) Get(ctx context.Context, shopID, id string) (Detail, error) {
	o, err := s.getOrder(ctx, shopID, id)
	if err != nil {
		return Detail{}, err
	}
	items, err := s.garments.ListByOrder(ctx, shopID, o.ID)
	if err != nil {
		return Detail{}, err
	}
	payments, err := s.repo.ListPayments(ctx, shopID, o.ID)
	if err != nil {
		return Detail{}, err
	}
	return s.detail(o, items, payments), nil
}

func (s *Service) List(ctx context.Context, shopID string, filter ListFilter) ([]Listed, error) {
	if strings.TrimSpace(shopID) == "" {
		return nil, ErrInvalidInput
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	items, err := s.repo.List(ctx, shopID, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, o := range items {
		ids = append(ids, o.ID)
	}
	subtotals, err := s.garments.Subtotals(ctx, shopID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Listed, 0, len(items))
	for _, o := range items {
		out = append(out, Listed{Order: o, Summary: Summarize(subtotals[o.ID], o.DiscountCents, o.PaidCents)})
	}
	return out, nil
}

func (s *Service) ListByClient(ctx context.Context, shopID, clientID string) ([]Listed, error) {
	if err := s.clients.Exists(ctx, shopID, clientID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.List(ctx, shopID, ListFilter{ClientID: clientID, Limit: maxLimit})
}

func (s *Service) SetStatus(ctx context.Context, shopID, id string, status Status) (Order, error) {
	if !status.Valid() {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	o, err := s.getOrder(ctx, shopID, id)
	if err != nil {
		return Order{}, err
	}
	if o.Status == status {
		return o, nil
	}
	if !CanTransition(o.Status, status) {
		return Order{}, fmt.Errorf("%w: cannot move from %s to %s", ErrConflict, o.Status, status)
	}

	o.Status = status
	o.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, o); err != nil {
		return Order{}, err
	}
	return o, nil
}

type PaymentInput struct {
	AmountCents int64
	Method      PaymentMethod
	ExternalID  string
	Note        string
}

// RecordPayment suma un cobro. Con ExternalID repetido devuelve ErrDuplicatePayment.
func (s *Service) RecordPayment(ctx context.Context, shopID, orderID string, in PaymentInput) (Detail, error) {
	if in.AmountCents <= 0 {
		return Detail{}, fmt.Errorf("%w: amount_cents must be > 0", ErrInvalidInput)
	}
	if in.Method == "" {
		in.Method = MethodCash
	}
	if !in.Method.Valid() {
		return Detail{}, fmt.Errorf("%w: method must be cash, card or other", ErrInvalidInput)
	}

	o, err := s.getOrder(ctx, shopID, orderID)
	if err != nil {
		return Detail{}, err
	}
	if o.Status == StatusCancelled {
		return Detail{}, fmt.Errorf("%w: order is cancelled", ErrConflict)
	}

	before, err := s.Get(ctx, shopID, o.ID)
	if err != nil {
		return Detail{}, err
	}

	p := Payment{
		ID:          uuid.NewString(),
		ShopID:      shopID,
		OrderID:     o.ID,
		AmountCents: in.AmountCents,
		Method:      in.Method,
		ExternalID:  strings.TrimSpace(in.ExternalID),
		Note:        strings.TrimSpace(in.Note),
		CreatedAt:   s.now(),
	}
	if _, err := s.repo.AddPayment(ctx, p); err != nil {
		return Detail{}, err
	}
	metrics.PaymentRecorded(string(p.Method))

	after, err := s.Get(ctx, shopID, o.ID)
	if err != nil {
		return Detail{}, err
	}
	if before.Summary.PaymentStatus != PaymentPaid && after.Summary.PaymentStatus == PaymentPaid && s.pub != nil {
		_ = s.pub.Publish(ctx, notify.NewEvent(notify.EventOrderPaid, shopID, p.CreatedAt, map[string]any{
			"order_id":     o.ID,
			"order_number": o.Number,
			"client_id":    o.ClientID,
			"total_cents":  after.Summary.TotalCents,
		}))
	}
	return after, nil
}

func (s *Service) getOrder(ctx context.Context, shopID, id string) (Order, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(id) == "" {
		return Order{}, ErrInvalidInput
	}
	o, err := s.repo.GetByID(ctx, shopID, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return o, nil
}

func (s *Service) detail(o Order, items []garments.Garment, payments []Payment) Detail {
	var subtotal int64
	for _, g := range items {
		subtotal += g.SubtotalCents()
	}
	if payments == nil {
		payments = []Payment{}
	}
	return Detail{
		Order:    o,
		Summary:  Summarize(subtotal, o.DiscountCents, o.PaidCents),
		Garments: items,
		Payments: payments,
	}
}
