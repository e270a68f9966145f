package orders

import (
	"context"
	"errors"
)

// ErrDuplicatePayment lo devuelven los repos cuando el external_id ya existe.
var ErrDuplicatePayment = errors.New("payment already recorded")

type Repository interface {
	// Create asigna o.Number (siguiente correlativo del taller).
	Create(ctx context.Context, o *Order) error
	Delete(ctx context.Context, shopID, id string) error
	GetByID(ctx context.Context, shopID, id string) (Order, error)
	List(ctx context.Context, shopID string, filter ListFilter) ([]Order, error)
	Update(ctx context.Context, o Order) error

	// AddPayment guarda el pago y suma paid_cents en la misma operación.
	AddPayment(ctx context.Context, p Payment) (Order, error)
	ListPayments(ctx context.Context, shopID, orderID string) ([]Payment, error)

	CountByClient(ctx context.Context, shopID, clientID string) (int, error)
}

type ListFilter struct {
	Status   Status
	ClientID string
	Limit    int
	Offset   int
}
