package shops

import "context"

type Repository interface {
	Create(ctx context.Context, s Shop) error
	Update(ctx context.Context, s Shop) error
	GetByID(ctx context.Context, id string) (Shop, error)
	GetByOwner(ctx context.Context, ownerUserID string) (Shop, error)
	GetByPaymentAccount(ctx context.Context, accountID string) (Shop, error)
}
