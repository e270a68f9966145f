package catalog

import "context"

type Repository interface {
	Create(ctx context.Context, it Item) error
	Update(ctx context.Context, it Item) error
	Delete(ctx context.Context, shopID, id string) error
	GetByID(ctx context.Context, shopID, id string) (Item, error)
	// List ordena frequently_used primero y luego por nombre.
	List(ctx context.Context, shopID string) ([]Item, error)
}
