package stages

import "context"

type Repository interface {
	// ListByShop devuelve las etapas ordenadas por posición, con GarmentCount.
	ListByShop(ctx context.Context, shopID string) ([]Stage, error)
	GetByID(ctx context.Context, shopID, id string) (Stage, error)
	Create(ctx context.Context, st Stage) error
	CreateMany(ctx context.Context, items []Stage) error
	// Apply ejecuta el plan completo; en postgres es una sola transacción.
	Apply(ctx context.Context, shopID string, plan Plan) error
}
