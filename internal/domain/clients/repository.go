package clients

import "context"

type Repository interface {
	Create(ctx context.Context, c Client) error
	Update(ctx context.Context, c Client) error
	Delete(ctx context.Context, shopID, id string) error
	GetByID(ctx context.Context, shopID, id string) (Client, error)
	Search(ctx context.Context, shopID string, filter SearchFilter) ([]Client, error)
}

type SearchFilter struct {
	Query  string // nombre, email o teléfono
	Limit  int
	Offset int
}

// OrderCounter lo implementa el repositorio de órdenes.
type OrderCounter interface {
	CountByClient(ctx context.Context, shopID, clientID string) (int, error)
}
