package garments

import (
	"context"
	"time"
)

type Repository interface {
	// CreateMany guarda prendas con sus servicios.
	CreateMany(ctx context.Context, items []Garment) error
	GetByID(ctx context.Context, shopID, id string) (Garment, error)
	Update(ctx context.Context, g Garment) error
	List(ctx context.Context, shopID string, filter ListFilter) ([]Garment, error)
	// SubtotalsByOrder suma los servicios de las prendas de cada orden.
	SubtotalsByOrder(ctx context.Context, shopID string, orderIDs []string) (map[string]int64, error)

	AddLineItem(ctx context.Context, l LineItem) error
	UpdateLineItem(ctx context.Context, l LineItem) error
	DeleteLineItem(ctx context.Context, shopID, garmentID, id string) error
}

type ListFilter struct {
	StageID   string
	ClientID  string
	OrderID   string
	DueBefore *time.Time
	Limit     int
}
