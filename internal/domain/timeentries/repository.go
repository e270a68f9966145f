package timeentries

import (
	"context"
	"errors"
)

// ErrAlreadyRunning lo devuelven los repos si el usuario ya tiene un timer abierto.
var ErrAlreadyRunning = errors.New("timer already running")

type Repository interface {
	Create(ctx context.Context, e Entry) error
	// Finish cierra la entrada en curso con EndedAt y DurationMinutes.
	Finish(ctx context.Context, e Entry) error
	Delete(ctx context.Context, shopID, id string) error
	GetByID(ctx context.Context, shopID, id string) (Entry, error)
	Running(ctx context.Context, shopID, userID string) (Entry, error)
	ListByGarment(ctx context.Context, shopID, garmentID string) ([]Entry, error)
}
