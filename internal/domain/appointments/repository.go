package appointments

import (
	"context"
	"errors"
	"time"
)

// ErrOverlap lo devuelven los repos cuando la base rechaza un solapamiento.
var ErrOverlap = errors.New("appointment overlaps another")

type Repository interface {
	Create(ctx context.Context, a Appointment) error
	Update(ctx context.Context, a Appointment) error
	GetByID(ctx context.Context, shopID, id string) (Appointment, error)
	// ListRange devuelve las citas que se cruzan con [from, to), por inicio.
	ListRange(ctx context.Context, shopID string, from, to time.Time) ([]Appointment, error)
	// Overlapping devuelve citas no canceladas que se cruzan con [start, end).
	Overlapping(ctx context.Context, shopID string, start, end time.Time, excludeID string) ([]Appointment, error)

	// DueForReminder busca en todos los talleres citas abiertas sin recordatorio
	// que empiezan en [from, to).
	DueForReminder(ctx context.Context, from, to time.Time, limit int) ([]Appointment, error)
	MarkReminded(ctx context.Context, id string, at time.Time) error
}
