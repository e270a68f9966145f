package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tipos de evento que publican los módulos de dominio.
const (
	EventGarmentStageChanged  = "garment.stage_changed"
	EventGarmentReady         = "garment.ready"
	EventAppointmentScheduled = "appointment.scheduled"
	EventAppointmentCancelled = "appointment.cancelled"
	EventAppointmentReminder  = "appointment.reminder"
	EventOrderPaid            = "order.paid"
)

// Event es una notificación de dominio (la consume el servicio que manda emails/SMS).
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	ShopID     string         `json:"shop_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// Publisher publica eventos. Las implementaciones no deben bloquear más allá del ctx.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

func NewEvent(eventType, shopID string, at time.Time, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		ShopID:     shopID,
		OccurredAt: at.UTC(),
		Data:       data,
	}
}
