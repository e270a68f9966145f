package payments

import (
	"context"
	"time"
)

// WebhookEvent es el registro crudo de un evento recibido del proveedor.
type WebhookEvent struct {
	ID          string // id del evento en el proveedor (evt_...)
	Type        string
	Payload     []byte
	ReceivedAt  time.Time
	ProcessedAt *time.Time
	Result      string
}

type WebhookRepository interface {
	// InsertEvent guarda el evento. Devuelve false si ya existía y fue procesado.
	InsertEvent(ctx context.Context, e WebhookEvent) (bool, error)
	MarkProcessed(ctx context.Context, id string, at time.Time, result string) error
}

// Resultados de HandleWebhook (también van como label de métricas).
const (
	ResultProcessed = "processed"
	ResultDuplicate = "duplicate"
	ResultIgnored   = "ignored"
)
