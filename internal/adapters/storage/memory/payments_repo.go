package memory

import (
	"context"
	"sync"
	"time"

	"alterations-manager/internal/domain/payments"
)

type webhookEventRepo struct {
	mu   sync.Mutex
	byID map[string]payments.WebhookEvent
}

func NewWebhookEventRepo() payments.WebhookRepository {
	return &webhookEventRepo{
		byID: make(map[string]payments.WebhookEvent),
	}
}

func (r *webhookEventRepo) InsertEvent(ctx context.Context, e payments.WebhookEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, exists := r.byID[e.ID]; exists {
		// Un evento que quedó sin procesar se reintenta.
		return cur.ProcessedAt == nil, nil
	}
	e.Payload = append([]byte(nil), e.Payload...)
	r.byID[e.ID] = e
	return true, nil
}

func (r *webhookEventRepo) MarkProcessed(ctx context.Context, id string, at time.Time, result string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	e.ProcessedAt = &at
	e.Result = result
	r.byID[id] = e
	return nil
}
