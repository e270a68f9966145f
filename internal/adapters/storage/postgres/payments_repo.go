package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"alterations-manager/internal/domain/payments"
)

type WebhookEventsRepo struct {
	db *sql.DB
}

func NewWebhookEventsRepo(db *sql.DB) *WebhookEventsRepo {
	return &WebhookEventsRepo{db: db}
}

// InsertEvent solo "revive" eventos que quedaron sin procesar; uno ya
// procesado no devuelve filas.
func (r *WebhookEventsRepo) InsertEvent(ctx context.Context, e payments.WebhookEvent) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO payment_webhook_events (id, type, payload, received_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
			SET received_at = payment_webhook_events.received_at
			WHERE payment_webhook_events.processed_at IS NULL
		RETURNING id
	`, e.ID, e.Type, e.Payload, e.ReceivedAt).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *WebhookEventsRepo) MarkProcessed(ctx context.Context, id string, at time.Time, result string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_webhook_events SET processed_at = $2, result = $3 WHERE id = $1
	`, id, at, result)
	if err != nil {
		return err
	}
	return expectOne(res)
}
