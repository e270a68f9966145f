package lognotify

import (
	"context"

	"alterations-manager/internal/platform/logger"
	"alterations-manager/internal/platform/metrics"
	"alterations-manager/internal/ports/notify"
)

// Publisher escribe los eventos en el log. Se usa cuando no hay broker (dev).
type Publisher struct {
	log logger.Logger
}

var _ notify.Publisher = (*Publisher)(nil)

func New(log logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{log: log}
}

func (p *Publisher) Publish(ctx context.Context, e notify.Event) error {
	p.log.Info("notification", map[string]any{
		"event_id":    e.ID,
		"event_type":  e.Type,
		"shop_id":     e.ShopID,
		"occurred_at": e.OccurredAt,
		"data":        e.Data,
	})
	metrics.NotificationPublished(e.Type, nil)
	return nil
}
