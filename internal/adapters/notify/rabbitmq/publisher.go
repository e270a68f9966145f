package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"alterations-manager/internal/platform/metrics"
	"alterations-manager/internal/ports/notify"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const DefaultExchange = "alterations.events"

var ErrNack = errors.New("publish NACK from broker")

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publica eventos de dominio en un exchange topic; la routing key
// es el tipo de evento (ej. garment.ready).
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	acks     <-chan amqp.Confirmation
	exchange string

	mu sync.Mutex // los confirms llegan en orden; serializamos Publish
}

var _ notify.Publisher = (*Publisher)(nil)

// Dial conecta, declara el exchange y activa publisher confirms.
func Dial(url, exchange string) (*Publisher, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("amqp url required")
	}
	if strings.TrimSpace(exchange) == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp confirm mode: %w", err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	p := newPublisher(ch, acks, exchange)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, acks <-chan amqp.Confirmation, exchange string) *Publisher {
	return &Publisher{ch: ch, acks: acks, exchange: exchange}
}

func (p *Publisher) Publish(ctx context.Context, e notify.Event) (err error) {
	defer func() { metrics.NotificationPublished(e.Type, err) }()

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, p.exchange, e.Type, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    e.ID,
		Timestamp:    e.OccurredAt,
		Type:         e.Type,
		Headers:      amqp.Table{"shop_id": e.ShopID},
		Body:         body,
	}); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}

	select {
	case conf, ok := <-p.acks:
		if !ok {
			return errors.New("amqp channel closed")
		}
		if !conf.Ack {
			return ErrNack
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Healthy reporta si la conexión sigue abierta.
func (p *Publisher) Healthy() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

func (p *Publisher) Close() error {
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
