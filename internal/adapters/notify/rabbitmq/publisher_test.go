package rabbitmq

import (
	"context"
	"testing"
	"time"

	"alterations-manager/internal/ports/notify"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	acks      chan amqp.Confirmation
	ack       bool
	exchanges []string
	keys      []string
	msgs      []amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchanges = append(f.exchanges, exchange)
	f.keys = append(f.keys, key)
	f.msgs = append(f.msgs, msg)
	f.acks <- amqp.Confirmation{DeliveryTag: uint64(len(f.msgs)), Ack: f.ack}
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestPublisher_Publish_RoutesByEventType(t *testing.T) {
	ch := &fakeChannel{acks: make(chan amqp.Confirmation, 1), ack: true}
	p := newPublisher(ch, ch.acks, DefaultExchange)

	e := notify.NewEvent(notify.EventGarmentReady, "shop-1", time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), map[string]any{"garment_id": "g-1"})
	require.NoError(t, p.Publish(context.Background(), e))

	require.Len(t, ch.msgs, 1)
	assert.Equal(t, DefaultExchange, ch.exchanges[0])
	assert.Equal(t, "garment.ready", ch.keys[0])
	assert.Equal(t, amqp.Persistent, ch.msgs[0].DeliveryMode)
	assert.Equal(t, e.ID, ch.msgs[0].MessageId)

	var decoded notify.Event
	require.NoError(t, json.Unmarshal(ch.msgs[0].Body, &decoded))
	assert.Equal(t, "shop-1", decoded.ShopID)
	assert.Equal(t, "g-1", decoded.Data["garment_id"])
}

func TestPublisher_Publish_Nack(t *testing.T) {
	ch := &fakeChannel{acks: make(chan amqp.Confirmation, 1), ack: false}
	p := newPublisher(ch, ch.acks, DefaultExchange)

	err := p.Publish(context.Background(), notify.NewEvent(notify.EventOrderPaid, "shop-1", time.Now(), nil))
	assert.ErrorIs(t, err, ErrNack)
}

func TestDial_RequiresURL(t *testing.T) {
	_, err := Dial(" ", "")
	assert.Error(t, err)
}
