package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"alterations-manager/internal/domain/orders"
	"alterations-manager/internal/domain/shops"
	payport "alterations-manager/internal/ports/payments"
	"alterations-manager/internal/ports/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "whsec_test"

type testShops struct {
	byID map[string]shops.Shop
}

func (s *testShops) GetByID(_ context.Context, id string) (shops.Shop, error) {
	sh, ok := s.byID[id]
	if !ok {
		return shops.Shop{}, shops.ErrNotFound
	}
	return sh, nil
}

func (s *testShops) GetByPaymentAccount(_ context.Context, accountID string) (shops.Shop, error) {
	for _, sh := range s.byID {
		if sh.Payments.AccountID == accountID {
			return sh, nil
		}
	}
	return shops.Shop{}, shops.ErrNotFound
}

func (s *testShops) SetPaymentAccount(_ context.Context, shopID string, acct shops.PaymentAccount) (shops.Shop, error) {
	sh := s.byID[shopID]
	sh.Payments = acct
	s.byID[shopID] = sh
	return sh, nil
}

type testOrders struct {
	calls []orders.PaymentInput
	seen  map[string]bool
	err   error
}

func (o *testOrders) RecordPayment(_ context.Context, shopID, orderID string, in orders.PaymentInput) (orders.Detail, error) {
	if o.err != nil {
		return orders.Detail{}, o.err
	}
	if o.seen[in.ExternalID] {
		return orders.Detail{}, orders.ErrDuplicatePayment
	}
	o.seen[in.ExternalID] = true
	o.calls = append(o.calls, in)
	return orders.Detail{}, nil
}

type testEvents struct {
	rows map[string]*WebhookEvent
}

func (e *testEvents) InsertEvent(_ context.Context, ev WebhookEvent) (bool, error) {
	if cur, ok := e.rows[ev.ID]; ok {
		return cur.ProcessedAt == nil, nil
	}
	e.rows[ev.ID] = &ev
	return true, nil
}

func (e *testEvents) MarkProcessed(_ context.Context, id string, at time.Time, result string) error {
	e.rows[id].ProcessedAt = &at
	e.rows[id].Result = result
	return nil
}

type testProvider struct {
	created int
}

func (p *testProvider) CreateAccount(_ context.Context, in payport.CreateAccountInput) (payport.Account, error) {
	p.created++
	return payport.Account{ID: "acct_123"}, nil
}

func (p *testProvider) GetAccount(_ context.Context, id string) (payport.Account, error) {
	return payport.Account{ID: id, ChargesEnabled: true, PayoutsEnabled: true, DetailsSubmitted: true}, nil
}

func (p *testProvider) CreateOnboardingSession(_ context.Context, id string) (payport.OnboardingSession, error) {
	return payport.OnboardingSession{AccountID: id, ClientSecret: "secret_abc"}, nil
}

var now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newTestService(provider payport.Provider) (*Service, *testShops, *testOrders, *testEvents) {
	sh := &testShops{byID: map[string]shops.Shop{"shop-1": {ID: "shop-1", Email: "a@b.co"}}}
	ord := &testOrders{seen: map[string]bool{}}
	ev := &testEvents{rows: map[string]*WebhookEvent{}}
	svc := NewService(provider, sh, ord, ev, Options{WebhookSecret: secret})
	svc.now = func() time.Time { return now }
	return svc, sh, ord, ev
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := SignatureHeader(payload, secret, now)

	require.NoError(t, VerifySignature(header, payload, secret, 5*time.Minute, now))
	require.NoError(t, VerifySignature("v1=deadbeef,"+header, payload, secret, 5*time.Minute, now.Add(4*time.Minute)))

	cases := map[string]struct {
		header  string
		payload []byte
		secret  string
		at      time.Time
	}{
		"tampered":  {header, []byte(`{"id":"evt_2"}`), secret, now},
		"secret":    {header, payload, "other", now},
		"expired":   {header, payload, secret, now.Add(6 * time.Minute)},
		"future":    {header, payload, secret, now.Add(-6 * time.Minute)},
		"no v1":     {"t=123", payload, secret, now},
		"garbage":   {"nonsense", payload, secret, now},
		"no secret": {header, payload, "", now},
	}
	for name, c := range cases {
		err := VerifySignature(c.header, c.payload, c.secret, 5*time.Minute, c.at)
		assert.ErrorIs(t, err, ErrInvalidSignature, name)
	}
}

func TestService_Onboarding(t *testing.T) {
	p := &testProvider{}
	svc, sh, _, _ := newTestService(p)
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, "shop-1")
	assert.ErrorIs(t, err, ErrNoAccount)

	acct, err := svc.CreateAccount(ctx, "shop-1")
	require.NoError(t, err)
	assert.Equal(t, "acct_123", acct.AccountID)

	_, err = svc.CreateAccount(ctx, "shop-1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.created, "account is created once")

	sess, err := svc.CreateSession(ctx, "shop-1")
	require.NoError(t, err)
	assert.Equal(t, "secret_abc", sess.ClientSecret)

	status, err := svc.RefreshStatus(ctx, "shop-1")
	require.NoError(t, err)
	assert.True(t, status.ChargesEnabled)
	assert.True(t, sh.byID["shop-1"].Payments.DetailsSubmitted)
}

func TestService_NotConfigured(t *testing.T) {
	svc, _, _, _ := newTestService(nil)

	_, err := svc.CreateAccount(context.Background(), "shop-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func signed(payload string) (string, []byte) {
	return SignatureHeader([]byte(payload), secret, now), []byte(payload)
}

func TestService_HandleWebhook_PaymentSucceeded(t *testing.T) {
	svc, _, ord, ev := newTestService(nil)
	ctx := context.Background()

	header, body := signed(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":5000,"amount_received":4500,"metadata":{"order_id":"order-1","shop_id":"shop-1"}}}}`)

	result, err := svc.HandleWebhook(ctx, header, body)
	require.NoError(t, err)
	assert.Equal(t, ResultProcessed, result)
	require.Len(t, ord.calls, 1)
	assert.Equal(t, int64(4500), ord.calls[0].AmountCents)
	assert.Equal(t, orders.MethodCard, ord.calls[0].Method)
	assert.Equal(t, "pi_1", ord.calls[0].ExternalID)
	assert.NotNil(t, ev.rows["evt_1"].ProcessedAt)

	result, err = svc.HandleWebhook(ctx, header, body)
	require.NoError(t, err)
	assert.Equal(t, ResultDuplicate, result)
	assert.Len(t, ord.calls, 1)
}

func TestService_HandleWebhook_FailureIsRetried(t *testing.T) {
	svc, _, ord, ev := newTestService(nil)
	ctx := context.Background()
	header, body := signed(`{"id":"evt_9","type":"payment_intent.succeeded","data":{"object":{"id":"pi_9","amount":100,"metadata":{"order_id":"o","shop_id":"shop-1"}}}}`)

	ord.err = errors.New("db down")
	_, err := svc.HandleWebhook(ctx, header, body)
	require.Error(t, err)
	assert.Nil(t, ev.rows["evt_9"].ProcessedAt)

	ord.err = nil
	result, err := svc.HandleWebhook(ctx, header, body)
	require.NoError(t, err)
	assert.Equal(t, ResultProcessed, result)
}

// lookupOrderRepo responde GetByID con err; el resto no se usa antes de fallar.
type lookupOrderRepo struct {
	orders.Repository
	err error
}

func (r lookupOrderRepo) GetByID(context.Context, string, string) (orders.Order, error) {
	return orders.Order{}, r.err
}

func TestService_HandleWebhook_OrderLookupErrors(t *testing.T) {
	body := `{"id":"evt_7","type":"payment_intent.succeeded","data":{"object":{"id":"pi_7","amount_received":900,"metadata":{"order_id":"order-7","shop_id":"shop-1"}}}}`

	newSvc := func(repoErr error) (*Service, *testEvents) {
		ord := orders.NewService(lookupOrderRepo{err: repoErr}, nil, nil, nil)
		sh := &testShops{byID: map[string]shops.Shop{"shop-1": {ID: "shop-1"}}}
		ev := &testEvents{rows: map[string]*WebhookEvent{}}
		svc := NewService(nil, sh, ord, ev, Options{WebhookSecret: secret})
		svc.now = func() time.Time { return now }
		return svc, ev
	}

	// una falla de la base no se confunde con "orden desconocida"
	svc, ev := newSvc(errors.New("connection reset by peer"))
	header, payload := signed(body)
	_, err := svc.HandleWebhook(context.Background(), header, payload)
	require.Error(t, err)
	assert.NotErrorIs(t, err, orders.ErrNotFound)
	assert.Nil(t, ev.rows["evt_7"].ProcessedAt, "event stays open for redelivery")

	fresh, err := ev.InsertEvent(context.Background(), WebhookEvent{ID: "evt_7"})
	require.NoError(t, err)
	assert.True(t, fresh, "redelivery is processed again")

	// la orden realmente no existe: se confirma como ignored
	svc, ev = newSvc(storage.ErrNotFound)
	result, err := svc.HandleWebhook(context.Background(), header, payload)
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, result)
	assert.NotNil(t, ev.rows["evt_7"].ProcessedAt)
}

func TestService_HandleWebhook_AccountUpdated(t *testing.T) {
	svc, sh, _, _ := newTestService(nil)
	sh.byID["shop-1"] = shops.Shop{ID: "shop-1", Payments: shops.PaymentAccount{AccountID: "acct_9"}}

	header, body := signed(`{"id":"evt_2","type":"account.updated","data":{"object":{"id":"acct_9","charges_enabled":true,"payouts_enabled":false,"details_submitted":true}}}`)
	result, err := svc.HandleWebhook(context.Background(), header, body)
	require.NoError(t, err)
	assert.Equal(t, ResultProcessed, result)

	acct := sh.byID["shop-1"].Payments
	assert.True(t, acct.ChargesEnabled)
	assert.False(t, acct.PayoutsEnabled)
	assert.True(t, acct.DetailsSubmitted)

	header, body = signed(`{"id":"evt_3","type":"account.updated","data":{"object":{"id":"acct_unknown"}}}`)
	result, err = svc.HandleWebhook(context.Background(), header, body)
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, result)
}

func TestService_HandleWebhook_Rejects(t *testing.T) {
	svc, _, _, _ := newTestService(nil)

	_, err := svc.HandleWebhook(context.Background(), "t=1,v1=00", []byte(`{}`))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	header, body := signed(`not json`)
	_, err = svc.HandleWebhook(context.Background(), header, body)
	assert.ErrorIs(t, err, ErrInvalidInput)

	header, body = signed(`{"type":"account.updated"}`)
	_, err = svc.HandleWebhook(context.Background(), header, body)
	assert.ErrorIs(t, err, ErrInvalidInput)

	header, body = signed(`{"id":"evt_4","type":"charge.refunded"}`)
	result, err := svc.HandleWebhook(context.Background(), header, body)
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, result)
}
