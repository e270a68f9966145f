package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alterations-manager/internal/domain/orders"
	"alterations-manager/internal/domain/shops"
	"alterations-manager/internal/platform/metrics"
	payport "alterations-manager/internal/ports/payments"

	"github.com/tidwall/gjson"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNoAccount     = errors.New("shop has no payment account")
	ErrNotConfigured = payport.ErrNotConfigured
)

// ShopAccounts lo implementa shops.Service.
type ShopAccounts interface {
	GetByID(ctx context.Context, id string) (shops.Shop, error)
	GetByPaymentAccount(ctx context.Context, accountID string) (shops.Shop, error)
	SetPaymentAccount(ctx context.Context, shopID string, acct shops.PaymentAccount) (shops.Shop, error)
}

// OrderPayments lo implementa orders.Service.
type OrderPayments interface {
	RecordPayment(ctx context.Context, shopID, orderID string, in orders.PaymentInput) (orders.Detail, error)
}

type Options struct {
	WebhookSecret    string
	WebhookTolerance time.Duration
	Country          string
}

type Service struct {
	provider payport.Provider
	shops    ShopAccounts
	orders   OrderPayments
	events   WebhookRepository
	opts     Options
	now      func() time.Time
}

// NewService acepta provider nil: el onboarding responde ErrNotConfigured
// pero el webhook sigue funcionando si hay secreto.
func NewService(provider payport.Provider, sh ShopAccounts, ord OrderPayments, events WebhookRepository, opts Options) *Service {
	if opts.WebhookTolerance <= 0 {
		opts.WebhookTolerance = 5 * time.Minute
	}
	return &Service{
		provider: provider,
		shops:    sh,
		orders:   ord,
		events:   events,
		opts:     opts,
		now:      time.Now,
	}
}

// CreateAccount crea la cuenta conectada una sola vez; si ya existe la devuelve.
func (s *Service) CreateAccount(ctx context.Context, shopID string) (shops.PaymentAccount, error) {
	if s.provider == nil {
		return shops.PaymentAccount{}, ErrNotConfigured
	}
	sh, err := s.shops.GetByID(ctx, shopID)
	if err != nil {
		return shops.PaymentAccount{}, err
	}
	if sh.Payments.AccountID != "" {
		return sh.Payments, nil
	}

	acct, err := s.provider.CreateAccount(ctx, payport.CreateAccountInput{
		ShopID:  sh.ID,
		Email:   sh.Email,
		Country: s.opts.Country,
	})
	if err != nil {
		return shops.PaymentAccount{}, fmt.Errorf("create payment account: %w", err)
	}

	updated, err := s.shops.SetPaymentAccount(ctx, sh.ID, toShopAccount(acct))
	if err != nil {
		return shops.PaymentAccount{}, err
	}
	return updated.Payments, nil
}

func (s *Service) CreateSession(ctx context.Context, shopID string) (payport.OnboardingSession, error) {
	if s.provider == nil {
		return payport.OnboardingSession{}, ErrNotConfigured
	}
	sh, err := s.shops.GetByID(ctx, shopID)
	if err != nil {
		return payport.OnboardingSession{}, err
	}
	if sh.Payments.AccountID == "" {
		return payport.OnboardingSession{}, ErrNoAccount
	}
	return s.provider.CreateOnboardingSession(ctx, sh.Payments.AccountID)
}

// RefreshStatus consulta al proveedor y guarda los flags de la cuenta.
func (s *Service) RefreshStatus(ctx context.Context, shopID string) (shops.PaymentAccount, error) {
	if s.provider == nil {
		return shops.PaymentAccount{}, ErrNotConfigured
	}
	sh, err := s.shops.GetByID(ctx, shopID)
	if err != nil {
		return shops.PaymentAccount{}, err
	}
	if sh.Payments.AccountID == "" {
		return shops.PaymentAccount{}, ErrNoAccount
	}

	acct, err := s.provider.GetAccount(ctx, sh.Payments.AccountID)
	if err != nil {
		return shops.PaymentAccount{}, fmt.Errorf("get payment account: %w", err)
	}
	updated, err := s.shops.SetPaymentAccount(ctx, sh.ID, toShopAccount(acct))
	if err != nil {
		return shops.PaymentAccount{}, err
	}
	return updated.Payments, nil
}

// HandleWebhook verifica la firma, registra el evento y lo aplica una sola vez.
// Un error de procesamiento deja el evento sin marcar para que el proveedor reintente.
func (s *Service) HandleWebhook(ctx context.Context, signature string, payload []byte) (string, error) {
	now := s.now()
	if err := VerifySignature(signature, payload, s.opts.WebhookSecret, s.opts.WebhookTolerance, now); err != nil {
		metrics.WebhookEvent("", "invalid_signature")
		return "", err
	}
	if !gjson.ValidBytes(payload) {
		return "", fmt.Errorf("%w: payload is not json", ErrInvalidInput)
	}

	doc := gjson.ParseBytes(payload)
	ev := WebhookEvent{
		ID:         doc.Get("id").String(),
		Type:       doc.Get("type").String(),
		Payload:    payload,
		ReceivedAt: now,
	}
	if ev.ID == "" || ev.Type == "" {
		return "", fmt.Errorf("%w: event id and type required", ErrInvalidInput)
	}

	fresh, err := s.events.InsertEvent(ctx, ev)
	if err != nil {
		return "", err
	}
	if !fresh {
		metrics.WebhookEvent(ev.Type, ResultDuplicate)
		return ResultDuplicate, nil
	}

	obj := doc.Get("data.object")
	var result string
	switch ev.Type {
	case "account.updated":
		result, err = s.applyAccountUpdated(ctx, obj)
	case "payment_intent.succeeded":
		result, err = s.applyPaymentSucceeded(ctx, obj)
	default:
		result = ResultIgnored
	}
	if err != nil {
		metrics.WebhookEvent(ev.Type, "error")
		return "", err
	}

	if err := s.events.MarkProcessed(ctx, ev.ID, s.now(), result); err != nil {
		return "", err
	}
	metrics.WebhookEvent(ev.Type, result)
	return result, nil
}

func (s *Service) applyAccountUpdated(ctx context.Context, obj gjson.Result) (string, error) {
	accountID := obj.Get("id").String()
	if accountID == "" {
		return ResultIgnored, nil
	}
	sh, err := s.shops.GetByPaymentAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, shops.ErrNotFound) {
			return ResultIgnored, nil
		}
		return "", err
	}

	_, err = s.shops.SetPaymentAccount(ctx, sh.ID, shops.PaymentAccount{
		AccountID:        accountID,
		ChargesEnabled:   obj.Get("charges_enabled").Bool(),
		PayoutsEnabled:   obj.Get("payouts_enabled").Bool(),
		DetailsSubmitted: obj.Get("details_submitted").Bool(),
	})
	if err != nil {
		return "", err
	}
	return ResultProcessed, nil
}

func (s *Service) applyPaymentSucceeded(ctx context.Context, obj gjson.Result) (string, error) {
	orderID := strings.TrimSpace(obj.Get("metadata.order_id").String())
	shopID := strings.TrimSpace(obj.Get("metadata.shop_id").String())
	if orderID == "" || shopID == "" {
		return ResultIgnored, nil
	}

	amount := obj.Get("amount_received").Int()
	if amount <= 0 {
		amount = obj.Get("amount").Int()
	}
	if amount <= 0 {
		return ResultIgnored, nil
	}

	_, err := s.orders.RecordPayment(ctx, shopID, orderID, orders.PaymentInput{
		AmountCents: amount,
		Method:      orders.MethodCard,
		ExternalID:  obj.Get("id").String(),
		Note:        "online payment",
	})
	switch {
	case err == nil:
		return ResultProcessed, nil
	case errors.Is(err, orders.ErrDuplicatePayment):
		return ResultDuplicate, nil
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, orders.ErrConflict), errors.Is(err, orders.ErrInvalidInput):
		// orden desconocida o cancelada: reintentar no cambia nada
		return ResultIgnored, nil
	default:
		return "", err
	}
}

func toShopAccount(a payport.Account) shops.PaymentAccount {
	return shops.PaymentAccount{
		AccountID:        a.ID,
		ChargesEnabled:   a.ChargesEnabled,
		PayoutsEnabled:   a.PayoutsEnabled,
		DetailsSubmitted: a.DetailsSubmitted,
	}
}
