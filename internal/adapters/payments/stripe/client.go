package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"alterations-manager/internal/platform/httpclient"
	"alterations-manager/internal/ports/payments"
)

var (
	ErrUnauthorized = errors.New("payments provider unauthorized")
	ErrUpstream     = errors.New("payments provider upstream error")
)

const DefaultBaseURL = "https://api.stripe.com"

type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// Client habla con la API de Connect (form-encoded, respuestas JSON).
type Client struct {
	http *httpclient.Client
}

var _ payments.Provider = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.SecretKey)
	if key == "" {
		return nil, payments.ErrNotConfigured
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	hc, err := httpclient.NewWithBaseURL(base, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	hc.Headers = map[string]string{
		"Authorization": "Bearer " + key,
	}
	return &Client{http: hc}, nil
}

type accountResponse struct {
	ID               string `json:"id"`
	ChargesEnabled   bool   `json:"charges_enabled"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
	DetailsSubmitted bool   `json:"details_submitted"`
}

func (a accountResponse) account() payments.Account {
	return payments.Account{
		ID:               a.ID,
		ChargesEnabled:   a.ChargesEnabled,
		PayoutsEnabled:   a.PayoutsEnabled,
		DetailsSubmitted: a.DetailsSubmitted,
	}
}

// CreateAccount crea una cuenta express con card_payments y transfers.
func (c *Client) CreateAccount(ctx context.Context, in payments.CreateAccountInput) (payments.Account, error) {
	form := url.Values{}
	form.Set("type", "express")
	if v := strings.TrimSpace(in.Country); v != "" {
		form.Set("country", strings.ToUpper(v))
	}
	if v := strings.TrimSpace(in.Email); v != "" {
		form.Set("email", v)
	}
	form.Set("metadata[shop_id]", in.ShopID)
	form.Set("capabilities[card_payments][requested]", "true")
	form.Set("capabilities[transfers][requested]", "true")

	var out accountResponse
	err := c.http.DoForm(ctx, http.MethodPost, "/v1/accounts", map[string]string{
		"Idempotency-Key": "account-" + in.ShopID,
	}, form, &out)
	if err != nil {
		return payments.Account{}, mapError(err)
	}
	if out.ID == "" {
		return payments.Account{}, fmt.Errorf("%w: response missing id", ErrUpstream)
	}
	return out.account(), nil
}

func (c *Client) GetAccount(ctx context.Context, accountID string) (payments.Account, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return payments.Account{}, errors.New("account id required")
	}

	var out accountResponse
	if err := c.http.DoForm(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(accountID), nil, nil, &out); err != nil {
		return payments.Account{}, mapError(err)
	}
	return out.account(), nil
}

type accountSessionResponse struct {
	Account      string `json:"account"`
	ClientSecret string `json:"client_secret"`
	ExpiresAt    int64  `json:"expires_at"`
}

func (c *Client) CreateOnboardingSession(ctx context.Context, accountID string) (payments.OnboardingSession, error) {
	form := url.Values{}
	form.Set("account", accountID)
	form.Set("components[account_onboarding][enabled]", "true")

	var out accountSessionResponse
	if err := c.http.DoForm(ctx, http.MethodPost, "/v1/account_sessions", nil, form, &out); err != nil {
		return payments.OnboardingSession{}, mapError(err)
	}
	if out.ClientSecret == "" {
		return payments.OnboardingSession{}, fmt.Errorf("%w: response missing client_secret", ErrUpstream)
	}
	if out.Account == "" {
		out.Account = accountID
	}
	return payments.OnboardingSession{
		AccountID:    out.Account,
		ClientSecret: out.ClientSecret,
		ExpiresAt:    out.ExpiresAt,
	}, nil
}

func mapError(err error) error {
	switch httpclient.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
}
