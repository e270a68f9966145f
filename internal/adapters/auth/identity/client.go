package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"alterations-manager/internal/platform/httpclient"
	"alterations-manager/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("identity provider not configured")
	ErrUnauthorized  = errors.New("identity unauthorized")
	ErrUpstream      = errors.New("identity upstream error")
)

// Config del identity provider.
// APIKey es la clave pública del proyecto; va en el header "apikey".
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client consulta el usuario dueño de un access token (GET /auth/v1/user).
type Client struct {
	http   *httpclient.Client
	apiKey string
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return &Client{}, nil
	}
	hc, err := httpclient.NewWithBaseURL(base, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:   hc,
		apiKey: strings.TrimSpace(cfg.APIKey),
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.apiKey != ""
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (c *Client) FetchUser(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	var out userResponse
	err := c.http.DoJSON(ctx, http.MethodGet, "/auth/v1/user", map[string]string{
		"apikey":        c.apiKey,
		"Authorization": "Bearer " + token,
	}, nil, &out)
	if err != nil {
		switch httpclient.StatusCode(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return auth.Claims{}, ErrUnauthorized
		default:
			return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	}

	out.ID = strings.TrimSpace(out.ID)
	if out.ID == "" {
		return auth.Claims{}, fmt.Errorf("%w: response missing id", ErrUpstream)
	}
	return auth.Claims{
		UserID: out.ID,
		Email:  strings.ToLower(strings.TrimSpace(out.Email)),
		Role:   strings.TrimSpace(out.Role),
	}, nil
}
