package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"alterations-manager/internal/ports/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, SecretKey: "sk_test_1"})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, payments.ErrNotConfigured)
}

func TestCreateAccount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/accounts", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_1", r.Header.Get("Authorization"))
		assert.Equal(t, "account-shop-1", r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "express", r.PostForm.Get("type"))
		assert.Equal(t, "PE", r.PostForm.Get("country"))
		assert.Equal(t, "shop-1", r.PostForm.Get("metadata[shop_id]"))
		assert.Equal(t, "true", r.PostForm.Get("capabilities[transfers][requested]"))
		_, _ = w.Write([]byte(`{"id":"acct_1","charges_enabled":false,"details_submitted":false}`))
	})

	acct, err := c.CreateAccount(context.Background(), payments.CreateAccountInput{ShopID: "shop-1", Email: "a@b.co", Country: "pe"})
	require.NoError(t, err)
	assert.Equal(t, "acct_1", acct.ID)
}

func TestGetAccount_MapsUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/acct_1", r.URL.Path)
		http.Error(w, `{"error":{"type":"invalid_request_error"}}`, http.StatusUnauthorized)
	})

	_, err := c.GetAccount(context.Background(), "acct_1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreateOnboardingSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/account_sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "acct_1", r.PostForm.Get("account"))
		assert.Equal(t, "true", r.PostForm.Get("components[account_onboarding][enabled]"))
		_, _ = w.Write([]byte(`{"account":"acct_1","client_secret":"accs_secret","expires_at":1767225600}`))
	})

	s, err := c.CreateOnboardingSession(context.Background(), "acct_1")
	require.NoError(t, err)
	assert.Equal(t, "accs_secret", s.ClientSecret)
	assert.Equal(t, int64(1767225600), s.ExpiresAt)
}

func TestCreateOnboardingSession_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.CreateOnboardingSession(context.Background(), "acct_1")
	assert.ErrorIs(t, err, ErrUpstream)
}
