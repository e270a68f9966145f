package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestVerifier_Local(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	v := NewVerifier("s3cret", nil)
	v.now = func() time.Time { return now }

	token := sign(t, "s3cret", tokenClaims{
		Email: "Owner@Shop.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})

	claims, err := v.Verify(context.Background(), "  "+token+" ")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "owner@shop.com", claims.Email)
	assert.Equal(t, "authenticated", claims.Role)
}

func TestVerifier_Local_Rejects(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	v := NewVerifier("s3cret", nil)
	v.now = func() time.Time { return now }

	cases := map[string]string{
		"expired": sign(t, "s3cret", jwt.RegisteredClaims{Subject: "u", ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}),
		"no exp":  sign(t, "s3cret", jwt.RegisteredClaims{Subject: "u"}),
		"no sub":  sign(t, "s3cret", jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}),
		"bad key": sign(t, "other", jwt.RegisteredClaims{Subject: "u", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}),
		"garbage": "not-a-jwt",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), token)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}

	_, err := v.Verify(context.Background(), " ")
	assert.ErrorIs(t, err, ErrTokenEmpty)
}

func TestVerifier_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		if r.Header.Get("Authorization") != "Bearer good" {
			http.Error(w, "nope", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"user-9","email":"a@b.co","role":"authenticated"}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "anon-key"})
	require.NoError(t, err)
	v := NewVerifier("", client)

	claims, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "user-9", claims.UserID)

	_, err = v.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifier_NotConfigured(t *testing.T) {
	client, err := NewClient(Config{})
	require.NoError(t, err)

	_, err = NewVerifier("", client).Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
