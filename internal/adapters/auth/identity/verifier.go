package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alterations-manager/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenEmpty = errors.New("token is empty")
)

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier implementa auth.AuthVerifier.
// Con secreto valida el JWT localmente (HS256); sin secreto pregunta al provider.
type Verifier struct {
	secret []byte
	client *Client
	now    func() time.Time
}

func NewVerifier(secret string, client *Client) *Verifier {
	return &Verifier{
		secret: []byte(strings.TrimSpace(secret)),
		client: client,
		now:    time.Now,
	}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	if len(v.secret) > 0 {
		return v.verifyLocal(token)
	}

	claims, err := v.client.FetchUser(ctx, token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("identity verify failed: %w", err)
	}
	return claims, nil
}

func (v *Verifier) verifyLocal(token string) (auth.Claims, error) {
	var tc tokenClaims
	_, err := jwt.ParseWithClaims(token, &tc, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	sub := strings.TrimSpace(tc.Subject)
	if sub == "" {
		return auth.Claims{}, fmt.Errorf("%w: token missing sub", ErrUnauthorized)
	}
	return auth.Claims{
		UserID: sub,
		Email:  strings.ToLower(strings.TrimSpace(tc.Email)),
		Role:   strings.TrimSpace(tc.Role),
	}, nil
}
