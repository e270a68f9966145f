package payments

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("payments provider not configured")

// Account es la cuenta conectada de un taller en la plataforma de pagos.
type Account struct {
	ID               string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

type CreateAccountInput struct {
	ShopID  string
	Email   string
	Country string
}

// OnboardingSession alimenta el widget embebido de onboarding del frontend.
type OnboardingSession struct {
	AccountID    string
	ClientSecret string
	ExpiresAt    int64
}

// Provider abstrae la plataforma de pagos (Stripe Connect en producción).
type Provider interface {
	CreateAccount(ctx context.Context, in CreateAccountInput) (Account, error)
	GetAccount(ctx context.Context, accountID string) (Account, error)
	CreateOnboardingSession(ctx context.Context, accountID string) (OnboardingSession, error)
}
