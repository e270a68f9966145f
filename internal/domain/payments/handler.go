package payments

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"alterations-manager/internal/domain/shops"
	"alterations-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
)

const (
	signatureHeader = "Stripe-Signature"
	maxWebhookBody  = 1 << 20
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/shops/me/payments/account", createAccountHandler(svc))
	r.Post("/shops/me/payments/session", createSessionHandler(svc))
	r.Get("/shops/me/payments/status", statusHandler(svc))
	r.Post("/webhooks/payments", webhookHandler(svc))
}

type accountResponse struct {
	AccountID        string     `json:"account_id"`
	ChargesEnabled   bool       `json:"charges_enabled"`
	PayoutsEnabled   bool       `json:"payouts_enabled"`
	DetailsSubmitted bool       `json:"details_submitted"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

type sessionResponse struct {
	AccountID    string `json:"account_id"`
	ClientSecret string `json:"client_secret"`
	ExpiresAt    int64  `json:"expires_at"`
}

type webhookResponse struct {
	Received bool   `json:"received"`
	Result   string `json:"result"`
}

// createAccountHandler godoc
// @Summary Crear cuenta de cobros
// @Description Crea (una sola vez) la cuenta conectada del taller en la plataforma de pagos.
// @Tags payments
// @Produce json
// @Success 200 {object} accountResponse
// @Failure 503 {string} string "payments provider not configured"
// @Router /shops/me/payments/account [post]
func createAccountHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		acct, err := svc.CreateAccount(r.Context(), t.ShopID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAccountResponse(acct))
	}
}

func createSessionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		sess, err := svc.CreateSession(r.Context(), t.ShopID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{
			AccountID:    sess.AccountID,
			ClientSecret: sess.ClientSecret,
			ExpiresAt:    sess.ExpiresAt,
		})
	}
}

func statusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		acct, err := svc.RefreshStatus(r.Context(), t.ShopID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAccountResponse(acct))
	}
}

// webhookHandler godoc
// @Summary Webhook de la plataforma de pagos
// @Description Público; se autentica con el header Stripe-Signature. Eventos repetidos se confirman sin reprocesar.
// @Tags payments
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "t=<unix>,v1=<hmac>"
// @Success 200 {object} webhookResponse
// @Failure 400 {string} string "invalid signature"
// @Router /webhooks/payments [post]
func webhookHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		result, err := svc.HandleWebhook(r.Context(), r.Header.Get(signatureHeader), payload)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidSignature):
				http.Error(w, "invalid signature", http.StatusBadRequest)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, webhookResponse{Received: true, Result: result})
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotConfigured):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, ErrNoAccount):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, shops.ErrNotFound):
		http.Error(w, "shop not found", http.StatusNotFound)
	default:
		http.Error(w, "payments provider error", http.StatusBadGateway)
	}
}

func toAccountResponse(a shops.PaymentAccount) accountResponse {
	return accountResponse{
		AccountID:        a.AccountID,
		ChargesEnabled:   a.ChargesEnabled,
		PayoutsEnabled:   a.PayoutsEnabled,
		DetailsSubmitted: a.DetailsSubmitted,
		UpdatedAt:        a.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
