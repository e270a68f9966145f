package shops

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"alterations-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/shops", createShopHandler(svc))
	r.Get("/shops/me", getMyShopHandler(svc))
	r.Patch("/shops/me", updateMyShopHandler(svc))
	r.Put("/shops/me/hours", setHoursHandler(svc))
}

type createShopRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Timezone string `json:"timezone"`
	Currency string `json:"currency"`
}

type updateShopRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Timezone *string `json:"timezone"`
	Currency *string `json:"currency"`
}

type hoursDTO struct {
	Weekday int    `json:"weekday"` // 0 = domingo
	Open    string `json:"open,omitempty"`
	Close   string `json:"close,omitempty"`
	Closed  bool   `json:"closed"`
}

type paymentAccountResponse struct {
	AccountID        string     `json:"account_id,omitempty"`
	ChargesEnabled   bool       `json:"charges_enabled"`
	PayoutsEnabled   bool       `json:"payouts_enabled"`
	DetailsSubmitted bool       `json:"details_submitted"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

type shopResponse struct {
	ID          string                 `json:"id"`
	OwnerUserID string                 `json:"owner_user_id"`
	Name        string                 `json:"name"`
	Email       string                 `json:"email"`
	Phone       string                 `json:"phone"`
	Address     string                 `json:"address"`
	Timezone    string                 `json:"timezone"`
	Currency    string                 `json:"currency"`
	Hours       []hoursDTO             `json:"working_hours"`
	Payments    paymentAccountResponse `json:"payments"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// createShopHandler godoc
// @Summary Crear taller
// @Description Crea el taller del usuario autenticado y siembra las etapas por defecto. Un usuario tiene un solo taller.
// @Tags shops
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createShopRequest true "Datos del taller"
// @Success 201 {object} shopResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 409 {string} string "shop already exists"
// @Router /shops [post]
func createShopHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createShopRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Email) == "" {
			req.Email = claims.Email
		}

		sh, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			Address:  req.Address,
			Timezone: req.Timezone,
			Currency: req.Currency,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toShopResponse(sh))
	}
}

func getMyShopHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		sh, err := svc.GetByID(r.Context(), t.ShopID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toShopResponse(sh))
	}
}

func updateMyShopHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateShopRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		sh, err := svc.Update(r.Context(), t.ShopID, UpdateInput{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			Address:  req.Address,
			Timezone: req.Timezone,
			Currency: req.Currency,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toShopResponse(sh))
	}
}

func setHoursHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		var req []hoursDTO
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		hours := make([]WorkingHours, 0, len(req))
		for _, h := range req {
			hours = append(hours, WorkingHours{
				Weekday: time.Weekday(h.Weekday),
				Open:    h.Open,
				Close:   h.Close,
				Closed:  h.Closed,
			})
		}

		sh, err := svc.SetHours(r.Context(), t.ShopID, hours)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toShopResponse(sh))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "shop not found", http.StatusNotFound)
	case errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toShopResponse(s Shop) shopResponse {
	hours := make([]hoursDTO, 0, len(s.Hours))
	for _, h := range s.Hours {
		hours = append(hours, hoursDTO{
			Weekday: int(h.Weekday),
			Open:    h.Open,
			Close:   h.Close,
			Closed:  h.Closed,
		})
	}
	return shopResponse{
		ID:          s.ID,
		OwnerUserID: s.OwnerUserID,
		Name:        s.Name,
		Email:       s.Email,
		Phone:       s.Phone,
		Address:     s.Address,
		Timezone:    s.Timezone,
		Currency:    s.Currency,
		Hours:       hours,
		Payments: paymentAccountResponse{
			AccountID:        s.Payments.AccountID,
			ChargesEnabled:   s.Payments.ChargesEnabled,
			PayoutsEnabled:   s.Payments.PayoutsEnabled,
			DetailsSubmitted: s.Payments.DetailsSubmitted,
			UpdatedAt:        s.Payments.UpdatedAt,
		},
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en cada módulo (igual que en el resto de handlers).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
