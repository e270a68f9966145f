package clients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"alterations-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/clients", createClientHandler(svc))
	r.Get("/clients", listClientsHandler(svc))
	r.Get("/clients/{clientID}", getClientHandler(svc))
	r.Patch("/clients/{clientID}", updateClientHandler(svc))
	r.Delete("/clients/{clientID}", deleteClientHandler(svc))
}

type createClientRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	MailingAddress string `json:"mailing_address"`
	Notes          string `json:"notes"`
	AcceptEmail    bool   `json:"accept_email"`
	AcceptSMS      bool   `json:"accept_sms"`
}

type updateClientRequest struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	MailingAddress *string `json:"mailing_address"`
	Notes          *string `json:"notes"`
	AcceptEmail    *bool   `json:"accept_email"`
	AcceptSMS      *bool   `json:"accept_sms"`
}

type clientResponse struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	MailingAddress string    `json:"mailing_address"`
	Notes          string    `json:"notes"`
	AcceptEmail    bool      `json:"accept_email"`
	AcceptSMS      bool      `json:"accept_sms"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// createClientHandler godoc
// @Summary Crear cliente
// @Description Registra un cliente del taller. Requiere nombre, apellido y al menos email o teléfono.
// @Tags clients
// @Accept json
// @Produce json
// @Param payload body createClientRequest true "Datos del cliente"
// @Success 201 {object} clientResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "shop required"
// @Router /clients [post]
func createClientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		var req createClientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.Create(r.Context(), t.ShopID, CreateInput{
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			Email:          req.Email,
			Phone:          req.Phone,
			MailingAddress: req.MailingAddress,
			Notes:          req.Notes,
			AcceptEmail:    req.AcceptEmail,
			AcceptSMS:      req.AcceptSMS,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toClientResponse(c))
	}
}

// listClientsHandler godoc
// @Summary Buscar clientes
// @Tags clients
// @Produce json
// @Param q query string false "Texto libre sobre nombre, email o teléfono"
// @Param limit query int false "1-200, por defecto 50"
// @Param offset query int false "Desplazamiento"
// @Success 200 {array} clientResponse
// @Router /clients [get]
func listClientsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		filter := SearchFilter{Query: q.Get("q")}
		if v, err := strconv.Atoi(q.Get("limit")); err == nil {
			filter.Limit = v
		}
		if v, err := strconv.Atoi(q.Get("offset")); err == nil {
			filter.Offset = v
		}

		items, err := svc.Search(r.Context(), t.ShopID, filter)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]clientResponse, 0, len(items))
		for _, c := range items {
			out = append(out, toClientResponse(c))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getClientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		c, err := svc.Get(r.Context(), t.ShopID, chi.URLParam(r, "clientID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toClientResponse(c))
	}
}

func updateClientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateClientRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.Update(r.Context(), t.ShopID, chi.URLParam(r, "clientID"), UpdateInput{
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			Email:          req.Email,
			Phone:          req.Phone,
			MailingAddress: req.MailingAddress,
			Notes:          req.Notes,
			AcceptEmail:    req.AcceptEmail,
			AcceptSMS:      req.AcceptSMS,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toClientResponse(c))
	}
}

func deleteClientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), t.ShopID, chi.URLParam(r, "clientID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "client not found", http.StatusNotFound)
	case errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toClientResponse(c Client) clientResponse {
	return clientResponse{
		ID:             c.ID,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		FullName:       c.FullName(),
		Email:          c.Email,
		Phone:          c.Phone,
		MailingAddress: c.MailingAddress,
		Notes:          c.Notes,
		AcceptEmail:    c.AcceptEmail,
		AcceptSMS:      c.AcceptSMS,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
