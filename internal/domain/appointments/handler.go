package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"alterations-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/appointments", listAppointmentsHandler(svc))
	r.Post("/appointments", createAppointmentHandler(svc))
	r.Get("/appointments/{appointmentID}", getAppointmentHandler(svc))
	r.Patch("/appointments/{appointmentID}", updateAppointmentHandler(svc))
	r.Post("/appointments/{appointmentID}/status", setStatusHandler(svc))
}

type createAppointmentRequest struct {
	ClientID string    `json:"client_id"`
	Type     string    `json:"type"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Notes    string    `json:"notes"`
}

type updateAppointmentRequest struct {
	Type     *string    `json:"type"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	Notes    *string    `json:"notes"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type appointmentResponse struct {
	ID             string     `json:"id"`
	ClientID       string     `json:"client_id"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	StartsAt       time.Time  `json:"starts_at"`
	EndsAt         time.Time  `json:"ends_at"`
	Notes          string     `json:"notes"`
	ReminderSentAt *time.Time `json:"reminder_sent_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// listAppointmentsHandler godoc
// @Summary Calendario de citas
// @Tags appointments
// @Produce json
// @Param from query string true "RFC3339"
// @Param to query string true "RFC3339, máximo 62 días después de from"
// @Success 200 {array} appointmentResponse
// @Failure 400 {string} string "rango inválido"
// @Router /appointments [get]
func listAppointmentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		from, err := time.Parse(time.RFC3339, q.Get("from"))
		if err != nil {
			http.Error(w, "from must be RFC3339", http.StatusBadRequest)
			return
		}
		to, err := time.Parse(time.RFC3339, q.Get("to"))
		if err != nil {
			http.Error(w, "to must be RFC3339", http.StatusBadRequest)
			return
		}

		items, err := svc.List(r.Context(), t.ShopID, from, to)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]appointmentResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAppointmentResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// createAppointmentHandler godoc
// @Summary Agendar cita
// @Description Debe caer dentro del horario del taller y no cruzarse con otra cita no cancelada.
// @Tags appointments
// @Accept json
// @Produce json
// @Param payload body createAppointmentRequest true "Cita"
// @Success 201 {object} appointmentResponse
// @Failure 400 {string} string "reglas de negocio"
// @Failure 409 {string} string "overlap"
// @Router /appointments [post]
func createAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		var req createAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Create(r.Context(), t.ShopID, CreateInput{
			ClientID: req.ClientID,
			Type:     req.Type,
			StartsAt: req.StartsAt,
			EndsAt:   req.EndsAt,
			Notes:    req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAppointmentResponse(a))
	}
}

func getAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		a, err := svc.Get(r.Context(), t.ShopID, chi.URLParam(r, "appointmentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(a))
	}
}

func updateAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateAppointmentRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Update(r.Context(), t.ShopID, chi.URLParam(r, "appointmentID"), UpdateInput{
			Type:     req.Type,
			StartsAt: req.StartsAt,
			EndsAt:   req.EndsAt,
			Notes:    req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(a))
	}
}

func setStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		var req setStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.SetStatus(r.Context(), t.ShopID, chi.URLParam(r, "appointmentID"), Status(req.Status))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(a))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toAppointmentResponse(a Appointment) appointmentResponse {
	return appointmentResponse{
		ID:             a.ID,
		ClientID:       a.ClientID,
		Type:           string(a.Type),
		Status:         string(a.Status),
		StartsAt:       a.StartsAt,
		EndsAt:         a.EndsAt,
		Notes:          a.Notes,
		ReminderSentAt: a.ReminderSentAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
