package timeentries

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"alterations-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/timer/start", startTimerHandler(svc))
	r.Post("/timer/stop", stopTimerHandler(svc))
	r.Get("/timer", currentTimerHandler(svc))
	r.Post("/garments/{garmentID}/time-entries", addManualHandler(svc))
	r.Get("/garments/{garmentID}/time-entries", listByGarmentHandler(svc))
	r.Delete("/time-entries/{entryID}", deleteEntryHandler(svc))
}

type startTimerRequest struct {
	GarmentID string `json:"garment_id"`
	Notes     string `json:"notes"`
}

type manualEntryRequest struct {
	Minutes   int        `json:"minutes"`
	StartedAt *time.Time `json:"started_at"`
	Notes     string     `json:"notes"`
}

type entryResponse struct {
	ID              string     `json:"id"`
	GarmentID       string     `json:"garment_id"`
	UserID          string     `json:"user_id"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Notes           string     `json:"notes"`
	Running         bool       `json:"running"`
}

type currentTimerResponse struct {
	Running bool           `json:"running"`
	Entry   *entryResponse `json:"entry,omitempty"`
}

type garmentEntriesResponse struct {
	Entries      []entryResponse `json:"entries"`
	TotalMinutes int             `json:"total_minutes"`
}

// startTimerHandler godoc
// @Summary Iniciar timer
// @Description Un usuario puede tener un solo timer en curso.
// @Tags time
// @Accept json
// @Produce json
// @Param payload body startTimerRequest true "Prenda"
// @Success 201 {object} entryResponse
// @Failure 409 {string} string "timer already running"
// @Router /timer/start [post]
func startTimerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		var req startTimerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		e, err := svc.Start(r.Context(), t.ShopID, t.UserID, req.GarmentID, req.Notes)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toEntryResponse(e))
	}
}

func stopTimerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		e, err := svc.Stop(r.Context(), t.ShopID, t.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEntryResponse(e))
	}
}

func currentTimerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		e, running, err := svc.Current(r.Context(), t.ShopID, t.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		resp := currentTimerResponse{Running: running}
		if running {
			er := toEntryResponse(e)
			resp.Entry = &er
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func addManualHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		var req manualEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := ManualInput{Minutes: req.Minutes, Notes: req.Notes}
		if req.StartedAt != nil {
			in.StartedAt = *req.StartedAt
		}

		e, err := svc.AddManual(r.Context(), t.ShopID, t.UserID, chi.URLParam(r, "garmentID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toEntryResponse(e))
	}
}

func listByGarmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		items, total, err := svc.ListByGarment(r.Context(), t.ShopID, chi.URLParam(r, "garmentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := garmentEntriesResponse{Entries: make([]entryResponse, 0, len(items)), TotalMinutes: total}
		for _, e := range items {
			out.Entries = append(out.Entries, toEntryResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func deleteEntryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), t.ShopID, chi.URLParam(r, "entryID")); err != nil {
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
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotRunning):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toEntryResponse(e Entry) entryResponse {
	return entryResponse{
		ID:              e.ID,
		GarmentID:       e.GarmentID,
		UserID:          e.UserID,
		StartedAt:       e.StartedAt,
		EndedAt:         e.EndedAt,
		DurationMinutes: e.DurationMinutes,
		Notes:           e.Notes,
		Running:         e.Running(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
