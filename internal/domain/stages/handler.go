package stages

import (
	"encoding/json"
	"errors"
	"net/http"

	"alterations-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/stages", listStagesHandler(svc))
	r.Post("/stages", createStageHandler(svc))
	r.Put("/stages", customizeStagesHandler(svc))
}

type createStageRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type stageItemRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type customizeStagesRequest struct {
	Stages   []stageItemRequest `json:"stages"`
	Reassign map[string]string  `json:"reassign"`
}

type stageResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Position     int    `json:"position"`
	Color        string `json:"color"`
	GarmentCount int    `json:"garment_count"`
}

func listStagesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		items, err := svc.List(r.Context(), t.ShopID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toStageResponses(items))
	}
}

func createStageHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		var req createStageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		st, err := svc.Create(r.Context(), t.ShopID, CreateInput{Name: req.Name, Color: req.Color})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toStageResponse(st))
	}
}

// customizeStagesHandler godoc
// @Summary Personalizar etapas
// @Description Reemplaza el flujo completo. Las etapas omitidas se borran; si tienen prendas, "reassign" indica el destino (id existente o "new:<índice>").
// @Tags stages
// @Accept json
// @Produce json
// @Param payload body customizeStagesRequest true "Lista deseada en orden"
// @Success 200 {array} stageResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 409 {string} string "etapa con prendas sin destino"
// @Router /stages [put]
func customizeStagesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		var req customizeStagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := CustomizeInput{Reassign: req.Reassign}
		for _, s := range req.Stages {
			in.Stages = append(in.Stages, StageInput{ID: s.ID, Name: s.Name, Color: s.Color})
		}

		items, err := svc.Customize(r.Context(), t.ShopID, in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toStageResponses(items))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "stage not found", http.StatusNotFound)
	case errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toStageResponse(st Stage) stageResponse {
	return stageResponse{
		ID:           st.ID,
		Name:         st.Name,
		Position:     st.Position,
		Color:        st.Color,
		GarmentCount: st.GarmentCount,
	}
}

func toStageResponses(items []Stage) []stageResponse {
	out := make([]stageResponse, 0, len(items))
	for _, st := range items {
		out = append(out, toStageResponse(st))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
