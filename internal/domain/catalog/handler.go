package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"alterations-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/catalog", createItemHandler(svc))
	r.Get("/catalog", listItemsHandler(svc))
	r.Get("/catalog/{itemID}", getItemHandler(svc))
	r.Patch("/catalog/{itemID}", updateItemHandler(svc))
	r.Delete("/catalog/{itemID}", deleteItemHandler(svc))
}

type createItemRequest struct {
	Name                  string  `json:"name"`
	Description           string  `json:"description"`
	DefaultQuantity       float64 `json:"default_quantity"`
	DefaultUnit           string  `json:"default_unit"`
	DefaultUnitPriceCents int64   `json:"default_unit_price_cents"`
	FrequentlyUsed        bool    `json:"frequently_used"`
}

type updateItemRequest struct {
	Name                  *string  `json:"name"`
	Description           *string  `json:"description"`
	DefaultQuantity       *float64 `json:"default_quantity"`
	DefaultUnit           *string  `json:"default_unit"`
	DefaultUnitPriceCents *int64   `json:"default_unit_price_cents"`
	FrequentlyUsed        *bool    `json:"frequently_used"`
}

type itemResponse struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Description           string    `json:"description"`
	DefaultQuantity       float64   `json:"default_quantity"`
	DefaultUnit           string    `json:"default_unit"`
	DefaultUnitPriceCents int64     `json:"default_unit_price_cents"`
	FrequentlyUsed        bool      `json:"frequently_used"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// createItemHandler godoc
// @Summary Crear servicio del catálogo
// @Tags catalog
// @Accept json
// @Produce json
// @Param payload body createItemRequest true "Servicio"
// @Success 201 {object} itemResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Router /catalog [post]
func createItemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		var req createItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		it, err := svc.Create(r.Context(), t.ShopID, CreateInput{
			Name:                  req.Name,
			Description:           req.Description,
			DefaultQuantity:       req.DefaultQuantity,
			DefaultUnit:           req.DefaultUnit,
			DefaultUnitPriceCents: req.DefaultUnitPriceCents,
			FrequentlyUsed:        req.FrequentlyUsed,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toItemResponse(it))
	}
}

func listItemsHandler(svc *Service) http.HandlerFunc {
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
		out := make([]itemResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toItemResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getItemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		it, err := svc.Get(r.Context(), t.ShopID, chi.URLParam(r, "itemID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(it))
	}
}

func updateItemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateItemRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		it, err := svc.Update(r.Context(), t.ShopID, chi.URLParam(r, "itemID"), UpdateInput{
			Name:                  req.Name,
			Description:           req.Description,
			DefaultQuantity:       req.DefaultQuantity,
			DefaultUnit:           req.DefaultUnit,
			DefaultUnitPriceCents: req.DefaultUnitPriceCents,
			FrequentlyUsed:        req.FrequentlyUsed,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(it))
	}
}

func deleteItemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), t.ShopID, chi.URLParam(r, "itemID")); err != nil {
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
		http.Error(w, "catalog item not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toItemResponse(it Item) itemResponse {
	return itemResponse{
		ID:                    it.ID,
		Name:                  it.Name,
		Description:           it.Description,
		DefaultQuantity:       it.DefaultQuantity,
		DefaultUnit:           string(it.DefaultUnit),
		DefaultUnitPriceCents: it.DefaultUnitPriceCents,
		FrequentlyUsed:        it.FrequentlyUsed,
		CreatedAt:             it.CreatedAt,
		UpdatedAt:             it.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
