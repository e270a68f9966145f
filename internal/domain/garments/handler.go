package garments

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
	r.Get("/garments", listGarmentsHandler(svc))
	r.Get("/garments/{garmentID}", getGarmentHandler(svc))
	r.Patch("/garments/{garmentID}", updateGarmentHandler(svc))
	r.Post("/garments/{garmentID}/stage", moveStageHandler(svc))
	r.Post("/garments/{garmentID}/services", addServiceHandler(svc))
	r.Patch("/garments/{garmentID}/services/{serviceID}", updateServiceHandler(svc))
	r.Delete("/garments/{garmentID}/services/{serviceID}", deleteServiceHandler(svc))
}

// ServiceRequest también lo usa orders al crear prendas.
type ServiceRequest struct {
	CatalogItemID  string   `json:"catalog_item_id"`
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	Quantity       *float64 `json:"quantity"`
	Unit           *string  `json:"unit"`
	UnitPriceCents *int64   `json:"unit_price_cents"`
}

func (r ServiceRequest) Input() ServiceInput {
	return ServiceInput{
		CatalogItemID:  r.CatalogItemID,
		Name:           r.Name,
		Description:    r.Description,
		Quantity:       r.Quantity,
		Unit:           r.Unit,
		UnitPriceCents: r.UnitPriceCents,
	}
}

type updateGarmentRequest struct {
	Name      *string   `json:"name"`
	Notes     *string   `json:"notes"`
	PhotoURL  *string   `json:"photo_url"`
	DueDate   PatchDate `json:"due_date"`
	EventDate PatchDate `json:"event_date"`
}

type moveStageRequest struct {
	StageID string `json:"stage_id"`
}

type updateServiceRequest struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	Quantity       *float64 `json:"quantity"`
	Unit           *string  `json:"unit"`
	UnitPriceCents *int64   `json:"unit_price_cents"`
	IsDone         *bool    `json:"is_done"`
}

type LineItemResponse struct {
	ID             string  `json:"id"`
	CatalogItemID  string  `json:"catalog_item_id,omitempty"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	LineTotalCents int64   `json:"line_total_cents"`
	IsDone         bool    `json:"is_done"`
}

type GarmentResponse struct {
	ID            string             `json:"id"`
	OrderID       string             `json:"order_id"`
	ClientID      string             `json:"client_id"`
	Name          string             `json:"name"`
	Notes         string             `json:"notes"`
	StageID       string             `json:"stage_id"`
	PhotoURL      string             `json:"photo_url,omitempty"`
	DueDate       *string            `json:"due_date"`
	EventDate     *string            `json:"event_date"`
	DoneAt        *time.Time         `json:"done_at"`
	SubtotalCents int64              `json:"subtotal_cents"`
	Services      []LineItemResponse `json:"services"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// listGarmentsHandler godoc
// @Summary Listar prendas
// @Description Tablero de prendas filtrable por etapa, cliente y fecha de entrega.
// @Tags garments
// @Produce json
// @Param stage_id query string false "Etapa"
// @Param client_id query string false "Cliente"
// @Param due_before query string false "YYYY-MM-DD"
// @Param limit query int false "1-500, por defecto 100"
// @Success 200 {array} GarmentResponse
// @Router /garments [get]
func listGarmentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		filter := ListFilter{
			StageID:  q.Get("stage_id"),
			ClientID: q.Get("client_id"),
		}
		due, err := ParseDate(q.Get("due_before"))
		if err != nil {
			http.Error(w, "invalid due_before", http.StatusBadRequest)
			return
		}
		filter.DueBefore = due
		if v, err := strconv.Atoi(q.Get("limit")); err == nil {
			filter.Limit = v
		}

		items, err := svc.List(r.Context(), t.ShopID, filter)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToGarmentResponses(items))
	}
}

func getGarmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		g, err := svc.Get(r.Context(), t.ShopID, chi.URLParam(r, "garmentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToGarmentResponse(g))
	}
}

func updateGarmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateGarmentRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.Update(r.Context(), t.ShopID, chi.URLParam(r, "garmentID"), UpdateInput{
			Name:      req.Name,
			Notes:     req.Notes,
			PhotoURL:  req.PhotoURL,
			DueDate:   req.DueDate,
			EventDate: req.EventDate,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToGarmentResponse(g))
	}
}

// moveStageHandler godoc
// @Summary Mover prenda de etapa
// @Description Llegar a la última etapa marca la prenda como terminada y publica garment.ready.
// @Tags garments
// @Accept json
// @Produce json
// @Param garmentID path string true "Garment ID"
// @Param payload body moveStageRequest true "Etapa destino"
// @Success 200 {object} GarmentResponse
// @Failure 400 {string} string "etapa inválida"
// @Failure 404 {string} string "garment not found"
// @Router /garments/{garmentID}/stage [post]
func moveStageHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		var req moveStageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.MoveStage(r.Context(), t.ShopID, chi.URLParam(r, "garmentID"), req.StageID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToGarmentResponse(g))
	}
}

func addServiceHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		var req ServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		l, err := svc.AddService(r.Context(), t.ShopID, chi.URLParam(r, "garmentID"), req.Input())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toLineItemResponse(l))
	}
}

func updateServiceHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateServiceRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		l, err := svc.UpdateService(r.Context(), t.ShopID, chi.URLParam(r, "garmentID"), chi.URLParam(r, "serviceID"), ServicePatch{
			Name:           req.Name,
			Description:    req.Description,
			Quantity:       req.Quantity,
			Unit:           req.Unit,
			UnitPriceCents: req.UnitPriceCents,
			IsDone:         req.IsDone,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toLineItemResponse(l))
	}
}

func deleteServiceHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteService(r.Context(), t.ShopID, chi.URLParam(r, "garmentID"), chi.URLParam(r, "serviceID")); err != nil {
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
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrServiceNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toLineItemResponse(l LineItem) LineItemResponse {
	return LineItemResponse{
		ID:             l.ID,
		CatalogItemID:  l.CatalogItemID,
		Name:           l.Name,
		Description:    l.Description,
		Quantity:       l.Quantity,
		Unit:           string(l.Unit),
		UnitPriceCents: l.UnitPriceCents,
		LineTotalCents: l.TotalCents(),
		IsDone:         l.IsDone,
	}
}

func ToGarmentResponse(g Garment) GarmentResponse {
	services := make([]LineItemResponse, 0, len(g.Services))
	for _, l := range g.Services {
		services = append(services, toLineItemResponse(l))
	}
	return GarmentResponse{
		ID:            g.ID,
		OrderID:       g.OrderID,
		ClientID:      g.ClientID,
		Name:          g.Name,
		Notes:         g.Notes,
		StageID:       g.StageID,
		PhotoURL:      g.PhotoURL,
		DueDate:       FormatDate(g.DueDate),
		EventDate:     FormatDate(g.EventDate),
		DoneAt:        g.DoneAt,
		SubtotalCents: g.SubtotalCents(),
		Services:      services,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

func ToGarmentResponses(items []Garment) []GarmentResponse {
	out := make([]GarmentResponse, 0, len(items))
	for _, g := range items {
		out = append(out, ToGarmentResponse(g))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
