package orders

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"alterations-manager/internal/domain/garments"
	"alterations-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/orders", createOrderHandler(svc))
	r.Get("/orders", listOrdersHandler(svc))
	r.Get("/orders/{orderID}", getOrderHandler(svc))
	r.Patch("/orders/{orderID}/status", setStatusHandler(svc))
	r.Post("/orders/{orderID}/payments", recordPaymentHandler(svc))
	r.Get("/clients/{clientID}/orders", listClientOrdersHandler(svc))
}

type garmentRequest struct {
	Name      string                    `json:"name"`
	Notes     string                    `json:"notes"`
	DueDate   string                    `json:"due_date"`
	EventDate string                    `json:"event_date"`
	PhotoURL  string                    `json:"photo_url"`
	Services  []garments.ServiceRequest `json:"services"`
}

type createOrderRequest struct {
	ClientID      string           `json:"client_id"`
	DueDate       string           `json:"due_date"`
	DiscountCents int64            `json:"discount_cents"`
	Notes         string           `json:"notes"`
	Garments      []garmentRequest `json:"garments"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type recordPaymentRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
	Note        string `json:"note"`
}

type summaryResponse struct {
	SubtotalCents int64  `json:"subtotal_cents"`
	DiscountCents int64  `json:"discount_cents"`
	TotalCents    int64  `json:"total_cents"`
	PaidCents     int64  `json:"paid_cents"`
	BalanceCents  int64  `json:"balance_cents"`
	PaymentStatus string `json:"payment_status"`
}

type paymentResponse struct {
	ID          string    `json:"id"`
	AmountCents int64     `json:"amount_cents"`
	Method      string    `json:"method"`
	ExternalID  string    `json:"external_id,omitempty"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type orderResponse struct {
	ID        string          `json:"id"`
	Number    int             `json:"order_number"`
	ClientID  string          `json:"client_id"`
	Status    string          `json:"status"`
	Notes     string          `json:"notes"`
	DueDate   *string         `json:"due_date"`
	Summary   summaryResponse `json:"summary"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type orderDetailResponse struct {
	orderResponse
	Garments []garments.GarmentResponse `json:"garments"`
	Payments []paymentResponse          `json:"payments"`
}

// createOrderHandler godoc
// @Summary Crear orden
// @Description Crea la orden con sus prendas (al menos una). Las prendas arrancan en la primera etapa.
// @Tags orders
// @Accept json
// @Produce json
// @Param payload body createOrderRequest true "Orden"
// @Success 201 {object} orderDetailResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Router /orders [post]
func createOrderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		var req createOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := CreateInput{
			ClientID:      req.ClientID,
			DueDate:       req.DueDate,
			DiscountCents: req.DiscountCents,
			Notes:         req.Notes,
		}
		for _, g := range req.Garments {
			gi := garments.GarmentInput{
				Name:      g.Name,
				Notes:     g.Notes,
				PhotoURL:  g.PhotoURL,
				DueDate:   g.DueDate,
				EventDate: g.EventDate,
			}
			for _, s := range g.Services {
				gi.Services = append(gi.Services, s.Input())
			}
			in.Garments = append(in.Garments, gi)
		}

		d, err := svc.Create(r.Context(), t.ShopID, in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDetailResponse(d))
	}
}

// listOrdersHandler godoc
// @Summary Listar órdenes
// @Tags orders
// @Produce json
// @Param status query string false "pending|in_progress|ready|completed|cancelled"
// @Param client_id query string false "Cliente"
// @Param limit query int false "1-200, por defecto 50"
// @Param offset query int false "Desplazamiento"
// @Success 200 {array} orderResponse
// @Router /orders [get]
func listOrdersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		filter := ListFilter{
			Status:   Status(q.Get("status")),
			ClientID: q.Get("client_id"),
		}
		if v, err := strconv.Atoi(q.Get("limit")); err == nil {
			filter.Limit = v
		}
		if v, err := strconv.Atoi(q.Get("offset")); err == nil {
			filter.Offset = v
		}

		items, err := svc.List(r.Context(), t.ShopID, filter)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toListResponse(items))
	}
}

func listClientOrdersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		items, err := svc.ListByClient(r.Context(), t.ShopID, chi.URLParam(r, "clientID"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "client not found", http.StatusNotFound)
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toListResponse(items))
	}
}

func getOrderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		d, err := svc.Get(r.Context(), t.ShopID, chi.URLParam(r, "orderID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDetailResponse(d))
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

		o, err := svc.SetStatus(r.Context(), t.ShopID, chi.URLParam(r, "orderID"), Status(req.Status))
		if err != nil {
			writeError(w, err)
			return
		}
		d, err := svc.Get(r.Context(), t.ShopID, o.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDetailResponse(d))
	}
}

// recordPaymentHandler godoc
// @Summary Registrar pago
// @Tags orders
// @Accept json
// @Produce json
// @Param orderID path string true "Order ID"
// @Param payload body recordPaymentRequest true "Pago"
// @Success 201 {object} orderDetailResponse
// @Failure 400 {string} string "monto o método inválido"
// @Failure 409 {string} string "orden cancelada"
// @Router /orders/{orderID}/payments [post]
func recordPaymentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.RequireTenant(w, r)
		if !ok {
			return
		}

		var req recordPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		d, err := svc.RecordPayment(r.Context(), t.ShopID, chi.URLParam(r, "orderID"), PaymentInput{
			AmountCents: req.AmountCents,
			Method:      PaymentMethod(req.Method),
			Note:        req.Note,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDetailResponse(d))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicatePayment):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toOrderResponse(o Order, s Summary) orderResponse {
	return orderResponse{
		ID:       o.ID,
		Number:   o.Number,
		ClientID: o.ClientID,
		Status:   string(o.Status),
		Notes:    o.Notes,
		DueDate:  garments.FormatDate(o.DueDate),
		Summary: summaryResponse{
			SubtotalCents: s.SubtotalCents,
			DiscountCents: s.DiscountCents,
			TotalCents:    s.TotalCents,
			PaidCents:     s.PaidCents,
			BalanceCents:  s.BalanceCents,
			PaymentStatus: string(s.PaymentStatus),
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func toListResponse(items []Listed) []orderResponse {
	out := make([]orderResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toOrderResponse(it.Order, it.Summary))
	}
	return out
}

func toDetailResponse(d Detail) orderDetailResponse {
	payments := make([]paymentResponse, 0, len(d.Payments))
	for _, p := range d.Payments {
		payments = append(payments, paymentResponse{
			ID:          p.ID,
			AmountCents: p.AmountCents,
			Method:      string(p.Method),
			ExternalID:  p.ExternalID,
			Note:        p.Note,
			CreatedAt:   p.CreatedAt,
		})
	}
	return orderDetailResponse{
		orderResponse: toOrderResponse(d.Order, d.Summary),
		Garments:      garments.ToGarmentResponses(d.Garments),
		Payments:      payments,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
