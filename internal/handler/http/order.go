package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FernandoCarrilho/Ve-Joias/pkg/httputil"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/pagination"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/validator"

	"github.com/FernandoCarrilho/Ve-Joias/internal/service"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates an order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		logger:  logger,
	}
}

// UpdateStatusRequest is the JSON request body for a fulfillment status
// update.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid processing shipped delivered canceled"`
}

// List handles GET /api/v1/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	customerID, ok := requireCustomerID(w, r)
	if !ok {
		return
	}

	params := pagination.FromRequest(r)
	status := r.URL.Query().Get("status")

	result, err := h.service.List(r.Context(), customerID, status, params)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// Get handles GET /api/v1/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	customerID, ok := requireCustomerID(w, r)
	if !ok {
		return
	}

	order, err := h.service.Get(r.Context(), customerID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /api/v1/orders/{id}/status. It drives
// fulfillment transitions (paid to processing to shipped to delivered)
// and cancellations.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req UpdateStatusRequest
	if err := validator.DecodeAndValidate(r.Body, &req); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			httputil.WriteValidationError(w, r, err)
			return
		}
		httputil.WriteError(w, r, invalidBody(err))
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, order)
}
