package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FernandoCarrilho/Ve-Joias/pkg/httputil"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/validator"

	"github.com/FernandoCarrilho/Ve-Joias/internal/service"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// AddItemRequest is the JSON request body for adding a cart item.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// UpdateItemRequest is the JSON request body for setting a cart item
// quantity. Zero removes the item.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// Get handles GET /api/v1/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	customerID, ok := requireCustomerID(w, r)
	if !ok {
		return
	}

	view, err := h.service.Get(r.Context(), customerID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, view)
}

// AddItem handles POST /api/v1/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := requireCustomerID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req AddItemRequest
	if err := validator.DecodeAndValidate(r.Body, &req); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			httputil.WriteValidationError(w, r, err)
			return
		}
		httputil.WriteError(w, r, invalidBody(err))
		return
	}

	view, err := h.service.AddItem(r.Context(), customerID, req.ProductID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, view)
}

// UpdateItem handles PUT /api/v1/cart/items/{productID}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := requireCustomerID(w, r)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "productID")

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req UpdateItemRequest
	if err := validator.DecodeAndValidate(r.Body, &req); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			httputil.WriteValidationError(w, r, err)
			return
		}
		httputil.WriteError(w, r, invalidBody(err))
		return
	}

	view, err := h.service.UpdateItemQuantity(r.Context(), customerID, productID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, view)
}

// RemoveItem handles DELETE /api/v1/cart/items/{productID}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := requireCustomerID(w, r)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "productID")

	view, err := h.service.RemoveItem(r.Context(), customerID, productID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, view)
}

// Clear handles DELETE /api/v1/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	customerID, ok := requireCustomerID(w, r)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), customerID); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusNoContent, nil)
}
