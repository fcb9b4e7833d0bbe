// Package http exposes the REST API: checkout, cart, orders and the
// payment webhook.
package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/FernandoCarrilho/Ve-Joias/pkg/httputil"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/validator"

	"github.com/FernandoCarrilho/Ve-Joias/internal/service"
)

// CheckoutHandler handles HTTP requests for the checkout endpoint.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// Checkout handles POST /api/v1/checkout. It places an order from the
// customer's cart. Requires the X-Customer-ID header.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	customerID, ok := requireCustomerID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var input service.CheckoutInput
	if err := validator.DecodeAndValidate(r.Body, &input); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			httputil.WriteValidationError(w, r, err)
			return
		}
		httputil.WriteError(w, r, invalidBody(err))
		return
	}

	order, err := h.service.Checkout(r.Context(), customerID, &input)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, order)
}
