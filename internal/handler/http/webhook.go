package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/FernandoCarrilho/Ve-Joias/pkg/errors"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/httputil"

	"github.com/FernandoCarrilho/Ve-Joias/internal/service"
)

// WebhookHandler receives payment provider webhooks and hands them to
// the reconciler.
type WebhookHandler struct {
	reconciler *service.ReconcilerService
	logger     *slog.Logger
}

// NewWebhookHandler creates a webhook HTTP handler.
func NewWebhookHandler(reconciler *service.ReconcilerService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// webhookRequest matches the provider's notification shape. Older
// notifications carry "topic" instead of "type".
type webhookRequest struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
	Data  struct {
		ID string `json:"id"`
	} `json:"data"`
}

// HandlePayment handles POST /api/v1/payments/webhook. Payment
// notifications are always acknowledged with 200 once recognized:
// returning an error would only make the provider hammer us with
// retries for a failure on our side, and reconciliation re-verifies
// against the provider anyway. Unrecognized payloads get a 400.
func (h *WebhookHandler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, invalidBody(err))
		return
	}

	kind := req.Type
	if kind == "" {
		kind = req.Topic
	}
	if kind != "payment" {
		httputil.WriteError(w, r, apperrors.InvalidInput("unsupported webhook type: "+kind))
		return
	}
	if req.Data.ID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("webhook data.id is required"))
		return
	}

	if err := h.reconciler.Reconcile(r.Context(), req.Data.ID); err != nil {
		h.logger.ErrorContext(r.Context(), "webhook reconciliation failed",
			slog.String("transaction_ref", req.Data.ID),
			slog.String("error", err.Error()),
		)
	}

	httputil.WriteJSON(w, http.StatusOK, nil)
}
