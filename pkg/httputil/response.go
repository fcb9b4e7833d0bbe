// Package httputil provides the JSON response envelope shared by every
// HTTP handler in the service.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/FernandoCarrilho/Ve-Joias/pkg/errors"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/logger"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/validator"
)

// Response is the envelope for all JSON responses: exactly one of Data or
// Error is set.
type Response struct {
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody carries the machine-readable error code and customer-safe
// message, plus per-field details for validation failures.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes a success envelope with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(Response{Data: data}); err != nil {
		slog.Error("encode response", slog.String("error", err.Error()))
	}
}

// WriteError writes an error envelope. AppErrors keep their code and
// message; anything else is reported as a generic internal error. Server
// faults (5xx) are logged with the full cause chain.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)

	body := &ErrorBody{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body.Code = appErr.Code
		body.Message = appErr.Message
	}

	if status >= http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "request failed",
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}

	writeEnvelope(w, status, Response{Error: body})
}

// WriteValidationError writes a 400 with per-field messages when err is a
// *validator.ValidationError, and falls back to WriteError otherwise.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validator.ValidationError
	if !errors.As(err, &verr) {
		WriteError(w, r, apperrors.InvalidInput(err.Error()))
		return
	}

	writeEnvelope(w, http.StatusBadRequest, Response{Error: &ErrorBody{
		Code:    "VALIDATION_FAILED",
		Message: "one or more fields are invalid",
		Fields:  verr.Fields(),
	}})
}

// ParseUUID parses a path or query parameter as a UUID, returning an
// InvalidInput error naming the parameter on failure.
func ParseUUID(value, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperrors.InvalidInput(name + " must be a valid UUID")
	}
	return id, nil
}

func writeEnvelope(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("encode response", slog.String("error", err.Error()))
	}
}
