package middleware

import (
	"log/slog"
	"net/http"

	"github.com/FernandoCarrilho/Ve-Joias/pkg/logger"
)

// RequestLogger builds a request-scoped logger enriched with
// correlation_id, customer_id, trace_id, and span_id, and stores it in
// context via logger.NewContext. Downstream code retrieves it with
// logger.FromContext(ctx).
//
// Mount AFTER RequestLogging (sets correlation_id) and Tracing (sets the
// span context).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if customerID := r.Header.Get("X-Customer-ID"); customerID != "" {
				ctx = logger.WithCustomerID(ctx, customerID)
			}

			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
