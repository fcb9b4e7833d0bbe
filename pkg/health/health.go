// Package health provides liveness and readiness HTTP handlers with
// pluggable dependency checkers.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/FernandoCarrilho/Ve-Joias/pkg/httputil"
)

const checkTimeout = 5 * time.Second

// Checker verifies one dependency (postgres, redis, kafka).
type Checker func(ctx context.Context) error

// Handler serves /health/live and /health/ready.
type Handler struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	logger   *slog.Logger
}

// NewHandler creates a health handler.
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{
		checkers: make(map[string]Checker),
		logger:   logger,
	}
}

// Register adds a named dependency checker consulted by readiness.
func (h *Handler) Register(name string, c Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = c
}

// LivenessHandler always reports up: the process is running.
func (h *Handler) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "up"})
}

// ReadinessHandler runs every registered checker with a shared timeout and
// reports 503 if any dependency is down.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	h.mu.RLock()
	checkers := make(map[string]Checker, len(h.checkers))
	for name, c := range h.checkers {
		checkers[name] = c
	}
	h.mu.RUnlock()

	status := http.StatusOK
	results := make(map[string]string, len(checkers))
	for name, check := range checkers {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = "down"
			h.logger.WarnContext(ctx, "readiness check failed",
				slog.String("dependency", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		results[name] = "up"
	}

	overall := "up"
	if status != http.StatusOK {
		overall = "down"
	}

	httputil.WriteJSON(w, status, map[string]any{
		"status":       overall,
		"dependencies": results,
	})
}
