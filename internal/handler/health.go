package handler

import (
	"net/http"
	"time"
)

// HealthHandler reports liveness and the configured collaborators.
type HealthHandler struct {
	provider string
	billing  bool
	started  time.Time
}

// NewHealthHandler creates a health handler. provider names the AI backend.
func NewHealthHandler(provider string, billingEnabled bool, started time.Time) *HealthHandler {
	return &HealthHandler{provider: provider, billing: billingEnabled, started: started}
}

// RegisterRoutes registers GET /health.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.ServeHTTP)
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"provider": h.provider,
		"billing":  h.billing,
		"uptime":   time.Since(h.started).Truncate(time.Second).String(),
	})
}
