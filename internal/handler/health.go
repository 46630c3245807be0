package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ironreach/reactor-twin/internal/engine"
)

// HealthHandler reports engine liveness.
type HealthHandler struct {
	engine *engine.Engine
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(e *engine.Engine) *HealthHandler {
	return &HealthHandler{engine: e}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	engineState := "stopped"
	status := http.StatusServiceUnavailable
	if h.engine.Running() {
		engineState = "running"
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{
		"status":  "healthy",
		"engine":  engineState,
		"samples": h.engine.Twin().SampleCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
