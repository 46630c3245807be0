package handler

import (
	"net/http"

	"github.com/ironreach/reactor-twin/internal/twin"
)

// StateHandler exposes the current twin snapshot over plain HTTP for
// consumers that do not hold a websocket.
type StateHandler struct {
	twin *twin.State
}

// NewStateHandler creates a StateHandler.
func NewStateHandler(state *twin.State) *StateHandler {
	return &StateHandler{twin: state}
}

// State handles GET /v1/state.
func (h *StateHandler) State(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, h.twin.Snapshot())
}
