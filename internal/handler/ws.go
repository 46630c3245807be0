package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ironreach/reactor-twin/internal/broadcast"
	"github.com/ironreach/reactor-twin/internal/engine"
)

// WSHandler upgrades subscriber connections and attaches them to the
// engine's broadcaster.
type WSHandler struct {
	engine       *engine.Engine
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	log          *slog.Logger
}

// NewWSHandler creates a websocket handler. Origins are not restricted;
// subscriber auth is out of scope.
func NewWSHandler(e *engine.Engine, writeTimeout time.Duration, log *slog.Logger) *WSHandler {
	return &WSHandler{
		engine: e,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		writeTimeout: writeTimeout,
		log:          log,
	}
}

// Serve handles GET /ws. After attach, inbound messages are read and
// discarded; the read loop exists only to detect disconnects.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := broadcast.NewWSConn(conn, h.writeTimeout)
	if err := h.engine.Attach(c); err != nil {
		h.log.Warn("subscriber attach failed", "error", err)
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.engine.Hub().Detach(c)
			return
		}
	}
}
