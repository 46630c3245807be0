// Package broadcast fans state snapshots out to live subscriber connections.
package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ironreach/reactor-twin/internal/domain"
	"github.com/ironreach/reactor-twin/internal/monitor"
	"github.com/ironreach/reactor-twin/internal/twin"
)

// Conn is one subscriber transport handle. Production connections wrap a
// websocket; tests substitute in-memory fakes.
type Conn interface {
	ID() string
	WriteMessage(data []byte) error
	Close() error
}

// Hub owns the set of live subscriber connections. Fan-out is best effort
// per subscriber: a failed write never blocks delivery to others, and the
// failing connection is detached after the publish pass completes.
type Hub struct {
	mu    sync.Mutex
	conns map[string]Conn
	log   *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{conns: make(map[string]Conn), log: log}
}

// Count returns the number of attached connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Attach registers a connection and immediately sends it a full-state init
// envelope, so late joiners are consistent with current state. If the init
// write fails the connection is closed and never registered.
func (h *Hub) Attach(c Conn, snap twin.Snapshot) error {
	data, err := json.Marshal(initEnvelope(snap))
	if err != nil {
		c.Close()
		return err
	}
	if err := c.WriteMessage(data); err != nil {
		c.Close()
		return err
	}

	h.mu.Lock()
	h.conns[c.ID()] = c
	h.mu.Unlock()
	monitor.ActiveSubscribers.Inc()
	h.log.Info("subscriber attached", "conn", c.ID())
	return nil
}

// Detach removes and closes a connection. Idempotent.
func (h *Hub) Detach(c Conn) {
	h.mu.Lock()
	_, present := h.conns[c.ID()]
	delete(h.conns, c.ID())
	h.mu.Unlock()
	if present {
		monitor.ActiveSubscribers.Dec()
		h.log.Info("subscriber detached", "conn", c.ID())
	}
	c.Close()
}

// Publish sends a sensor_update envelope to every attached connection.
// The connection set is copied first so the set is never mutated while
// iterating; failed connections are detached after the pass.
func (h *Hub) Publish(snap twin.Snapshot) {
	h.mu.Lock()
	if len(h.conns) == 0 {
		h.mu.Unlock()
		return
	}
	targets := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	data, err := json.Marshal(updateEnvelope(snap))
	if err != nil {
		// Never push a malformed envelope; skip this publish entirely.
		h.log.Error("envelope marshal failed, skipping publish", "error", err)
		return
	}

	var failed []Conn
	for _, c := range targets {
		if err := c.WriteMessage(data); err != nil {
			monitor.PublishFailuresTotal.Inc()
			h.log.Warn("subscriber write failed", "conn", c.ID(), "error", err)
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		h.Detach(c)
	}
}

// Shutdown closes every connection and empties the hub.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	conns := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[string]Conn)
	h.mu.Unlock()

	for _, c := range conns {
		c.Close()
		monitor.ActiveSubscribers.Dec()
	}
}

func initEnvelope(snap twin.Snapshot) domain.Envelope {
	anomalies := make([]domain.AnomalyEvent, len(snap.Anomalies))
	copy(anomalies, snap.Anomalies)
	return domain.Envelope{
		Type:      domain.EnvelopeInit,
		Payload:   readings(snap),
		TwinState: snap.ZoneHealth,
		Anomalies: anomalies,
	}
}

func updateEnvelope(snap twin.Snapshot) domain.Envelope {
	anomalies := make([]domain.AnomalyEvent, 0, 1)
	if n := len(snap.Anomalies); n > 0 {
		anomalies = append(anomalies, snap.Anomalies[n-1])
	}
	return domain.Envelope{
		Type:      domain.EnvelopeSensorUpdate,
		Payload:   readings(snap),
		TwinState: snap.ZoneHealth,
		Anomalies: anomalies,
	}
}

func readings(snap twin.Snapshot) []domain.SensorReading {
	out := make([]domain.SensorReading, len(snap.Readings))
	copy(out, snap.Readings)
	return out
}
