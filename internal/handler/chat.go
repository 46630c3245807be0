package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ironreach/reactor-twin/internal/domain"
	"github.com/ironreach/reactor-twin/internal/generation"
	"github.com/ironreach/reactor-twin/internal/monitor"
	"github.com/ironreach/reactor-twin/internal/rag"
	"github.com/ironreach/reactor-twin/internal/twin"
)

// ChatHandler serves the rule-based and LLM-backed chat endpoints.
type ChatHandler struct {
	twin      *twin.State
	zone      string
	generator *generation.Client
	pipeline  *rag.Pipeline
	log       *slog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(state *twin.State, zone string, gen *generation.Client, pipeline *rag.Pipeline, log *slog.Logger) *ChatHandler {
	return &ChatHandler{twin: state, zone: zone, generator: gen, pipeline: pipeline, log: log}
}

// Chat handles POST /chat with keyword rules over the current twin state.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}
	monitor.ChatRequestsTotal.WithLabelValues("chat").Inc()

	writeJSON(w, http.StatusOK, domain.ChatResponse{Answer: h.ruleAnswer(req.Question)})
}

// RAGChat handles POST /rag/chat: retrieve context, generate an answer,
// and fall back to an apology when the inference backend fails.
func (h *ChatHandler) RAGChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}
	monitor.ChatRequestsTotal.WithLabelValues("rag_chat").Inc()

	contexts := h.pipeline.Retrieve(req.Question)
	if contexts == nil {
		contexts = make([]map[string]string, 0)
	}
	texts := make([]string, 0, len(contexts))
	for _, c := range contexts {
		texts = append(texts, c["text"])
	}

	answer, err := h.generator.Generate(r.Context(), req.Question, texts)
	if err != nil {
		h.log.Error("chat generation failed", "error", err)
		writeJSON(w, http.StatusOK, domain.RAGChatResponse{
			Answer:   fmt.Sprintf("I'm unable to process that right now. (Error: %v)", err),
			Contexts: make([]map[string]string, 0),
		})
		return
	}

	writeJSON(w, http.StatusOK, domain.RAGChatResponse{Answer: answer, Contexts: contexts})
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (domain.ChatRequest, bool) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return domain.ChatRequest{}, false
	}
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return domain.ChatRequest{}, false
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": domain.ErrEmptyQuestion.Error()})
		return domain.ChatRequest{}, false
	}
	return req, true
}

func (h *ChatHandler) ruleAnswer(question string) string {
	question = strings.ToLower(question)
	snap := h.twin.Snapshot()

	status := snap.ZoneHealth[h.zone]
	if status == "" {
		status = domain.StatusNormal
	}
	temp := findReading(snap, "temperature")
	pressure := findReading(snap, "pressure")

	var b strings.Builder
	if strings.Contains(question, "status") || strings.Contains(question, "how") {
		fmt.Fprintf(&b, "The reactor %s status is currently %s. ", h.zone, status)
	}
	if strings.Contains(question, "temperature") {
		fmt.Fprintf(&b, "Temperature is %g%s. ", temp.Value, temp.Unit)
	}
	if strings.Contains(question, "pressure") {
		fmt.Fprintf(&b, "Pressure is %g%s. ", pressure.Value, pressure.Unit)
	}
	if strings.Contains(question, "anomaly") || strings.Contains(question, "wrong") {
		if status == domain.StatusCritical {
			fmt.Fprintf(&b, "WARNING: Anomaly detected in the %s zone! Check alerts.", h.zone)
		} else {
			b.WriteString("No active anomalies detected.")
		}
	}
	if b.Len() == 0 {
		fmt.Fprintf(&b, "System is running. %s status: %s. Temp: %g. Pressure: %g.",
			h.zone, status, temp.Value, pressure.Value)
	}
	return strings.TrimSpace(b.String())
}

func findReading(snap twin.Snapshot, id string) domain.SensorReading {
	for _, r := range snap.Readings {
		if r.ID == id {
			return r
		}
	}
	return domain.SensorReading{ID: id}
}
