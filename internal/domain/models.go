package domain

// Status is the discrete severity of a sensor reading or a zone.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// SensorReading is the latest classified value for one channel.
type SensorReading struct {
	ID     string  `json:"id"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	Status Status  `json:"status"`
}

// AnomalyEvent records one anomalous detection cycle. Timestamp is the
// engine's sample count at detection time, not wall clock.
type AnomalyEvent struct {
	Zone      string  `json:"zone"`
	Severity  float64 `json:"severity"`
	Timestamp int64   `json:"timestamp"`
}

// Envelope kinds pushed to websocket subscribers.
const (
	EnvelopeInit         = "init"
	EnvelopeSensorUpdate = "sensor_update"
)

// Envelope is the message pushed to subscribers. An "init" envelope carries
// the full anomaly log; a "sensor_update" carries at most the most recent
// event. Readings and zone health are always the full authoritative set.
type Envelope struct {
	Type      string            `json:"type"`
	Payload   []SensorReading   `json:"payload"`
	TwinState map[string]Status `json:"twin_state"`
	Anomalies []AnomalyEvent    `json:"anomalies"`
}

// ChatRequest is the incoming body for the chat endpoints.
type ChatRequest struct {
	Question string `json:"question"`
}

// ChatResponse is returned from POST /chat.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// RAGChatResponse is returned from POST /rag/chat.
type RAGChatResponse struct {
	Answer   string              `json:"answer"`
	Contexts []map[string]string `json:"contexts"`
}
