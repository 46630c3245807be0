package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ChannelConfig describes one simulated sensor channel. Min/Max bound the
// random walk, Noise is the per-tick perturbation amplitude, and the
// thresholds drive status classification. SpikeOffset > 0 marks the channel
// as a candidate for transient spike injection.
type ChannelConfig struct {
	ID          string
	Unit        string
	Initial     float64
	Min         float64
	Max         float64
	Noise       float64
	LowThresh   float64
	HighThresh  float64
	SpikeOffset float64
}

// HFConfig holds the Hugging Face inference client settings.
type HFConfig struct {
	APIBase     string
	APIToken    string
	ModelID     string
	MaxTokens   int
	Temperature float64
	TopP        float64
	Timeout     time.Duration
}

// Config is the full service configuration.
type Config struct {
	Port string

	TickInterval   time.Duration
	DetectInterval time.Duration

	HistoryCapacity    int
	WarmupFloor        int
	AnomalyLogCapacity int

	ScoreThreshold   float64
	Trees            int
	Contamination    float64
	SpikeProbability float64

	Zone     string
	Channels []ChannelConfig

	WriteTimeout time.Duration

	DocsDir      string
	EmbeddingDim int
	TopK         int

	HF HFConfig
}

// Load reads configuration from the environment, falling back to defaults
// that reproduce the reference process parameters.
func Load() Config {
	return Config{
		Port: envOrDefault("PORT", "8000"),

		TickInterval:   envDuration("TICK_INTERVAL", time.Second),
		DetectInterval: envDuration("DETECT_INTERVAL", 10*time.Second),

		HistoryCapacity:    envInt("HISTORY_CAPACITY", 50),
		WarmupFloor:        envInt("WARMUP_FLOOR", 50),
		AnomalyLogCapacity: envInt("ANOMALY_LOG_CAPACITY", 10),

		ScoreThreshold:   envFloat("ANOMALY_SCORE_THRESHOLD", -0.2),
		Trees:            envInt("FOREST_TREES", 100),
		Contamination:    envFloat("FOREST_CONTAMINATION", 0.05),
		SpikeProbability: envFloat("SPIKE_PROBABILITY", 0.05),

		Zone:     envOrDefault("ZONE", "core"),
		Channels: loadChannels(),

		WriteTimeout: envDuration("SUBSCRIBER_WRITE_TIMEOUT", 5*time.Second),

		DocsDir:      os.Getenv("RAG_DOCS_DIR"),
		EmbeddingDim: envInt("RAG_EMBED_DIM", 384),
		TopK:         envInt("RAG_TOP_K", 4),

		HF: HFConfig{
			APIBase:     envOrDefault("HF_API_BASE", "https://router.huggingface.co"),
			APIToken:    os.Getenv("HF_API_TOKEN"),
			ModelID:     os.Getenv("HF_MODEL_ID"),
			MaxTokens:   envInt("HF_MAX_TOKENS", 512),
			Temperature: envFloat("HF_TEMPERATURE", 0.2),
			TopP:        envFloat("HF_TOP_P", 0.95),
			Timeout:     envDuration("HF_TIMEOUT", 30*time.Second),
		},
	}
}

func loadChannels() []ChannelConfig {
	defaults := []ChannelConfig{
		{ID: "temperature", Unit: "°C", Initial: 365.0, Min: 350, Max: 380, Noise: 0.5, LowThresh: 355, HighThresh: 375, SpikeOffset: 30},
		{ID: "pressure", Unit: "MPa", Initial: 2.2, Min: 2.0, Max: 2.4, Noise: 0.05, LowThresh: 2.05, HighThresh: 2.35, SpikeOffset: 0.3},
		{ID: "ph", Unit: "pH", Initial: 7.0, Min: 6.8, Max: 7.2, Noise: 0.05, LowThresh: 6.85, HighThresh: 7.15},
		{ID: "flowRate", Unit: "m³/h", Initial: 135.0, Min: 120, Max: 150, Noise: 2.0, LowThresh: 125, HighThresh: 145},
		{ID: "vibration", Unit: "mm/s", Initial: 2.0, Min: 0, Max: 10, Noise: 0.5, LowThresh: 0, HighThresh: 8},
	}
	for i := range defaults {
		key := strings.ToUpper(defaults[i].ID)
		defaults[i].LowThresh = envFloat(key+"_LOW_THRESH", defaults[i].LowThresh)
		defaults[i].HighThresh = envFloat(key+"_HIGH_THRESH", defaults[i].HighThresh)
	}
	return defaults
}

// Validate rejects configurations the engine must not start with.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.TickInterval)
	}
	if c.DetectInterval <= 0 {
		return fmt.Errorf("detect interval must be positive, got %v", c.DetectInterval)
	}
	if c.HistoryCapacity <= 0 {
		return fmt.Errorf("history capacity must be positive, got %d", c.HistoryCapacity)
	}
	if c.WarmupFloor <= 0 || c.WarmupFloor > c.HistoryCapacity {
		return fmt.Errorf("warm-up floor must be in [1, %d], got %d", c.HistoryCapacity, c.WarmupFloor)
	}
	if c.AnomalyLogCapacity <= 0 {
		return fmt.Errorf("anomaly log capacity must be positive, got %d", c.AnomalyLogCapacity)
	}
	if c.Trees <= 0 {
		return fmt.Errorf("forest size must be positive, got %d", c.Trees)
	}
	if c.Contamination <= 0 || c.Contamination > 0.5 {
		return fmt.Errorf("contamination must be in (0, 0.5], got %g", c.Contamination)
	}
	if c.SpikeProbability < 0 || c.SpikeProbability > 1 {
		return fmt.Errorf("spike probability must be in [0, 1], got %g", c.SpikeProbability)
	}
	if c.Zone == "" {
		return fmt.Errorf("zone must not be empty")
	}
	if len(c.Channels) == 0 {
		return fmt.Errorf("at least one channel is required")
	}
	for _, ch := range c.Channels {
		if ch.ID == "" {
			return fmt.Errorf("channel id must not be empty")
		}
		if ch.Min >= ch.Max {
			return fmt.Errorf("channel %s: min %g must be below max %g", ch.ID, ch.Min, ch.Max)
		}
		if ch.Noise < 0 {
			return fmt.Errorf("channel %s: noise must not be negative", ch.ID)
		}
		if ch.LowThresh >= ch.HighThresh {
			return fmt.Errorf("channel %s: low threshold %g must be below high threshold %g", ch.ID, ch.LowThresh, ch.HighThresh)
		}
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding dim must be positive, got %d", c.EmbeddingDim)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top-k must be positive, got %d", c.TopK)
	}
	return nil
}

// ChannelIDs returns the configured channel ids in declaration order.
func (c Config) ChannelIDs() []string {
	ids := make([]string, len(c.Channels))
	for i, ch := range c.Channels {
		ids[i] = ch.ID
	}
	return ids
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv-style file into the
// environment. Existing variables win; blank lines and #-comments are
// skipped. A missing file is not an error.
func LoadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
