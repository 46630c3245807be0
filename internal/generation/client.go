// Package generation holds the LLM inference client used by the RAG chat
// endpoint.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ironreach/reactor-twin/internal/config"
	"github.com/ironreach/reactor-twin/internal/domain"
)

// Client calls an OpenAI-compatible chat-completions endpoint on the
// configured inference router.
type Client struct {
	cfg  config.HFConfig
	http *http.Client
}

// NewClient creates a client with the configured request timeout.
func NewClient(cfg config.HFConfig) *Client {
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate answers a prompt, optionally grounded on retrieved context
// snippets, and returns the postprocessed model output.
func (c *Client) Generate(ctx context.Context, prompt string, contexts []string) (string, error) {
	if c.cfg.APIToken == "" {
		return "", domain.ErrMissingAPIToken
	}
	if c.cfg.ModelID == "" {
		return "", domain.ErrMissingModelID
	}
	if prompt == "" {
		return "", domain.ErrEmptyPrompt
	}

	content := prompt
	if len(contexts) > 0 {
		content = fmt.Sprintf("Context:\n%s\n\nQuestion: %s", strings.Join(contexts, "\n"), prompt)
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.cfg.ModelID,
		Messages:    []chatMessage{{Role: "user", Content: content}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
	})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(c.cfg.APIBase, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference request returned status %d", resp.StatusCode)
	}

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding inference response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("inference response contained no choices")
	}
	return Postprocess(parsed.Choices[0].Message.Content), nil
}
