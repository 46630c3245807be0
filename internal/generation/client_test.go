package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ironreach/reactor-twin/internal/config"
	"github.com/ironreach/reactor-twin/internal/domain"
)

func testHFConfig(base string) config.HFConfig {
	return config.HFConfig{
		APIBase:     base,
		APIToken:    "hf_test_token",
		ModelID:     "test/model",
		MaxTokens:   256,
		Temperature: 0.7,
		TopP:        0.9,
		Timeout:     2 * time.Second,
	}
}

func completionResponse(content string) string {
	out, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(out)
}

func TestGenerate_ValidationErrors(t *testing.T) {
	base := testHFConfig("http://unused")

	noToken := base
	noToken.APIToken = ""
	if _, err := NewClient(noToken).Generate(context.Background(), "q", nil); !errors.Is(err, domain.ErrMissingAPIToken) {
		t.Errorf("expected ErrMissingAPIToken, got %v", err)
	}

	noModel := base
	noModel.ModelID = ""
	if _, err := NewClient(noModel).Generate(context.Background(), "q", nil); !errors.Is(err, domain.ErrMissingModelID) {
		t.Errorf("expected ErrMissingModelID, got %v", err)
	}

	if _, err := NewClient(base).Generate(context.Background(), "", nil); !errors.Is(err, domain.ErrEmptyPrompt) {
		t.Errorf("expected ErrEmptyPrompt, got %v", err)
	}
}

func TestGenerate_SendsChatCompletionRequest(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer hf_test_token" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionResponse(`Assistant: "Core temperature is nominal."`)))
	}))
	defer srv.Close()

	answer, err := NewClient(testHFConfig(srv.URL)).Generate(context.Background(),
		"What is the core temperature?",
		[]string{"The reactor core operates between 350 and 380 degrees."})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if answer != "Core temperature is nominal." {
		t.Errorf("expected postprocessed answer, got %q", answer)
	}

	if got.Model != "test/model" {
		t.Errorf("unexpected model %q", got.Model)
	}
	if got.MaxTokens != 256 {
		t.Errorf("unexpected max_tokens %d", got.MaxTokens)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
	content := got.Messages[0].Content
	if !strings.Contains(content, "Context:") ||
		!strings.Contains(content, "350 and 380") ||
		!strings.Contains(content, "Question: What is the core temperature?") {
		t.Errorf("context not folded into the prompt: %q", content)
	}
}

func TestGenerate_NoContextSendsPlainPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Messages[0].Content != "hello" {
			t.Errorf("expected bare prompt, got %q", req.Messages[0].Content)
		}
		w.Write([]byte(completionResponse("hi")))
	}))
	defer srv.Close()

	answer, err := NewClient(testHFConfig(srv.URL)).Generate(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if answer != "hi" {
		t.Errorf("expected %q, got %q", "hi", answer)
	}
}

func TestGenerate_UpstreamFailures(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model overloaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewClient(testHFConfig(srv.URL)).Generate(context.Background(), "q", nil)
		if err == nil || !strings.Contains(err.Error(), "503") {
			t.Errorf("expected status error, got %v", err)
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		_, err := NewClient(testHFConfig(srv.URL)).Generate(context.Background(), "q", nil)
		if err == nil || !strings.Contains(err.Error(), "no choices") {
			t.Errorf("expected empty-choices error, got %v", err)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		_, err := NewClient(testHFConfig(srv.URL)).Generate(context.Background(), "q", nil)
		if err == nil || !strings.Contains(err.Error(), "decoding inference response") {
			t.Errorf("expected decode error, got %v", err)
		}
	})
}
