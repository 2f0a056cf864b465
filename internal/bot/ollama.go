package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrEmptyCompletion is returned when the backend answers with a blank
// response body. Callers treat it the same as a transport failure.
var ErrEmptyCompletion = errors.New("backend returned empty completion")

// Generator produces a completion for a prompt. Satisfied by OllamaClient;
// tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// OllamaClient calls an Ollama-compatible /api/generate endpoint.
type OllamaClient struct {
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// OllamaConfig holds generation backend settings.
type OllamaConfig struct {
	BaseURL        string
	Model          string
	MaxTokens      int
	Temperature    float64
	RequestTimeout time.Duration
}

// NewOllamaClient creates a client for the generation backend.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Generate requests a single non-streaming completion. A transport error,
// non-2xx status, or blank response all surface as errors.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("empty prompt")
	}

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			NumPredict:  c.maxTokens,
			Temperature: c.temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("generate request returned status %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	reply := strings.TrimSpace(decoded.Response)
	if reply == "" {
		return "", ErrEmptyCompletion
	}
	return reply, nil
}
