// Package textgen calls an external text-completion service used to draft
// nutrition recommendations. The client is optional; callers fall back to
// canned recommendations when it is absent or failing.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nutrisync/internal/logger"
)

type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type httpGenerator struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	log     logger.Logger
}

type completionRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// NewHTTPGenerator returns nil when no base URL is configured, which callers
// treat as "generation disabled".
func NewHTTPGenerator(baseURL, apiKey, model string, log logger.Logger) Generator {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &httpGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		model:   strings.TrimSpace(model),
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

func (g *httpGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if g == nil {
		return "", errors.New("nil generator")
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}
	endpoint := g.baseURL + "/v1/completions"

	b, err := json.Marshal(completionRequest{
		Model:     g.model,
		Prompt:    prompt,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		bodyStr := strings.TrimSpace(string(rb))
		g.log.Warn("completion request failed", "endpoint", endpoint, "status", resp.StatusCode, "body", bodyStr)
		return "", fmt.Errorf("completion failed: status=%d body=%s", resp.StatusCode, bodyStr)
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Text), nil
}

var _ Generator = (*httpGenerator)(nil)
