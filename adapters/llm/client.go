package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"adscope/models"
	"adscope/ports"
)

// NewClient creates the OpenAI-backed model client from AI config.
func NewClient(config *models.AIConfig) (ports.LLMClient, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("missing OpenAI API key")
	}
	return &OpenAIClient{
		APIKey:  config.OpenAIKey,
		BaseURL: "https://api.openai.com/v1",
		Model:   config.OpenAIModel,
		Timeout: 120 * time.Second,
	}, nil
}

// OpenAIClient implements ports.LLMClient over the chat completions API.
type OpenAIClient struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func (c *OpenAIClient) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if strings.TrimSpace(c.Model) == "" {
		return "", fmt.Errorf("missing model")
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	// Chat Completions API (kept minimal: one system + one user message)
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type reqBody struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature,omitempty"`
		MaxTokens   int     `json:"max_tokens,omitempty"`
	}
	body := reqBody{
		Model: c.Model,
		Messages: []msg{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	client := &http.Client{Timeout: c.Timeout}
	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai http %d: %s", resp.StatusCode, string(respRaw))
	}

	type choice struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	type respBody struct {
		Choices []choice `json:"choices"`
	}
	var decoded respBody
	if err := json.Unmarshal(respRaw, &decoded); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}
	return decoded.Choices[0].Message.Content, nil
}

// MockLLMClient is a mock model client for testing
type MockLLMClient struct {
	Response string // Set this for testing
	Error    error  // Set this to simulate errors
	Calls    int
}

func (m *MockLLMClient) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	m.Calls++
	if m.Error != nil {
		return "", m.Error
	}
	return m.Response, nil
}
