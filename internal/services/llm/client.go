package llm

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

	"nudge/internal/config"
)

const (
	jsonResponseType   = "json_object"
	defaultHTTPTimeout = 15 * time.Second
)

// Client wraps the chat-completions API used for remote attention analysis.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client, used by tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a client from the remote configuration section.
func NewClient(cfg config.Remote, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     strings.TrimSpace(cfg.BaseURL),
		model:       strings.TrimSpace(cfg.Model),
		maxTokens:   cfg.MaxOutputTokens,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = "https://openrouter.ai/api/v1/chat/completions"
	}
	if client.maxTokens <= 0 {
		client.maxTokens = 200
	}
	return client
}

// Result is the parsed remote analysis. Constructed once per call attempt and
// immediately consumed by the fusion engine; never persisted.
type Result struct {
	Success         bool
	Confidence      float64
	Analysis        string
	AttentionScore  *float64
	Factors         []string
	Recommendations []string
}

// analysisPayload is the JSON document the model is instructed to produce.
type analysisPayload struct {
	AttentionScore  *float64 `json:"attention_score"`
	Confidence      *float64 `json:"confidence"`
	Factors         []string `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

// parseFallbackConfidence is assigned when the transport succeeded but the
// payload was not the expected JSON document.
const parseFallbackConfidence = 0.7

// Analyze issues one analysis request (no retry) and parses the response.
// Transport and HTTP failures return an error; a successful transport with a
// malformed payload degrades to a low-confidence free-text result.
func (c *Client) Analyze(ctx context.Context, userPrompt string) (Result, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return Result{}, errors.New("llm analyze: api key required")
	}
	if strings.TrimSpace(userPrompt) == "" {
		return Result{}, errors.New("llm analyze: user prompt required")
	}

	payload := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: AnalysisSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}

	content, err := c.sendChatRequest(ctx, payload)
	if err != nil {
		return Result{}, err
	}

	var parsed analysisPayload
	if err := DecodeJSONPayload(content, &parsed); err != nil || parsed.Confidence == nil {
		return Result{
			Success:    true,
			Confidence: parseFallbackConfidence,
			Analysis:   content,
		}, nil
	}

	result := Result{
		Success:         true,
		Confidence:      clamp01(*parsed.Confidence),
		Analysis:        content,
		Factors:         parsed.Factors,
		Recommendations: parsed.Recommendations,
	}
	if parsed.AttentionScore != nil {
		score := clamp01(*parsed.AttentionScore)
		result.AttentionScore = &score
	}
	return result, nil
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers return the streaming schema even when stream=false.
		Delta chatCompletionMessage `json:"delta"`
		Text  string                `json:"text"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content string `json:"content"`
}

func (c *Client) sendChatRequest(ctx context.Context, payload chatCompletionRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("llm request: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm request: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("llm request: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm request: http %d: %s", resp.StatusCode, summarizeSnippet(string(respBody)))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("llm request: decode response: %w", err)
	}
	if completion.Error != nil && completion.Error.Message != "" {
		return "", fmt.Errorf("llm request: provider error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("llm request: empty choices")
	}

	choice := completion.Choices[0]
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		content = strings.TrimSpace(choice.Delta.Content)
	}
	if content == "" {
		content = strings.TrimSpace(choice.Text)
	}
	if content == "" {
		return "", errors.New("llm request: empty content")
	}
	return content, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
