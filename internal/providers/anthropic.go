package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/scout-analytics/adsbot/internal/metrics"
	"github.com/scout-analytics/adsbot/internal/models"
)

const (
	anthropicBaseURL    = "https://api.anthropic.com/v1"
	anthropicAPIVersion = "2023-06-01"

	// The messages API requires max_tokens; use this when the caller gave none.
	anthropicDefaultMaxTokens = 1024
)

// AnthropicClient speaks the Anthropic messages API.
type AnthropicClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAnthropicClient creates a client for api.anthropic.com.
func NewAnthropicClient(apiKey string, logger *zap.Logger) *AnthropicClient {
	return &AnthropicClient{
		apiKey:  apiKey,
		baseURL: anthropicBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (c *AnthropicClient) Name() string { return models.ProviderAnthropic }

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model string `json:"model"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete sends one messages-API request.
func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrNotConfigured)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	body, err := json.Marshal(anthropicRequest{
		Model:       req.Model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.ProviderCallDuration.WithLabelValues(c.Name()).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.ProviderCalls.WithLabelValues(c.Name(), "error").Inc()
		return nil, fmt.Errorf("anthropic: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := statusToError(c.Name(), resp); err != nil {
		metrics.ProviderCalls.WithLabelValues(c.Name(), "error").Inc()
		return nil, err
	}

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.ProviderCalls.WithLabelValues(c.Name(), "error").Inc()
		return nil, fmt.Errorf("anthropic: %w: %v", ErrInvalidResponse, err)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		metrics.ProviderCalls.WithLabelValues(c.Name(), "error").Inc()
		return nil, fmt.Errorf("anthropic: %w: no text content", ErrInvalidResponse)
	}

	total := parsed.Usage.InputTokens + parsed.Usage.OutputTokens
	metrics.ProviderCalls.WithLabelValues(c.Name(), "success").Inc()
	metrics.ProviderTokensUsed.WithLabelValues(c.Name()).Add(float64(total))

	model := parsed.Model
	if model == "" {
		model = req.Model
	}
	return &Completion{
		Content: text,
		Model:   model,
		Usage: models.Usage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
			TotalTokens:      total,
		},
	}, nil
}
