package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/scout-analytics/adsbot/internal/metrics"
	"github.com/scout-analytics/adsbot/internal/models"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"
	groqBaseURL   = "https://api.groq.com/openai/v1"
)

// OpenAIClient speaks the OpenAI chat-completions wire format. Groq exposes
// the same format, so the Groq client is this client with a different base
// URL and name.
type OpenAIClient struct {
	name       string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAIClient creates a client for api.openai.com.
func NewOpenAIClient(apiKey string, logger *zap.Logger) *OpenAIClient {
	return newOpenAICompatible(models.ProviderOpenAI, apiKey, openAIBaseURL, logger)
}

// NewGroqClient creates a client for Groq's OpenAI-compatible endpoint.
func NewGroqClient(apiKey string, logger *zap.Logger) *OpenAIClient {
	return newOpenAICompatible(models.ProviderGroq, apiKey, groqBaseURL, logger)
}

// NewOpenAICompatibleClient creates a client for any OpenAI-compatible
// endpoint, used for self-hosted gateways in staging.
func NewOpenAICompatibleClient(name, apiKey, baseURL string, logger *zap.Logger) *OpenAIClient {
	return newOpenAICompatible(name, apiKey, baseURL, logger)
}

func newOpenAICompatible(name, apiKey, baseURL string, logger *zap.Logger) *OpenAIClient {
	return &OpenAIClient{
		name:    name,
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			// Per-call deadlines come from the request context; this is the
			// hard ceiling for a stuck connection.
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (c *OpenAIClient) Name() string { return c.name }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
}

// Complete sends one chat completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", c.name, ErrNotConfigured)
	}

	body, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", c.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", c.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.ProviderCallDuration.WithLabelValues(c.name).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.ProviderCalls.WithLabelValues(c.name, "error").Inc()
		return nil, fmt.Errorf("%s: %w: %v", c.name, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := statusToError(c.name, resp); err != nil {
		metrics.ProviderCalls.WithLabelValues(c.name, "error").Inc()
		return nil, err
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.ProviderCalls.WithLabelValues(c.name, "error").Inc()
		return nil, fmt.Errorf("%s: %w: %v", c.name, ErrInvalidResponse, err)
	}
	if len(parsed.Choices) == 0 {
		metrics.ProviderCalls.WithLabelValues(c.name, "error").Inc()
		return nil, fmt.Errorf("%s: %w: empty choices", c.name, ErrInvalidResponse)
	}

	metrics.ProviderCalls.WithLabelValues(c.name, "success").Inc()
	metrics.ProviderTokensUsed.WithLabelValues(c.name).Add(float64(parsed.Usage.TotalTokens))

	model := parsed.Model
	if model == "" {
		model = req.Model
	}
	return &Completion{
		Content: parsed.Choices[0].Message.Content,
		Model:   model,
		Usage: models.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}, nil
}

// statusToError maps HTTP status classes onto the provider error taxonomy.
func statusToError(name string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", name, ErrRateLimited)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s: %w: status %d", name, ErrUnavailable, resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%s: %w: status %d: %s", name, ErrInvalidResponse, resp.StatusCode, snippet)
	}
}
