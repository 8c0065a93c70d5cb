// Package providers holds the LLM provider clients consumed by the fallback
// executor. Every provider exposes the same Complete capability; failures
// surface as the typed errors in errors.go so the executor can treat them
// uniformly.
package providers

import (
	"context"

	"github.com/scout-analytics/adsbot/internal/models"
)

// CompletionRequest is a single prompt sent to one model.
type CompletionRequest struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completion is the successful result of one provider call.
type Completion struct {
	Content string
	Model   string
	Usage   models.Usage
}

// Provider is the closed capability every LLM backend implements.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}
