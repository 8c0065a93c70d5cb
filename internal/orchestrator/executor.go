package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scout-analytics/adsbot/internal/metrics"
	"github.com/scout-analytics/adsbot/internal/models"
	"github.com/scout-analytics/adsbot/internal/pricing"
	"github.com/scout-analytics/adsbot/internal/providers"
	"github.com/scout-analytics/adsbot/internal/telemetry"
)

// execute is the per-request state machine. The ordering — cache, primary,
// fallback, stale cache, mock — is the defining contract of this subsystem
// and must not be reordered. Every transition is recorded to telemetry.
// execute never fails: the terminal state always produces a response.
func (o *Orchestrator) execute(
	ctx context.Context,
	q models.Query,
	prompt string,
	assessment models.ComplexityAssessment,
	chain models.FallbackChain,
	fingerprint string,
) *models.AIResponse {
	start := o.now()
	cacheable := chain.TTL != models.TTLNone

	// TryCache
	if cacheable {
		if entry, ok := o.cache.Get(ctx, fingerprint); ok {
			o.record(telemetry.EventCacheHit, map[string]interface{}{
				"query_id":    q.ID,
				"fingerprint": fingerprint,
				"tier":        string(entry.Tier),
			})
			resp := entry.Response
			resp.Cached = true
			o.finish(q, assessment, &resp, start, "cache_hit")
			return &resp
		}
		o.record(telemetry.EventCacheMiss, map[string]interface{}{
			"query_id":    q.ID,
			"fingerprint": fingerprint,
		})
	}

	// TryPrimary, then TryFallback under the same contract.
	for i, choice := range chain.Choices {
		if i > 0 {
			metrics.ProviderFallbacks.Inc()
			o.record(telemetry.EventProviderFallback, map[string]interface{}{
				"query_id": q.ID,
				"provider": choice.Name,
				"model":    choice.Model,
			})
		}

		completion, err := o.callProvider(ctx, choice, prompt, assessment)
		if err != nil {
			o.logger.Warn("provider call failed",
				zap.String("query_id", q.ID),
				zap.String("provider", choice.Name),
				zap.String("model", choice.Model),
				zap.Error(err),
			)
			continue
		}

		resp := &models.AIResponse{
			ID:         uuid.New().String(),
			Content:    completion.Content,
			Confidence: float64(assessment.Confidence) / 100.0,
			Template:   q.TemplateID,
			Provider:   models.ProviderChoice{Name: choice.Name, Model: completion.Model},
			Usage:      completion.Usage,
			Timestamp:  o.now(),
		}

		if cacheable {
			if err := o.cache.Put(ctx, fingerprint, *resp, chain.TTL.Duration(), assessment.Tier); err != nil {
				o.logger.Warn("cache write failed",
					zap.String("fingerprint", fingerprint),
					zap.Error(err),
				)
			}
		}

		o.record(telemetry.EventQuerySuccess, map[string]interface{}{
			"query_id":    q.ID,
			"provider":    choice.Name,
			"model":       completion.Model,
			"tokens":      completion.Usage.TotalTokens,
			"cost_usd":    pricing.CostForTokens(completion.Model, completion.Usage.TotalTokens),
			"duration_ms": float64(o.now().Sub(start).Milliseconds()),
		})
		o.finish(q, assessment, resp, start, "success")
		return resp
	}

	// UseStaleCache: any entry for the fingerprint, regardless of expiry.
	if entry, ok := o.cache.GetStale(ctx, fingerprint); ok {
		metrics.StaleCacheServed.Inc()
		o.record(telemetry.EventCacheStaleHit, map[string]interface{}{
			"query_id":    q.ID,
			"fingerprint": fingerprint,
			"age_seconds": o.now().Sub(entry.CreatedAt).Seconds(),
		})
		resp := entry.Response
		resp.Cached = true
		resp.Stale = true
		resp.Suggestions = append(resp.Suggestions,
			"This answer was served from an expired cache entry and may be stale.")
		o.finish(q, assessment, &resp, start, "stale_cache")
		return &resp
	}

	// UseMock: no live provider and no cache entry at all.
	return o.mockResponse(q, assessment, chain, start)
}

// callProvider invokes one provider with the per-call timeout. A missing
// client is a configuration error for that provider only.
func (o *Orchestrator) callProvider(
	ctx context.Context,
	choice models.ProviderChoice,
	prompt string,
	assessment models.ComplexityAssessment,
) (*providers.Completion, error) {
	p, ok := o.providers[choice.Name]
	if !ok {
		return nil, providers.ErrNotConfigured
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	return p.Complete(callCtx, providers.CompletionRequest{
		Model:     choice.Model,
		Prompt:    prompt,
		MaxTokens: assessment.EstimatedTokens,
	})
}

// mockResponse synthesizes the deterministic last-resort answer. This path
// must never fail.
func (o *Orchestrator) mockResponse(
	q models.Query,
	assessment models.ComplexityAssessment,
	chain models.FallbackChain,
	start time.Time,
) *models.AIResponse {
	metrics.MockResponses.Inc()
	o.record(telemetry.EventQueryFailure, map[string]interface{}{
		"query_id":    q.ID,
		"reason":      "all providers failed, no cache entry",
		"duration_ms": float64(o.now().Sub(start).Milliseconds()),
	})

	primary, _ := chain.Primary()
	resp := &models.AIResponse{
		ID:         uuid.New().String(),
		Content: "No live AI provider or cached result was available for this question. " +
			"This is a generated placeholder, not an analysis. Please retry once provider " +
			"connectivity is restored.",
		Confidence: 0,
		Template:   q.TemplateID,
		Provider:   primary,
		Suggestions: []string{
			"Retry the question in a few minutes.",
			"Check provider API key configuration.",
		},
		Timestamp: o.now(),
	}
	o.finish(q, assessment, resp, start, "mock")
	return resp
}

// finish stamps timing and updates request-level metrics.
func (o *Orchestrator) finish(
	q models.Query,
	assessment models.ComplexityAssessment,
	resp *models.AIResponse,
	start time.Time,
	outcome string,
) {
	resp.Timing = models.Timing{DurationMS: o.now().Sub(start).Milliseconds()}
	metrics.QueriesProcessed.WithLabelValues(string(q.Type), string(assessment.Tier), outcome).Inc()
	metrics.QueryDuration.WithLabelValues(string(q.Type), string(assessment.Tier)).
		Observe(float64(resp.Timing.DurationMS))
	metrics.QueryEstimatedCostUSD.Observe(assessment.EstimatedCostUSD)
}

func (o *Orchestrator) record(key string, payload map[string]interface{}) {
	o.telemetry.Record(key, payload)
}
