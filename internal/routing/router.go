// Package routing resolves a query and its complexity assessment into an
// ordered provider chain and a cache TTL class. Routing is deterministic
// given the same inputs and table.
package routing

import (
	"sync"

	"go.uber.org/zap"

	"github.com/scout-analytics/adsbot/internal/models"
)

// Router holds the active routing table. The table can be replaced at
// runtime (hot reload), so reads take a read lock.
type Router struct {
	mu     sync.RWMutex
	table  map[Category]Entry
	logger *zap.Logger
}

// NewRouter creates a router with the built-in table.
func NewRouter(logger *zap.Logger) *Router {
	r := &Router{logger: logger}
	r.setTable(defaultTable)
	return r
}

// LoadFile replaces the table with the routes in a YAML file. The previous
// table stays active if the file cannot be parsed.
func (r *Router) LoadFile(path string) error {
	entries, err := parseTableFile(path)
	if err != nil {
		return err
	}
	r.setTable(entries)
	r.logger.Info("routing table loaded",
		zap.String("path", path),
		zap.Int("routes", len(entries)),
	)
	return nil
}

func (r *Router) setTable(entries []Entry) {
	table := make(map[Category]Entry, len(entries))
	for _, e := range entries {
		table[e.Category] = e
	}
	r.mu.Lock()
	r.table = table
	r.mu.Unlock()
}

// Route resolves the fallback chain for a query.
//
// Explicit overrides bypass the table entirely and produce a single-element
// chain with no fallback and no caching; they exist for cost-control testing
// and must always hit a live provider.
func (r *Router) Route(q models.Query, assessment models.ComplexityAssessment) models.FallbackChain {
	if q.ProviderOverride != "" || q.ModelOverride != "" {
		return r.overrideChain(q, assessment)
	}

	category := inferCategory(q, assessment)

	r.mu.RLock()
	entry, ok := r.table[category]
	r.mu.RUnlock()

	if category == "" || !ok {
		return r.tierDefaultChain(assessment.Tier)
	}

	chain := models.FallbackChain{
		Choices: []models.ProviderChoice{entry.Primary},
		TTL:     entry.TTL,
	}
	if entry.Fallback.Model != "" {
		chain.Choices = append(chain.Choices, entry.Fallback)
	}
	return chain
}

func (r *Router) overrideChain(q models.Query, assessment models.ComplexityAssessment) models.FallbackChain {
	choice := models.ProviderChoice{
		Name:  q.ProviderOverride,
		Model: q.ModelOverride,
	}
	if choice.Name == "" {
		choice.Name = models.DetectProvider(choice.Model)
	}
	if choice.Model == "" {
		choice.Model = defaultModelForProvider(choice.Name, assessment.Tier)
	}
	r.logger.Debug("routing override in effect",
		zap.String("query_id", q.ID),
		zap.String("provider", choice.Name),
		zap.String("model", choice.Model),
	)
	return models.FallbackChain{
		Choices: []models.ProviderChoice{choice},
		TTL:     models.TTLNone,
	}
}

// tierDefaultChain is used when no table entry matches: cheapest provider for
// low, most capable for high, balanced for medium, always with TTL medium.
func (r *Router) tierDefaultChain(tier models.Tier) models.FallbackChain {
	primary := models.DefaultModelForTier(tier)
	var fallback models.ProviderChoice
	switch tier {
	case models.TierLow:
		fallback = models.ProviderChoice{Name: models.ProviderOpenAI, Model: "gpt-4o-mini"}
	case models.TierHigh:
		fallback = models.ProviderChoice{Name: models.ProviderAnthropic, Model: "claude-3-5-sonnet-20241022"}
	default:
		fallback = models.ProviderChoice{Name: models.ProviderGroq, Model: "llama-3.3-70b-versatile"}
	}
	return models.FallbackChain{
		Choices: []models.ProviderChoice{primary, fallback},
		TTL:     models.TTLMedium,
	}
}

// defaultModelForProvider picks a tier-appropriate model when an override
// names a provider but no model.
func defaultModelForProvider(provider string, tier models.Tier) string {
	switch provider {
	case models.ProviderGroq:
		if tier == models.TierLow {
			return "llama-3.1-8b-instant"
		}
		return "llama-3.3-70b-versatile"
	case models.ProviderAnthropic:
		if tier == models.TierHigh {
			return "claude-3-5-sonnet-20241022"
		}
		return "claude-3-5-haiku-20241022"
	default:
		if tier == models.TierHigh {
			return "gpt-4o"
		}
		return "gpt-4o-mini"
	}
}
