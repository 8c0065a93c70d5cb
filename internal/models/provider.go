package models

import "strings"

// DetectProvider determines the provider from a model name. Routing table
// entries may name a model without a provider; this consolidates the mapping
// so provider detection stays consistent across the codebase.
func DetectProvider(model string) string {
	if model == "" {
		return ""
	}
	ml := strings.ToLower(model)

	// Groq serves llama-family models; check it before generic patterns.
	if strings.Contains(ml, "groq") || strings.Contains(ml, "llama") ||
		strings.Contains(ml, "mixtral") {
		return ProviderGroq
	}

	if strings.Contains(ml, "gpt-") || strings.HasPrefix(ml, "o1") ||
		strings.HasPrefix(ml, "o3") || strings.Contains(ml, "davinci") {
		return ProviderOpenAI
	}

	if strings.Contains(ml, "claude") || strings.Contains(ml, "opus") ||
		strings.Contains(ml, "sonnet") || strings.Contains(ml, "haiku") {
		return ProviderAnthropic
	}

	return ""
}

// DefaultModelForTier returns the conventional provider+model pairing for a
// complexity tier, used when the routing table has no matching entry.
func DefaultModelForTier(tier Tier) ProviderChoice {
	switch tier {
	case TierLow:
		return ProviderChoice{Name: ProviderGroq, Model: "llama-3.1-8b-instant"}
	case TierHigh:
		return ProviderChoice{Name: ProviderOpenAI, Model: "gpt-4o"}
	default:
		return ProviderChoice{Name: ProviderOpenAI, Model: "gpt-4o-mini"}
	}
}
