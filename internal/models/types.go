package models

import "time"

// QueryType declares the caller's intent for an analytic question.
type QueryType string

const (
	QueryInsight  QueryType = "insight"
	QueryChat     QueryType = "chat"
	QueryAnalysis QueryType = "analysis"
	QueryForecast QueryType = "forecast"
)

// Tier is the output of complexity classification. It drives both provider
// selection and the cache TTL class.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// TTLClass names a cache duration bucket. The class is decoupled from the
// literal seconds value so the policy can change centrally.
type TTLClass string

const (
	TTLNone   TTLClass = "none"
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// Duration returns the concrete lifetime for a TTL class. TTLNone returns 0,
// which callers must treat as "never cache".
func (c TTLClass) Duration() time.Duration {
	switch c {
	case TTLShort:
		return time.Hour
	case TTLMedium:
		return 6 * time.Hour
	case TTLLong:
		return 24 * time.Hour
	default:
		return 0
	}
}

// Query is an analytic question submitted by the dashboard. It is immutable
// once submitted; ID is assigned by the caller or generated as q_<unix-ms>.
type Query struct {
	ID         string                 `json:"id,omitempty"`
	Type       QueryType              `json:"type"`
	TemplateID string                 `json:"template_id,omitempty"`
	Text       string                 `json:"text,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Filters    map[string]interface{} `json:"filters,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`

	// Explicit overrides. ComplexityOverride pins the tier regardless of the
	// classifier score; Provider/ModelOverride bypass the routing table.
	ComplexityOverride Tier   `json:"complexity_override,omitempty"`
	ProviderOverride   string `json:"provider_override,omitempty"`
	ModelOverride      string `json:"model_override,omitempty"`

	// Caller-declared capabilities that feed the classifier heuristics.
	RequiresFunctionCalling bool `json:"requires_function_calling,omitempty"`
	MultipleDataSources     bool `json:"multiple_data_sources,omitempty"`
}

// ComplexityAssessment is derived deterministically from a Query and is not
// persisted beyond the request.
type ComplexityAssessment struct {
	Score            int      `json:"score"`
	Factors          []string `json:"factors"`
	Tier             Tier     `json:"tier"`
	Confidence       int      `json:"confidence"` // 60..95
	EstimatedTokens  int      `json:"estimated_tokens"`
	EstimatedCostUSD float64  `json:"estimated_cost_usd"`
}

// Provider names form a closed set; the executor switches exhaustively on them.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGroq      = "groq"
)

// ProviderChoice pairs a provider with a concrete model.
type ProviderChoice struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

// FallbackChain is the ordered list of provider+model pairs attempted for one
// logical query, together with the cache TTL class the router assigned.
type FallbackChain struct {
	Choices []ProviderChoice `json:"choices"`
	TTL     TTLClass         `json:"ttl"`
}

// Primary returns the first choice in the chain, or false if the chain is empty.
func (c FallbackChain) Primary() (ProviderChoice, bool) {
	if len(c.Choices) == 0 {
		return ProviderChoice{}, false
	}
	return c.Choices[0], true
}

// Usage reports token consumption for one provider call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Timing carries wall-clock measurements for one response.
type Timing struct {
	DurationMS int64 `json:"duration_ms"`
}

// AIResponse is produced once per successful call or cache hit and is
// immutable after creation. Cached is true iff the response was served from
// the response cache rather than a live provider call.
type AIResponse struct {
	ID             string                   `json:"id"`
	Content        string                   `json:"content"`
	Confidence     float64                  `json:"confidence"` // 0..1
	Template       string                   `json:"template,omitempty"`
	Provider       ProviderChoice           `json:"provider"`
	Suggestions    []string                 `json:"suggestions,omitempty"`
	Visualizations []map[string]interface{} `json:"visualizations,omitempty"`
	Actions        []string                 `json:"actions,omitempty"`
	Usage          Usage                    `json:"usage"`
	Timing         Timing                   `json:"timing"`
	Cached         bool                     `json:"cached"`
	Stale          bool                     `json:"stale,omitempty"`
	Timestamp      time.Time                `json:"timestamp"`
}
