package routing

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/scout-analytics/adsbot/internal/models"
)

// Category is the inferred routing bucket for a query.
type Category string

const (
	CategoryAlertsUrgent    Category = "alerts_urgent"
	CategorySubstitution    Category = "substitution_demographics"
	CategoryRealtimeChat    Category = "realtime_chat"
	CategoryComplexAnalysis Category = "complex_analysis"
	CategoryGeneralInsight  Category = "general_insight"
)

// Entry maps a category to its provider chain and cache policy.
type Entry struct {
	Category Category              `yaml:"category"`
	Primary  models.ProviderChoice `yaml:"primary"`
	Fallback models.ProviderChoice `yaml:"fallback"`
	TTL      models.TTLClass       `yaml:"ttl"`
}

// defaultTable is the built-in routing policy. Urgent alerts favor the
// fastest provider and are never cached; demographic cuts move slowly and
// cache for a day.
var defaultTable = []Entry{
	{
		Category: CategoryAlertsUrgent,
		Primary:  models.ProviderChoice{Name: models.ProviderGroq, Model: "llama-3.1-8b-instant"},
		Fallback: models.ProviderChoice{Name: models.ProviderOpenAI, Model: "gpt-4o-mini"},
		TTL:      models.TTLNone,
	},
	{
		Category: CategorySubstitution,
		Primary:  models.ProviderChoice{Name: models.ProviderAnthropic, Model: "claude-3-5-sonnet-20241022"},
		Fallback: models.ProviderChoice{Name: models.ProviderOpenAI, Model: "gpt-4o"},
		TTL:      models.TTLLong,
	},
	{
		Category: CategoryRealtimeChat,
		Primary:  models.ProviderChoice{Name: models.ProviderGroq, Model: "llama-3.3-70b-versatile"},
		Fallback: models.ProviderChoice{Name: models.ProviderOpenAI, Model: "gpt-4o-mini"},
		TTL:      models.TTLShort,
	},
	{
		Category: CategoryComplexAnalysis,
		Primary:  models.ProviderChoice{Name: models.ProviderOpenAI, Model: "gpt-4o"},
		Fallback: models.ProviderChoice{Name: models.ProviderAnthropic, Model: "claude-3-5-sonnet-20241022"},
		TTL:      models.TTLMedium,
	},
	{
		Category: CategoryGeneralInsight,
		Primary:  models.ProviderChoice{Name: models.ProviderOpenAI, Model: "gpt-4o-mini"},
		Fallback: models.ProviderChoice{Name: models.ProviderGroq, Model: "llama-3.3-70b-versatile"},
		TTL:      models.TTLMedium,
	},
}

// Category inference patterns. These intentionally overlap the classifier's
// non-simple vocabulary: a query that matches only simple patterns can never
// land in a long-TTL category.
var (
	urgentRe       = regexp.MustCompile(`(?i)\b(alert\w*|urgent\w*|immediate\w*|stock-?out|out of stock)\b`)
	substitutionRe = regexp.MustCompile(`(?i)\b(substitut\w*|demographic\w*|gender|age group|income class)\b`)
)

// inferCategory maps a query and its assessment onto a routing category.
// Evaluation order matters: urgency wins over everything else.
func inferCategory(q models.Query, assessment models.ComplexityAssessment) Category {
	text := q.Text
	switch {
	case text != "" && urgentRe.MatchString(text):
		return CategoryAlertsUrgent
	case text != "" && substitutionRe.MatchString(text):
		return CategorySubstitution
	case q.Type == models.QueryChat:
		return CategoryRealtimeChat
	case q.Type == models.QueryAnalysis || q.Type == models.QueryForecast ||
		assessment.Tier == models.TierHigh:
		return CategoryComplexAnalysis
	case q.Type == models.QueryInsight:
		return CategoryGeneralInsight
	default:
		return ""
	}
}

// tableFile is the on-disk YAML shape for routing overrides.
type tableFile struct {
	Routes []struct {
		Category string `yaml:"category"`
		Primary  struct {
			Provider string `yaml:"provider"`
			Model    string `yaml:"model"`
		} `yaml:"primary"`
		Fallback struct {
			Provider string `yaml:"provider"`
			Model    string `yaml:"model"`
		} `yaml:"fallback"`
		TTL string `yaml:"ttl"`
	} `yaml:"routes"`
}

// parseTableFile reads a routing table from YAML. Providers may be omitted
// when the model name implies one.
func parseTableFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routing table %s: %w", path, err)
	}
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("unmarshal routing table %s: %w", path, err)
	}
	if len(tf.Routes) == 0 {
		return nil, fmt.Errorf("routing table %s has no routes", path)
	}

	entries := make([]Entry, 0, len(tf.Routes))
	for i, r := range tf.Routes {
		e := Entry{
			Category: Category(r.Category),
			Primary:  models.ProviderChoice{Name: r.Primary.Provider, Model: r.Primary.Model},
			Fallback: models.ProviderChoice{Name: r.Fallback.Provider, Model: r.Fallback.Model},
			TTL:      models.TTLClass(r.TTL),
		}
		if e.Primary.Name == "" {
			e.Primary.Name = models.DetectProvider(e.Primary.Model)
		}
		if e.Fallback.Name == "" && e.Fallback.Model != "" {
			e.Fallback.Name = models.DetectProvider(e.Fallback.Model)
		}
		if e.Category == "" || e.Primary.Name == "" || e.Primary.Model == "" {
			return nil, fmt.Errorf("routing table %s: route %d is incomplete", path, i)
		}
		switch e.TTL {
		case models.TTLNone, models.TTLShort, models.TTLMedium, models.TTLLong:
		default:
			return nil, fmt.Errorf("routing table %s: route %d has unknown ttl class %q", path, i, e.TTL)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
