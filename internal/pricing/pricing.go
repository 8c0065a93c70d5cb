package pricing

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config structure for the pricing section in config/models.yaml
type config struct {
	Pricing struct {
		Defaults struct {
			CombinedPer1K float64 `yaml:"combined_per_1k"`
		} `yaml:"defaults"`
		Models map[string]map[string]struct {
			InputPer1K    float64 `yaml:"input_per_1k"`
			OutputPer1K   float64 `yaml:"output_per_1k"`
			CombinedPer1K float64 `yaml:"combined_per_1k"`
		} `yaml:"models"`
		Tiers map[string]struct {
			Tokens        int     `yaml:"tokens"`
			CombinedPer1K float64 `yaml:"combined_per_1k"`
		} `yaml:"tiers"`
	} `yaml:"pricing"`
}

var (
	mu          sync.RWMutex
	loaded      *config
	initialized bool
)

// default locations inside containers / local dev
var defaultPaths = []string{
	os.Getenv("ADSBOT_MODELS_PATH"),
	"/app/config/models.yaml",
	"./config/models.yaml",
	"../../config/models.yaml",    // from internal/<pkg>
	"../../../config/models.yaml", // from internal/<pkg>/<sub>
}

// findUpConfig searches parent directories for config/models.yaml starting at CWD.
func findUpConfig() (string, bool) {
	wd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for i := 0; i < 6; i++ {
		cand := filepath.Join(wd, "config", "models.yaml")
		if _, err := os.Stat(cand); err == nil {
			return cand, true
		}
		wd = filepath.Dir(wd)
	}
	return "", false
}

// loadLocked loads the configuration - must be called while holding mu.Lock()
func loadLocked() {
	var cfg config
	for _, p := range defaultPaths {
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var tmp config
		if err := yaml.Unmarshal(data, &tmp); err != nil {
			log.Printf("WARNING: failed to unmarshal pricing config from %s: %v", p, err)
			continue
		}
		cfg = tmp
		break
	}
	if cfg.Pricing.Defaults.CombinedPer1K == 0 && len(cfg.Pricing.Models) == 0 {
		if path, ok := findUpConfig(); ok {
			if data, err := os.ReadFile(path); err == nil {
				var tmp config
				if err := yaml.Unmarshal(data, &tmp); err == nil {
					cfg = tmp
				}
			}
		}
	}
	loaded = &cfg
	initialized = true
}

func get() *config {
	mu.RLock()
	if initialized {
		defer mu.RUnlock()
		return loaded
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if !initialized {
		loadLocked()
	}
	return loaded
}

// Reload forces a re-read of pricing configuration.
func Reload() {
	mu.Lock()
	defer mu.Unlock()
	initialized = false
	loadLocked()
}

// DefaultPerToken returns the default combined price per token.
func DefaultPerToken() float64 {
	cfg := get()
	if cfg.Pricing.Defaults.CombinedPer1K > 0 {
		return cfg.Pricing.Defaults.CombinedPer1K / 1000.0
	}
	// Fallback: $0.002 per 1K tokens
	return 0.000002
}

// PricePerTokenForModel returns the combined per-token price for a model and
// whether the model was found in the table. The lookup is provider-agnostic:
// model names are unique across providers in practice.
func PricePerTokenForModel(model string) (float64, bool) {
	if model == "" {
		return 0, false
	}
	cfg := get()
	ml := strings.ToLower(model)
	for _, byModel := range cfg.Pricing.Models {
		for name, p := range byModel {
			if strings.ToLower(name) != ml {
				continue
			}
			if p.CombinedPer1K > 0 {
				return p.CombinedPer1K / 1000.0, true
			}
			if p.InputPer1K > 0 || p.OutputPer1K > 0 {
				// Assume a 1:3 input/output split when only split prices exist.
				return (p.InputPer1K*0.25 + p.OutputPer1K*0.75) / 1000.0, true
			}
		}
	}
	return 0, false
}

// CostForTokens estimates the USD cost of a call against a given model.
func CostForTokens(model string, tokens int) float64 {
	if tokens <= 0 {
		return 0
	}
	if per, ok := PricePerTokenForModel(model); ok {
		return per * float64(tokens)
	}
	return DefaultPerToken() * float64(tokens)
}

// Built-in per-tier estimates, used when config/models.yaml carries no tiers
// section. Values are reporting aids, not billing data.
var tierFallbacks = map[string]struct {
	tokens        int
	combinedPer1K float64
}{
	"low":    {150, 0.0001},
	"medium": {500, 0.002},
	"high":   {1000, 0.01},
}

// EstimateForTier returns the static token and cost estimate for a complexity
// tier, preferring the tiers section of config/models.yaml.
func EstimateForTier(tier string) (tokens int, costUSD float64) {
	cfg := get()
	if t, ok := cfg.Pricing.Tiers[strings.ToLower(tier)]; ok && t.Tokens > 0 {
		return t.Tokens, t.CombinedPer1K / 1000.0 * float64(t.Tokens)
	}
	if fb, ok := tierFallbacks[strings.ToLower(tier)]; ok {
		return fb.tokens, fb.combinedPer1K / 1000.0 * float64(fb.tokens)
	}
	fb := tierFallbacks["medium"]
	return fb.tokens, fb.combinedPer1K / 1000.0 * float64(fb.tokens)
}
