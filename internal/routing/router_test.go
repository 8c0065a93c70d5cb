package routing

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/scout-analytics/adsbot/internal/classifier"
	"github.com/scout-analytics/adsbot/internal/models"
)

func route(t *testing.T, q models.Query) models.FallbackChain {
	t.Helper()
	r := NewRouter(zap.NewNop())
	return r.Route(q, classifier.Classify(q))
}

func TestRouteUrgentAlertsNeverCached(t *testing.T) {
	chain := route(t, models.Query{Type: models.QueryInsight, Text: "urgent: alert me about stockouts in NCR"})
	if chain.TTL != models.TTLNone {
		t.Errorf("ttl = %s, want none for urgent alerts", chain.TTL)
	}
	primary, ok := chain.Primary()
	if !ok || primary.Name != models.ProviderGroq {
		t.Errorf("primary = %+v, want groq for low latency", primary)
	}
}

func TestRouteSubstitutionLongTTL(t *testing.T) {
	chain := route(t, models.Query{Type: models.QueryAnalysis, Text: "substitution patterns by age group"})
	if chain.TTL != models.TTLLong {
		t.Errorf("ttl = %s, want long", chain.TTL)
	}
	primary, _ := chain.Primary()
	if primary.Name != models.ProviderAnthropic {
		t.Errorf("primary = %+v, want anthropic", primary)
	}
}

func TestRouteChatShortTTL(t *testing.T) {
	chain := route(t, models.Query{Type: models.QueryChat, Text: "kumusta, any sales news today"})
	if chain.TTL != models.TTLShort {
		t.Errorf("ttl = %s, want short for chat", chain.TTL)
	}
}

func TestRouteSimpleOnlyQueriesNeverLongTTL(t *testing.T) {
	// Queries matching only simple classifier patterns must never receive
	// the long TTL class.
	queries := []string{
		"show top 10 products",
		"list stores",
		"total sales today",
		"display count this week",
	}
	for _, text := range queries {
		chain := route(t, models.Query{Type: models.QueryInsight, Text: text})
		if chain.TTL == models.TTLLong {
			t.Errorf("query %q routed to long TTL", text)
		}
	}
}

func TestRouteOverridesProduceSingleChain(t *testing.T) {
	chain := route(t, models.Query{
		Type:             models.QueryInsight,
		Text:             "anything at all",
		ProviderOverride: models.ProviderAnthropic,
		ModelOverride:    "claude-3-5-haiku-20241022",
	})
	if len(chain.Choices) != 1 {
		t.Fatalf("chain length = %d, want 1 with no fallback", len(chain.Choices))
	}
	if chain.Choices[0].Name != models.ProviderAnthropic {
		t.Errorf("provider = %s, want anthropic", chain.Choices[0].Name)
	}
	if chain.TTL != models.TTLNone {
		t.Errorf("ttl = %s, want none for override runs", chain.TTL)
	}
}

func TestRouteModelOverrideDetectsProvider(t *testing.T) {
	chain := route(t, models.Query{Type: models.QueryInsight, Text: "x", ModelOverride: "gpt-4o"})
	if chain.Choices[0].Name != models.ProviderOpenAI {
		t.Errorf("provider = %s, want openai inferred from model name", chain.Choices[0].Name)
	}
}

func TestRouteDeterministic(t *testing.T) {
	q := models.Query{Type: models.QueryAnalysis, Text: "compare trends across regions"}
	r := NewRouter(zap.NewNop())
	a := classifier.Classify(q)
	first := r.Route(q, a)
	second := r.Route(q, a)
	if len(first.Choices) != len(second.Choices) || first.TTL != second.TTL {
		t.Errorf("routing not deterministic: %+v vs %+v", first, second)
	}
	for i := range first.Choices {
		if first.Choices[i] != second.Choices[i] {
			t.Errorf("choice %d differs: %+v vs %+v", i, first.Choices[i], second.Choices[i])
		}
	}
}

func TestRouteTierDefaultForUntypedQuery(t *testing.T) {
	chain := route(t, models.Query{Text: "show top 5 products"})
	if len(chain.Choices) != 2 {
		t.Fatalf("chain length = %d, want primary+fallback", len(chain.Choices))
	}
	primary, _ := chain.Primary()
	if primary.Name != models.ProviderGroq {
		t.Errorf("low-tier default primary = %+v, want groq", primary)
	}
	if chain.TTL != models.TTLMedium {
		t.Errorf("ttl = %s, want medium default", chain.TTL)
	}
}

func TestLoadFileReplacesTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routing.yaml")
	content := `routes:
  - category: realtime_chat
    primary:
      model: gpt-4o-mini
    fallback:
      model: llama-3.3-70b-versatile
    ttl: medium
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRouter(zap.NewNop())
	if err := r.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	q := models.Query{Type: models.QueryChat, Text: "hello"}
	chain := r.Route(q, classifier.Classify(q))
	primary, _ := chain.Primary()
	if primary.Name != models.ProviderOpenAI || chain.TTL != models.TTLMedium {
		t.Errorf("expected loaded route, got %+v ttl=%s", primary, chain.TTL)
	}
}

func TestLoadFileRejectsBadTTL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routing.yaml")
	content := "routes:\n  - category: realtime_chat\n    primary:\n      model: gpt-4o-mini\n    ttl: forever\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewRouter(zap.NewNop())
	if err := r.LoadFile(path); err == nil {
		t.Error("expected error for unknown ttl class")
	}
	// Built-in table must remain active.
	q := models.Query{Type: models.QueryChat, Text: "hello"}
	chain := r.Route(q, classifier.Classify(q))
	if chain.TTL != models.TTLShort {
		t.Errorf("ttl = %s, want short from builtin table", chain.TTL)
	}
}
