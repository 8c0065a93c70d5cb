package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/scout-analytics/adsbot/internal/cache"
	"github.com/scout-analytics/adsbot/internal/models"
	"github.com/scout-analytics/adsbot/internal/providers"
	"github.com/scout-analytics/adsbot/internal/telemetry"
)

// stubProvider is a scriptable provider for executor tests.
type stubProvider struct {
	mu         sync.Mutex
	name       string
	content    string
	err        error
	calls      int
	lastPrompt string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.Completion, error) {
	s.mu.Lock()
	s.calls++
	s.lastPrompt = req.Prompt
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &providers.Completion{
		Content: s.content,
		Model:   req.Model,
		Usage:   models.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}, nil
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestOrchestrator(t *testing.T, provs map[string]providers.Provider) (*Orchestrator, *telemetry.Store, cache.Store) {
	t.Helper()
	store := telemetry.NewStore(1000)
	c := cache.NewMemoryStore(100, zap.NewNop())
	o, err := New(Config{
		Cache:     c,
		Telemetry: store,
		Providers: provs,
		Logger:    zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return o, store, c
}

// chatQuery routes to realtime_chat: groq primary, openai fallback, short TTL.
func chatQuery(text string) models.Query {
	return models.Query{Type: models.QueryChat, Text: text}
}

func TestFallbackOrdering(t *testing.T) {
	groq := &stubProvider{name: "groq", err: errors.New("boom")}
	openai := &stubProvider{name: "openai", content: "fallback answer"}
	o, store, _ := newTestOrchestrator(t, map[string]providers.Provider{
		"groq":   groq,
		"openai": openai,
	})

	resp, err := o.ProcessQuery(context.Background(), chatQuery("quick sales check"), nil)
	if err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}
	if resp.Provider.Name != "openai" {
		t.Errorf("provider = %s, want fallback openai", resp.Provider.Name)
	}
	if resp.Content != "fallback answer" {
		t.Errorf("content = %q", resp.Content)
	}
	if groq.callCount() != 1 || openai.callCount() != 1 {
		t.Errorf("calls: groq=%d openai=%d, want 1 each", groq.callCount(), openai.callCount())
	}
	if got := len(store.Query(telemetry.EventProviderFallback, "")); got != 1 {
		t.Errorf("provider_fallback events = %d, want 1", got)
	}
}

func TestTotalFailureReturnsMock(t *testing.T) {
	o, store, _ := newTestOrchestrator(t, map[string]providers.Provider{})

	resp, err := o.ProcessQuery(context.Background(), chatQuery("anything"), nil)
	if err != nil {
		t.Fatalf("ProcessQuery must not fail on provider errors: %v", err)
	}
	if resp.Confidence != 0 {
		t.Errorf("confidence = %f, want 0 for mock", resp.Confidence)
	}
	if !strings.Contains(resp.Content, "No live AI provider") {
		t.Errorf("mock content = %q", resp.Content)
	}
	if resp.Cached {
		t.Error("mock response must not be marked cached")
	}
	if got := len(store.Query(telemetry.EventQueryFailure, "")); got != 1 {
		t.Errorf("query_failure events = %d, want 1", got)
	}
}

func TestCacheHitSkipsProviders(t *testing.T) {
	groq := &stubProvider{name: "groq", content: "live answer"}
	o, store, _ := newTestOrchestrator(t, map[string]providers.Provider{"groq": groq})

	q := chatQuery("kumusta sales")
	first, err := o.ProcessQuery(context.Background(), q, nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Error("first response must be live")
	}

	second, err := o.ProcessQuery(context.Background(), q, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Error("second response must be served from cache")
	}
	if second.Content != "live answer" {
		t.Errorf("cached content = %q", second.Content)
	}
	if groq.callCount() != 1 {
		t.Errorf("provider calls = %d, want 1 (second served from cache)", groq.callCount())
	}
	if got := len(store.Query(telemetry.EventCacheHit, "")); got != 1 {
		t.Errorf("cache_hit events = %d, want 1", got)
	}
	if got := len(store.Query(telemetry.EventCacheMiss, "")); got != 1 {
		t.Errorf("cache_miss events = %d, want 1", got)
	}
}

func TestStaleCacheBeforeMock(t *testing.T) {
	o, store, c := newTestOrchestrator(t, map[string]providers.Provider{})

	q := chatQuery("snack trends")
	fp := cache.Fingerprint(q)
	stale := models.AIResponse{ID: "old", Content: "week-old answer", Confidence: 0.8}
	if err := c.Put(context.Background(), fp, stale, time.Nanosecond, models.TierLow); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond) // let the nanosecond TTL lapse

	resp, err := o.ProcessQuery(context.Background(), q, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Cached || !resp.Stale {
		t.Errorf("cached=%v stale=%v, want both true", resp.Cached, resp.Stale)
	}
	if resp.Content != "week-old answer" {
		t.Errorf("content = %q", resp.Content)
	}
	found := false
	for _, s := range resp.Suggestions {
		if strings.Contains(s, "stale") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected staleness note in suggestions, got %v", resp.Suggestions)
	}
	if got := len(store.Query(telemetry.EventCacheStaleHit, "")); got != 1 {
		t.Errorf("cache_stale_hit events = %d, want 1", got)
	}
	if got := len(store.Query(telemetry.EventQueryFailure, "")); got != 0 {
		t.Errorf("query_failure events = %d, want 0 when stale cache served", got)
	}
}

func TestOverrideBypassesCacheAndFallback(t *testing.T) {
	anthropic := &stubProvider{name: "anthropic", content: "pinned answer"}
	o, _, c := newTestOrchestrator(t, map[string]providers.Provider{"anthropic": anthropic})

	opts := &Options{Provider: "anthropic", Model: "claude-3-5-haiku-20241022"}
	q := models.Query{Type: models.QueryInsight, Text: "top products this week"}

	for i := 0; i < 2; i++ {
		resp, err := o.ProcessQuery(context.Background(), q, opts)
		if err != nil {
			t.Fatal(err)
		}
		if resp.Provider.Name != "anthropic" || resp.Provider.Model != "claude-3-5-haiku-20241022" {
			t.Errorf("provider = %+v, want pinned anthropic", resp.Provider)
		}
		if resp.Cached {
			t.Error("override runs must always be live")
		}
	}
	if anthropic.callCount() != 2 {
		t.Errorf("calls = %d, want 2 (no caching under override)", anthropic.callCount())
	}
	if c.Len(context.Background()) != 0 {
		t.Errorf("cache len = %d, want 0", c.Len(context.Background()))
	}
}

func TestInvalidQueryRejected(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, nil)
	_, err := o.ProcessQuery(context.Background(), models.Query{Type: models.QueryChat}, nil)
	if !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("err = %v, want ErrInvalidQuery", err)
	}
}

func TestTemplateNotFoundRejected(t *testing.T) {
	groq := &stubProvider{name: "groq", content: "x"}
	o, store, _ := newTestOrchestrator(t, map[string]providers.Provider{"groq": groq})

	_, err := o.ProcessQuery(context.Background(), models.Query{
		Type:       models.QueryInsight,
		TemplateID: "missing_template",
	}, nil)
	if err == nil {
		t.Fatal("expected error for unknown template")
	}
	if groq.callCount() != 0 {
		t.Error("no provider call may happen for a caller error")
	}
	if got := len(store.Query("", "")); got != 0 {
		t.Errorf("telemetry events = %d, want 0 for rejected input", got)
	}
}

func TestTemplateRenderFeedsPrompt(t *testing.T) {
	groq := &stubProvider{name: "groq", content: "ok"}
	openai := &stubProvider{name: "openai", content: "ok"}
	o, _, _ := newTestOrchestrator(t, map[string]providers.Provider{"groq": groq, "openai": openai})

	_, err := o.ProcessQuery(context.Background(), models.Query{
		Type:       models.QueryChat,
		TemplateID: "top_products",
		Data:       map[string]interface{}{"limit": 7, "period": "August"},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	groq.mu.Lock()
	prompt := groq.lastPrompt
	groq.mu.Unlock()
	if !strings.Contains(prompt, "top 7 products") {
		t.Errorf("rendered template missing from prompt: %q", prompt)
	}
}

func TestQueryIDGenerated(t *testing.T) {
	groq := &stubProvider{name: "groq", content: "ok"}
	openai := &stubProvider{name: "openai", content: "ok"}
	o, store, _ := newTestOrchestrator(t, map[string]providers.Provider{"groq": groq, "openai": openai})

	_, err := o.ProcessQuery(context.Background(), chatQuery("hello"), nil)
	if err != nil {
		t.Fatal(err)
	}
	events := store.Query(telemetry.EventQuerySuccess, "")
	if len(events) != 1 {
		t.Fatalf("query_success events = %d, want 1", len(events))
	}
	id, _ := events[0].Payload["query_id"].(string)
	if !strings.HasPrefix(id, "q_") {
		t.Errorf("generated id = %q, want q_<timestamp> form", id)
	}
}

func TestConcurrentQueriesSameFingerprint(t *testing.T) {
	groq := &stubProvider{name: "groq", content: "answer"}
	openai := &stubProvider{name: "openai", content: "answer"}
	o, _, _ := newTestOrchestrator(t, map[string]providers.Provider{"groq": groq, "openai": openai})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := o.ProcessQuery(context.Background(), chatQuery("same question"), nil)
			if err != nil || resp == nil {
				t.Errorf("concurrent ProcessQuery failed: %v", err)
			}
		}()
	}
	wg.Wait()
	// No de-duplication is promised for concurrent identical requests; each
	// may perform a redundant live call, but none may fail.
}
