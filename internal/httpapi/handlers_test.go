package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/scout-analytics/adsbot/internal/models"
	"github.com/scout-analytics/adsbot/internal/orchestrator"
	"github.com/scout-analytics/adsbot/internal/providers"
)

type fixedProvider struct {
	name    string
	content string
}

func (p *fixedProvider) Name() string { return p.name }

func (p *fixedProvider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.Completion, error) {
	return &providers.Completion{
		Content: p.content,
		Model:   req.Model,
		Usage:   models.Usage{PromptTokens: 5, CompletionTokens: 5, TotalTokens: 10},
	}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	orch, err := orchestrator.New(orchestrator.Config{
		Providers: map[string]providers.Provider{
			"groq":   &fixedProvider{name: "groq", content: "sari-sari answer"},
			"openai": &fixedProvider{name: "openai", content: "sari-sari answer"},
		},
		Logger: zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("orchestrator.New failed: %v", err)
	}

	mux := http.NewServeMux()
	NewHandler(orch, zap.NewNop()).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestQueryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := `{"query":{"type":"chat","text":"how are snack sales in Cebu"}}`
	resp, err := http.Post(srv.URL+"/v1/query", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out models.AIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Content != "sari-sari answer" {
		t.Errorf("content = %q", out.Content)
	}
	if out.ID == "" {
		t.Error("response missing ID")
	}
}

func TestQueryEndpointRejectsInvalid(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"empty query", `{"query":{"type":"chat"}}`},
		{"unknown template", `{"query":{"type":"insight","template_id":"nope"}}`},
		{"bad json", `{"query":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/v1/query", "application/json", strings.NewReader(tc.body))
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestQueryEndpointMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/query")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestQueryEndpointOverride(t *testing.T) {
	srv := newTestServer(t)

	body := `{"query":{"type":"chat","text":"quick check"},"options":{"provider":"openai","model":"gpt-4o-mini"}}`
	resp, err := http.Post(srv.URL+"/v1/query", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out models.AIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Provider.Name != "openai" || out.Provider.Model != "gpt-4o-mini" {
		t.Errorf("provider = %+v, want pinned openai/gpt-4o-mini", out.Provider)
	}
}

func TestTelemetryEndpoints(t *testing.T) {
	srv := newTestServer(t)

	body := `{"query":{"type":"chat","text":"hello"}}`
	resp, err := http.Post(srv.URL+"/v1/query", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/v1/telemetry?key=query_success")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var listing struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatal(err)
	}
	if listing.Count != 1 {
		t.Errorf("query_success count = %d, want 1", listing.Count)
	}

	resp, err = http.Get(srv.URL + "/v1/telemetry/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var stats struct {
		TotalEvents int `json:"total_events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalEvents == 0 {
		t.Error("stats total_events = 0, want > 0")
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
