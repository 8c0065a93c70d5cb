// Package orchestrator is the primary entry point of the query layer: it
// classifies a query, enriches the prompt, resolves the provider chain, and
// executes it behind the response cache with the fixed degradation order
// cache, primary, fallback, stale cache, mock.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scout-analytics/adsbot/internal/cache"
	"github.com/scout-analytics/adsbot/internal/classifier"
	"github.com/scout-analytics/adsbot/internal/enrichment"
	"github.com/scout-analytics/adsbot/internal/models"
	"github.com/scout-analytics/adsbot/internal/providers"
	"github.com/scout-analytics/adsbot/internal/routing"
	"github.com/scout-analytics/adsbot/internal/telemetry"
	"github.com/scout-analytics/adsbot/internal/templates"
)

// ErrInvalidQuery is returned for malformed caller input: a query with
// neither text nor a template reference.
var ErrInvalidQuery = errors.New("invalid query")

// DefaultProviderTimeout bounds a single provider call when the caller's
// context carries no earlier deadline.
const DefaultProviderTimeout = 30 * time.Second

// Options carries per-call overrides, equivalent to setting the override
// fields on the query itself.
type Options struct {
	Provider string
	Model    string
}

// Config wires an Orchestrator.
type Config struct {
	Router          *routing.Router
	Enricher        *enrichment.Enricher
	Cache           cache.Store
	Templates       *templates.Catalog
	Telemetry       *telemetry.Store
	Providers       map[string]providers.Provider
	ProviderTimeout time.Duration
	Logger          *zap.Logger
}

// Orchestrator owns the per-request pipeline. Safe for concurrent use: the
// cache and telemetry store handle their own locking and everything else is
// read-only after construction.
type Orchestrator struct {
	router    *routing.Router
	enricher  *enrichment.Enricher
	cache     cache.Store
	templates *templates.Catalog
	telemetry *telemetry.Store
	providers map[string]providers.Provider
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// New constructs an Orchestrator. Missing optional pieces get working
// defaults; Cache, Telemetry, and at least one provider are expected for
// production use but nil-safe degradation keeps tests simple.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Router == nil {
		cfg.Router = routing.NewRouter(cfg.Logger)
	}
	if cfg.Enricher == nil {
		cfg.Enricher = enrichment.NewEnricher(nil, cfg.Logger)
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemoryStore(0, cfg.Logger)
	}
	if cfg.Templates == nil {
		cfg.Templates = templates.NewCatalog()
	}
	if cfg.Telemetry == nil {
		cfg.Telemetry = telemetry.NewStore(0)
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}
	return &Orchestrator{
		router:    cfg.Router,
		enricher:  cfg.Enricher,
		cache:     cfg.Cache,
		templates: cfg.Templates,
		telemetry: cfg.Telemetry,
		providers: cfg.Providers,
		timeout:   cfg.ProviderTimeout,
		logger:    cfg.Logger,
		now:       time.Now,
	}, nil
}

// ProcessQuery runs one query through the pipeline. It returns an error only
// for caller input problems (ErrInvalidQuery, templates.ErrTemplateNotFound);
// provider-side failures always degrade to a usable AIResponse.
func (o *Orchestrator) ProcessQuery(ctx context.Context, q models.Query, opts *Options) (*models.AIResponse, error) {
	if opts != nil {
		if opts.Provider != "" {
			q.ProviderOverride = opts.Provider
		}
		if opts.Model != "" {
			q.ModelOverride = opts.Model
		}
	}

	if q.Text == "" && q.TemplateID == "" {
		return nil, fmt.Errorf("%w: neither text nor template_id set", ErrInvalidQuery)
	}
	if q.ID == "" {
		q.ID = fmt.Sprintf("q_%d", o.now().UnixMilli())
	}

	prompt := q.Text
	if q.TemplateID != "" {
		rendered, err := o.templates.Render(q.TemplateID, q.Data)
		if err != nil {
			// TemplateNotFound is a caller error; no fallback is attempted.
			return nil, err
		}
		prompt = rendered
	}

	assessment := classifier.Classify(q)
	prompt = o.enricher.Enrich(ctx, q, prompt)
	chain := o.router.Route(q, assessment)
	fingerprint := cache.Fingerprint(q)

	o.logger.Debug("query routed",
		zap.String("query_id", q.ID),
		zap.String("tier", string(assessment.Tier)),
		zap.Int("score", assessment.Score),
		zap.String("ttl", string(chain.TTL)),
		zap.Int("chain_len", len(chain.Choices)),
	)

	resp := o.execute(ctx, q, prompt, assessment, chain, fingerprint)
	return resp, nil
}

// GetTelemetry returns recorded events, optionally filtered by key and ISO
// date (2006-01-02).
func (o *Orchestrator) GetTelemetry(keyFilter, dateFilter string) []telemetry.Event {
	return o.telemetry.Query(keyFilter, dateFilter)
}

// TelemetryStats returns the on-read aggregates.
func (o *Orchestrator) TelemetryStats() telemetry.Stats {
	return o.telemetry.Aggregate()
}
