// Package enrichment attaches domain context to prompts before they reach a
// provider. Enrichment is best-effort: a failing or empty context source only
// drops its section, it never fails the request.
package enrichment

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/scout-analytics/adsbot/internal/models"
)

// Fragment is one named section of prompt context.
type Fragment struct {
	Section string
	Body    string
}

// ContextProvider supplies locale, seasonal, or business facts for a query.
// Implementations are best-effort; there is no contract beyond that.
type ContextProvider interface {
	GetContext(ctx context.Context, q models.Query) ([]Fragment, error)
}

// Enricher builds a structured prompt preamble from a static geography
// lookup, date-contained seasonal windows, and an injected ContextProvider.
type Enricher struct {
	provider ContextProvider
	regions  []Region
	seasons  []Season
	logger   *zap.Logger
	now      func() time.Time
}

// NewEnricher constructs an Enricher with the built-in Philippine retail
// lookups. provider may be nil, in which case only the static sections apply.
func NewEnricher(provider ContextProvider, logger *zap.Logger) *Enricher {
	return &Enricher{
		provider: provider,
		regions:  defaultRegions,
		seasons:  defaultSeasons,
		logger:   logger,
		now:      time.Now,
	}
}

// Enrich formats the final prompt: preamble sections first, then the query
// text. Sections with no data are omitted.
func (e *Enricher) Enrich(ctx context.Context, q models.Query, prompt string) string {
	var sections []Fragment

	if e.provider != nil {
		frags, err := e.provider.GetContext(ctx, q)
		if err != nil {
			e.logger.Warn("context provider failed, omitting section",
				zap.String("query_id", q.ID),
				zap.Error(err),
			)
		} else {
			sections = append(sections, frags...)
		}
	}

	if geo := e.matchRegions(prompt); geo != "" {
		sections = append(sections, Fragment{Section: "Geography", Body: geo})
	}
	if seasonal := e.activeSeasons(); seasonal != "" {
		sections = append(sections, Fragment{Section: "Seasonality", Body: seasonal})
	}

	if len(sections) == 0 {
		return prompt
	}

	var b strings.Builder
	b.WriteString("Context for this Philippine retail analytics question:\n")
	for _, s := range sections {
		if strings.TrimSpace(s.Body) == "" {
			continue
		}
		b.WriteString("- ")
		b.WriteString(s.Section)
		b.WriteString(": ")
		b.WriteString(s.Body)
		b.WriteString("\n")
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(prompt)
	return b.String()
}

// matchRegions extracts named regions referenced by the query text.
func (e *Enricher) matchRegions(text string) string {
	lt := strings.ToLower(text)
	var hits []string
	for _, r := range e.regions {
		for _, alias := range r.Aliases {
			if strings.Contains(lt, alias) {
				hits = append(hits, r.Name+" — "+r.Facts)
				break
			}
		}
	}
	return strings.Join(hits, "; ")
}

// activeSeasons selects seasonal entries whose date range contains today.
func (e *Enricher) activeSeasons() string {
	now := e.now()
	var hits []string
	for _, s := range e.seasons {
		if s.contains(now) {
			hits = append(hits, s.Name+" ("+s.Note+")")
		}
	}
	return strings.Join(hits, "; ")
}
