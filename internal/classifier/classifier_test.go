package classifier

import (
	"reflect"
	"testing"

	"github.com/scout-analytics/adsbot/internal/models"
)

func TestClassifySimpleQuery(t *testing.T) {
	a := Classify(models.Query{Type: models.QueryInsight, Text: "show top 10 products"})
	if a.Tier != models.TierLow {
		t.Errorf("tier = %s, want low (score=%d factors=%v)", a.Tier, a.Score, a.Factors)
	}
	if a.Score > 0 {
		t.Errorf("score = %d, want <= 0", a.Score)
	}
	// Both the listing and top-N rules fire; duplicates are allowed.
	if len(a.Factors) < 2 {
		t.Errorf("factors = %v, want at least two simple matches", a.Factors)
	}
}

func TestClassifyAdvancedQuery(t *testing.T) {
	a := Classify(models.Query{
		Type: models.QueryAnalysis,
		Text: "generate a comprehensive competitive analysis and recommend strategies",
	})
	if a.Score < 10 {
		t.Errorf("score = %d, want >= 10 (factors=%v)", a.Score, a.Factors)
	}
	if a.Tier != models.TierHigh {
		t.Errorf("tier = %s, want high", a.Tier)
	}
}

func TestClassifyEmptyQuery(t *testing.T) {
	a := Classify(models.Query{Type: models.QueryChat})
	if a.Score != 0 {
		t.Errorf("score = %d, want 0", a.Score)
	}
	if a.Tier != models.TierLow {
		t.Errorf("tier = %s, want low", a.Tier)
	}
	if a.Confidence != 60 {
		t.Errorf("confidence = %d, want floor of 60", a.Confidence)
	}
}

func TestClassifyIdempotent(t *testing.T) {
	q := models.Query{
		Type:                models.QueryAnalysis,
		Text:                "why did sales drop in NCR versus last month and which SKUs drove it",
		MultipleDataSources: true,
	}
	first := Classify(q)
	second := Classify(q)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Classify not idempotent:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

func TestClassifyQuestionWordHeuristic(t *testing.T) {
	a := Classify(models.Query{Type: models.QueryChat, Text: "what happened and why"})
	found := false
	for _, f := range a.Factors {
		if f == "heuristic:multi_question" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected multi_question factor, got %v", a.Factors)
	}

	// A single question word must not trigger the heuristic.
	b := Classify(models.Query{Type: models.QueryChat, Text: "what happened"})
	for _, f := range b.Factors {
		if f == "heuristic:multi_question" {
			t.Errorf("multi_question fired on a single question word: %v", b.Factors)
		}
	}
}

func TestClassifyCallerDeclaredFlags(t *testing.T) {
	base := Classify(models.Query{Type: models.QueryInsight, Text: "basket share by region"})
	flagged := Classify(models.Query{
		Type:                    models.QueryInsight,
		Text:                    "basket share by region",
		RequiresFunctionCalling: true,
		MultipleDataSources:     true,
	})
	if flagged.Score != base.Score+7 {
		t.Errorf("flags added %d, want +7", flagged.Score-base.Score)
	}
}

func TestClassifyConflictingPatternsAccumulate(t *testing.T) {
	// Matches a simple rule (show) and an advanced rule (forecast). The
	// contributions are additive, not mutually exclusive.
	a := Classify(models.Query{Type: models.QueryForecast, Text: "show me a forecast for December"})
	hasSimple, hasAdvanced := false, false
	for _, f := range a.Factors {
		switch f {
		case "simple:listing":
			hasSimple = true
		case "advanced:forecasting":
			hasAdvanced = true
		}
	}
	if !hasSimple || !hasAdvanced {
		t.Errorf("expected both simple and advanced factors, got %v", a.Factors)
	}
	if a.Score != weightSimple+weightAdvanced {
		t.Errorf("score = %d, want %d", a.Score, weightSimple+weightAdvanced)
	}
}

func TestComplexityOverridePinsTier(t *testing.T) {
	a := Classify(models.Query{
		Type:               models.QueryInsight,
		Text:               "show top 5 stores",
		ComplexityOverride: models.TierHigh,
	})
	if a.Tier != models.TierHigh {
		t.Errorf("tier = %s, want override high", a.Tier)
	}
}

func TestConfidenceClamp(t *testing.T) {
	cases := []struct {
		score int
		want  int
	}{
		{0, 60},
		{-4, 60},
		{7, 70},
		{15, 95},
		{-20, 95},
	}
	for _, tc := range cases {
		if got := confidenceForScore(tc.score); got != tc.want {
			t.Errorf("confidenceForScore(%d) = %d, want %d", tc.score, got, tc.want)
		}
	}
}

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  models.Tier
	}{
		{-6, models.TierLow},
		{0, models.TierLow},
		{1, models.TierMedium},
		{4, models.TierMedium},
		{5, models.TierHigh},
	}
	for _, tc := range cases {
		if got := tierForScore(tc.score); got != tc.want {
			t.Errorf("tierForScore(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
