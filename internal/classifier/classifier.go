// Package classifier scores natural-language analytic queries to decide the
// routing tier. Classification is a pure function over a static, ordered
// pattern table so the table can be unit-tested independently of the scorer.
package classifier

import (
	"strings"

	"github.com/scout-analytics/adsbot/internal/models"
	"github.com/scout-analytics/adsbot/internal/pricing"
)

// Heuristic weights beyond the pattern table.
const (
	weightLongQuery       = 2
	weightMultiQuestion   = 2
	weightFunctionCalling = 4
	weightMultiSource     = 3

	longQueryTokens = 20
)

// Classify derives a ComplexityAssessment from a query. It never fails: an
// empty or unmatchable query scores 0 and lands in the low tier.
func Classify(q models.Query) models.ComplexityAssessment {
	text := q.Text
	score := 0
	factors := []string{}

	for _, set := range ruleSets {
		for _, rule := range set {
			if text != "" && rule.Pattern.MatchString(text) {
				score += rule.Weight
				factors = append(factors, rule.Label)
			}
		}
	}

	if len(strings.Fields(text)) > longQueryTokens {
		score += weightLongQuery
		factors = append(factors, "heuristic:long_query")
	}
	if countQuestionWords(text) >= 2 {
		score += weightMultiQuestion
		factors = append(factors, "heuristic:multi_question")
	}
	if q.RequiresFunctionCalling {
		score += weightFunctionCalling
		factors = append(factors, "heuristic:function_calling")
	}
	if q.MultipleDataSources {
		score += weightMultiSource
		factors = append(factors, "heuristic:multi_source")
	}

	tier := tierForScore(score)
	if q.ComplexityOverride != "" {
		tier = q.ComplexityOverride
		factors = append(factors, "override:complexity")
	}

	tokens, cost := pricing.EstimateForTier(string(tier))

	return models.ComplexityAssessment{
		Score:            score,
		Factors:          factors,
		Tier:             tier,
		Confidence:       confidenceForScore(score),
		EstimatedTokens:  tokens,
		EstimatedCostUSD: cost,
	}
}

func tierForScore(score int) models.Tier {
	switch {
	case score <= 0:
		return models.TierLow
	case score <= 4:
		return models.TierMedium
	default:
		return models.TierHigh
	}
}

// confidenceForScore maps |score|/10 onto a percentage clamped to 60..95.
func confidenceForScore(score int) int {
	abs := score
	if abs < 0 {
		abs = -abs
	}
	conf := abs * 10
	if conf < 60 {
		return 60
	}
	if conf > 95 {
		return 95
	}
	return conf
}

func countQuestionWords(text string) int {
	if text == "" {
		return 0
	}
	n := 0
	for _, w := range questionWords {
		if questionWordRe[w].MatchString(text) {
			n++
		}
	}
	return n
}
