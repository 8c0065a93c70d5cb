package classifier

import "regexp"

// Rule is one entry in the static classification table. Rules are evaluated
// in order and their weights are additive: a query matching both a simple and
// an advanced pattern accumulates both contributions.
type Rule struct {
	Pattern *regexp.Regexp
	Weight  int
	Label   string
}

// Weights per pattern set.
const (
	weightSimple   = -2
	weightComplex  = 3
	weightAdvanced = 5
	weightDomain   = 1
)

// simpleRules match cheap lookup-style questions a small model answers well.
var simpleRules = []Rule{
	{regexp.MustCompile(`(?i)\btop\s+\d+\b`), weightSimple, "simple:top_n"},
	{regexp.MustCompile(`(?i)\b(show|list|display)\b`), weightSimple, "simple:listing"},
	{regexp.MustCompile(`(?i)\b(total|count|sum|how many)\b`), weightSimple, "simple:aggregate"},
	{regexp.MustCompile(`(?i)\b(today|yesterday|this (week|month))\b`), weightSimple, "simple:recent_window"},
}

// complexRules match questions that need reasoning over more than one series.
var complexRules = []Rule{
	{regexp.MustCompile(`(?i)\b(compare|comparison|versus|vs\.?)\b`), weightComplex, "complex:comparison"},
	{regexp.MustCompile(`(?i)\b(trend|pattern|correlat\w*)\b`), weightComplex, "complex:trend"},
	{regexp.MustCompile(`(?i)\b(why|explain|reason|driver)\b`), weightComplex, "complex:causal"},
	{regexp.MustCompile(`(?i)\b(segment\w*|cohort|demographic\w*)\b`), weightComplex, "complex:segmentation"},
}

// advancedRules match open-ended analytical or predictive work.
var advancedRules = []Rule{
	{regexp.MustCompile(`(?i)\b(forecast\w*|predict\w*|project\w*)\b`), weightAdvanced, "advanced:forecasting"},
	{regexp.MustCompile(`(?i)\b(comprehensive|in-?depth|detailed)\b.*\b(analysis|report|review)\b`), weightAdvanced, "advanced:deep_analysis"},
	{regexp.MustCompile(`(?i)\b(recommend\w*|strateg\w*|optimi[sz]\w*)\b`), weightAdvanced, "advanced:strategy"},
	{regexp.MustCompile(`(?i)\b(competitive|competitor\w*|market share|benchmark\w*)\b`), weightAdvanced, "advanced:competitive"},
}

// domainRules annotate Philippine-retail vocabulary. They nudge the score by
// one point and mostly exist to surface domain specificity in factors.
var domainRules = []Rule{
	{regexp.MustCompile(`(?i)\b(sari-?sari|suki|tingi)\b`), weightDomain, "domain:retail_tagalog"},
	{regexp.MustCompile(`(?i)\b(barangay|ncr|luzon|visayas|mindanao)\b`), weightDomain, "domain:geography"},
	{regexp.MustCompile(`(?i)\b(fmcg|sku|basket|substitution)\b`), weightDomain, "domain:fmcg"},
	{regexp.MustCompile(`(?i)\b(payday|ber months?|christmas|fiesta|undas)\b`), weightDomain, "domain:seasonality"},
}

// ruleSets in evaluation order. The order is part of the contract: factors
// are recorded in the order the rules fire.
var ruleSets = [][]Rule{simpleRules, complexRules, advancedRules, domainRules}

var questionWords = []string{"how", "why", "what", "when", "where", "which"}

var questionWordRe = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(questionWords))
	for _, w := range questionWords {
		m[w] = regexp.MustCompile(`(?i)\b` + w + `\b`)
	}
	return m
}()
