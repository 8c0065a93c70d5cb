package enrichment

import "time"

// Region is one entry in the static geography lookup.
type Region struct {
	Name    string
	Aliases []string // matched case-insensitively against the query text
	Facts   string
}

// Season is a recurring retail window matched by month/day containment.
// Windows may wrap the year boundary (e.g. Dec 16 – Jan 6).
type Season struct {
	Name       string
	StartMonth time.Month
	StartDay   int
	EndMonth   time.Month
	EndDay     int
	Note       string
}

func (s Season) contains(t time.Time) bool {
	start := monthDay(s.StartMonth, s.StartDay)
	end := monthDay(s.EndMonth, s.EndDay)
	cur := monthDay(t.Month(), t.Day())
	if start <= end {
		return cur >= start && cur <= end
	}
	// Wrapped window
	return cur >= start || cur <= end
}

func monthDay(m time.Month, d int) int {
	return int(m)*100 + d
}

var defaultRegions = []Region{
	{
		Name:    "NCR",
		Aliases: []string{"ncr", "metro manila", "manila", "quezon city"},
		Facts:   "highest store density, modern trade heavy, strongest weekday lunch peak",
	},
	{
		Name:    "North Luzon",
		Aliases: []string{"north luzon", "ilocos", "cagayan", "baguio"},
		Facts:   "sari-sari dominant, tingi purchasing common, harvest-linked demand swings",
	},
	{
		Name:    "South Luzon",
		Aliases: []string{"south luzon", "calabarzon", "batangas", "laguna", "cavite"},
		Facts:   "mixed trade, commuter-driven morning peaks, fast-growing convenience channel",
	},
	{
		Name:    "Visayas",
		Aliases: []string{"visayas", "cebu", "iloilo", "bacolod"},
		Facts:   "strong regional brand loyalty, fiesta calendar drives category spikes",
	},
	{
		Name:    "Mindanao",
		Aliases: []string{"mindanao", "davao", "cagayan de oro", "zamboanga"},
		Facts:   "price-sensitive, larger pack sizes preferred, longer replenishment cycles",
	},
}

var defaultSeasons = []Season{
	{
		Name:       "Ber months",
		StartMonth: time.September, StartDay: 1,
		EndMonth: time.December, EndDay: 15,
		Note: "early Christmas buildup, gifting and food categories accelerate",
	},
	{
		Name:       "Christmas peak",
		StartMonth: time.December, StartDay: 16,
		EndMonth: time.January, EndDay: 6,
		Note: "highest basket values of the year, 13th month pay in circulation",
	},
	{
		Name:       "Back to school",
		StartMonth: time.May, StartDay: 15,
		EndMonth: time.June, EndDay: 30,
		Note: "school supplies and single-serve snacks spike",
	},
	{
		Name:       "Summer",
		StartMonth: time.March, StartDay: 1,
		EndMonth: time.May, EndDay: 14,
		Note: "beverages and ice categories peak, brownout-driven cold drink demand",
	},
	{
		Name:       "Undas",
		StartMonth: time.October, StartDay: 25,
		EndMonth: time.November, EndDay: 2,
		Note: "travel to provinces, candles and ready-to-eat food lift",
	},
}
