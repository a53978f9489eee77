package parse

import (
	"strings"

	"trade-signal-alerts/internal/model"
)

// rule is one prioritized classification test. The first line is matched
// strictly (a decisive title), the body pass relaxes to containment so a
// signal buried below a symbol line is still found.
type rule struct {
	category   model.Category
	matchTitle func(s string) bool
	matchBody  func(s string) bool
}

var rules = []rule{
	{
		category: model.CategoryCrossover,
		matchTitle: func(s string) bool {
			return strings.HasPrefix(s, "CRUZAMENTO") && strings.Contains(s, "MA200")
		},
		matchBody: func(s string) bool {
			return strings.Contains(s, "CRUZAMENTO") && strings.Contains(s, "MA200")
		},
	},
	{
		category:   model.CategoryRSI,
		matchTitle: func(s string) bool { return strings.HasPrefix(s, "RSI") },
		matchBody:  func(s string) bool { return strings.Contains(s, "RSI") },
	},
	{
		category:   model.CategoryTrend,
		matchTitle: func(s string) bool { return strings.Contains(s, "TENDENCIA LONGA") },
		matchBody:  func(s string) bool { return strings.Contains(s, "TENDENCIA LONGA") },
	},
}

// Classify assigns exactly one category to an alert from its normalized
// first line and body. It never fails: text matching no rule is
// CategoryOther.
func Classify(first, body string) model.Category {
	for _, r := range rules {
		if r.matchTitle(first) {
			return r.category
		}
	}
	for _, r := range rules {
		if r.matchBody(body) {
			return r.category
		}
	}
	return model.CategoryOther
}
