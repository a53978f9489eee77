package model

import (
	"fmt"
	"strings"
	"time"
)

// Wildcard values for filter dimensions that apply no restriction.
const (
	AllCategories = "ALL"
	AllTimeframes = "ALL"
)

// FilterSpec selects alerts for one report: a time window back from now,
// optionally restricted to a single category and a single timeframe.
// It is ephemeral; it lives for the duration of one report request or one
// menu walk and is never persisted.
type FilterSpec struct {
	Since     time.Duration
	Category  string
	Timeframe string
}

// DefaultFilter is the filter applied when a report is requested with no
// qualifiers: the last day, all categories, all timeframes.
func DefaultFilter() FilterSpec {
	return FilterSpec{
		Since:     24 * time.Hour,
		Category:  AllCategories,
		Timeframe: AllTimeframes,
	}
}

// Days reports the window size in whole days, rounding up partial days.
func (f FilterSpec) Days() int {
	d := int(f.Since / (24 * time.Hour))
	if f.Since%(24*time.Hour) != 0 {
		d++
	}
	if d < 1 {
		d = 1
	}
	return d
}

// Describe renders a short human-readable summary used in captions and
// export filenames.
func (f FilterSpec) Describe() string {
	parts := []string{fmt.Sprintf("%dd", f.Days())}
	if f.Category != AllCategories {
		parts = append(parts, strings.ToLower(f.Category))
	}
	if f.Timeframe != AllTimeframes {
		parts = append(parts, strings.ToLower(f.Timeframe))
	}
	return strings.Join(parts, " ")
}
