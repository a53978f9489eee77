package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is the fixed classification assigned to every ingested alert.
type Category string

const (
	CategoryRSI       Category = "RSI"
	CategoryCrossover Category = "CROSSOVER"
	CategoryTrend     Category = "TREND"
	CategoryOther     Category = "OTHER"
)

// Categories lists every valid category in priority order.
var Categories = []Category{CategoryRSI, CategoryCrossover, CategoryTrend, CategoryOther}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryRSI, CategoryCrossover, CategoryTrend, CategoryOther:
		return true
	}
	return false
}

// AlertRecord is one ingested trading-signal message. Records are immutable
// once built; every field except ReceivedAt, Category and RawText is
// best-effort extracted and may be absent.
type AlertRecord struct {
	ID            int64
	ReceivedAt    time.Time
	Symbol        *string
	Timeframe     *string
	Category      Category
	RSIValue      decimal.NullDecimal
	AlertTimeText *string
	RawText       string
}
