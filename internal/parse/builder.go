package parse

import (
	"time"

	"github.com/shopspring/decimal"

	"trade-signal-alerts/internal/model"
	"trade-signal-alerts/internal/textnorm"
)

// BuildRecord composes the extractors and the classifier into one immutable
// AlertRecord. The only input it rejects is a message with no non-empty
// lines; everything else yields a record, possibly with every optional
// field absent. ReceivedAt is the ingestion clock, never parsed from text.
func BuildRecord(rawText string, now time.Time) (model.AlertRecord, bool) {
	lines := textnorm.Lines(rawText)
	if len(lines) == 0 {
		return model.AlertRecord{}, false
	}

	first := lines[0]
	category := Classify(textnorm.Upper(first), textnorm.Upper(rawText))

	record := model.AlertRecord{
		ReceivedAt:    now.UTC(),
		Symbol:        ExtractSymbol(lines),
		Timeframe:     ExtractTimeframe(first, rawText),
		Category:      category,
		AlertTimeText: ExtractAlertTime(lines),
		RawText:       rawText,
	}

	// RSI thresholds only mean something on RSI-class alerts.
	if category == model.CategoryRSI {
		record.RSIValue = ExtractRSIValue(lines)
	} else {
		record.RSIValue = decimal.NullDecimal{}
	}

	return record, true
}
