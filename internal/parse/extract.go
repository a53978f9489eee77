// Package parse turns free-form alert text into structured fields. Upstream
// alert generators are not under our control, so every extractor is a chain
// of heuristics with ordered fallbacks; a miss is an expected outcome and is
// reported as an absent value, never as an error.
package parse

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"trade-signal-alerts/internal/textnorm"
)

// reservedWords are labels that look like symbols but never are.
var reservedWords = map[string]struct{}{
	"RSI":     {},
	"MA200":   {},
	"HORA":    {},
	"PRECO":   {},
	"STOP":    {},
	"ALVO":    {},
	"ALVOS":   {},
	"ENTRADA": {},
}

var (
	symbolPattern    = regexp.MustCompile(`^[A-Z0-9]{2,12}$`)
	parenPattern     = regexp.MustCompile(`\(([^)]+)\)`)
	timeframePattern = regexp.MustCompile(`\b(\d{1,2})(M|H|D)\b`)
	numberPattern    = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// ExtractSymbol scans lines in order and returns the first one that looks
// like a traded-instrument ticker: single token, 2-12 uppercase
// alphanumerics, at least one letter, not a known label.
func ExtractSymbol(lines []string) *string {
	for _, line := range lines {
		if strings.ContainsAny(line, " \t") {
			continue
		}
		candidate := textnorm.Upper(line)
		if len(candidate) < 2 || len(candidate) > 12 {
			continue
		}
		if !symbolPattern.MatchString(candidate) {
			continue
		}
		if _, reserved := reservedWords[candidate]; reserved {
			continue
		}
		if !strings.ContainsFunc(candidate, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
			continue
		}
		return &candidate
	}
	return nil
}

// timeframeStrategy tries one way of locating a timeframe token. Strategies
// run in declaration order; the first hit wins.
type timeframeStrategy func(first, body string) *string

var timeframeStrategies = []timeframeStrategy{
	timeframeFromParens,
	timeframeFromLine(func(first, _ string) string { return first }),
	timeframeFromLine(func(_, body string) string { return body }),
}

// ExtractTimeframe resolves the candle interval of an alert: a parenthetical
// on the first line beats a bare token on the first line, which beats a bare
// token anywhere in the body.
func ExtractTimeframe(first, body string) *string {
	upperFirst := textnorm.Upper(first)
	upperBody := textnorm.Upper(body)
	for _, strategy := range timeframeStrategies {
		if tf := strategy(upperFirst, upperBody); tf != nil {
			return tf
		}
	}
	return nil
}

func timeframeFromParens(first, _ string) *string {
	for _, m := range parenPattern.FindAllStringSubmatch(first, -1) {
		if tf := NormalizeTimeframe(m[1]); tf != nil {
			return tf
		}
	}
	return nil
}

func timeframeFromLine(pick func(first, body string) string) timeframeStrategy {
	return func(first, body string) *string {
		m := timeframePattern.FindStringSubmatch(pick(first, body))
		if m == nil {
			return nil
		}
		tf := m[1] + m[2]
		return &tf
	}
}

// NormalizeTimeframe canonicalizes a timeframe token into the
// {digits}{M|H|D} grammar: "15min" -> "15M", "4hrs" -> "4H". Returns nil
// when the token does not fit the grammar.
func NormalizeTimeframe(raw string) *string {
	token := textnorm.Upper(raw)
	token = strings.ReplaceAll(token, " ", "")
	for _, r := range []struct{ from, to string }{
		{"MIN", "M"},
		{"HRS", "H"},
		{"HR", "H"},
	} {
		token = strings.ReplaceAll(token, r.from, r.to)
	}
	if m := timeframePattern.FindStringSubmatch(token); m != nil && m[0] == token {
		tf := m[1] + m[2]
		return &tf
	}
	return nil
}

// ExtractRSIValue pulls the numeric threshold out of an RSI alert. Stage
// one: the first line mentioning RSI with a "<" comparator, number taken
// after the comparator. Stage two: any line mentioning RSI with a ":"
// separator, first number after the colon. Decimal commas are accepted.
func ExtractRSIValue(lines []string) decimal.NullDecimal {
	for _, line := range lines {
		upper := textnorm.Upper(line)
		if !strings.Contains(upper, "RSI") {
			continue
		}
		if idx := strings.Index(upper, "<"); idx >= 0 {
			if v := firstNumber(upper[idx+1:]); v != nil {
				return decimal.NullDecimal{Decimal: *v, Valid: true}
			}
		}
	}
	for _, line := range lines {
		upper := textnorm.Upper(line)
		if !strings.Contains(upper, "RSI") {
			continue
		}
		if idx := strings.Index(upper, ":"); idx >= 0 {
			if v := firstNumber(upper[idx+1:]); v != nil {
				return decimal.NullDecimal{Decimal: *v, Valid: true}
			}
		}
	}
	return decimal.NullDecimal{}
}

func firstNumber(s string) *decimal.Decimal {
	s = strings.ReplaceAll(s, ",", ".")
	match := numberPattern.FindString(s)
	if match == "" {
		return nil
	}
	v, err := decimal.NewFromString(match)
	if err != nil {
		// malformed numeric text is a miss, not an error
		return nil
	}
	return &v
}

// ExtractAlertTime returns the raw embedded time string of the first line
// carrying an "Hora:" label, verbatim apart from trimming.
func ExtractAlertTime(lines []string) *string {
	const label = "hora:"
	for _, line := range lines {
		idx := strings.Index(strings.ToLower(line), label)
		if idx < 0 {
			continue
		}
		value := strings.TrimSpace(line[idx+len(label):])
		if value != "" {
			return &value
		}
	}
	return nil
}
