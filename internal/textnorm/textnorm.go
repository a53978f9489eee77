// Package textnorm provides the text normalization every matching stage of
// the pipeline relies on. Inbound alert text arrives with inconsistent
// casing, stray whitespace, and Portuguese diacritics; normalization makes
// keyword and command matching accent- and case-insensitive.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Deaccent removes combining diacritical marks: "tendência" -> "tendencia".
// Input that fails to transform is returned unchanged.
func Deaccent(s string) string {
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		return s
	}
	return out
}

// Fold returns the canonical matching form: accent-stripped, lower-cased,
// and trimmed. Folding an already-folded string is a fixed point.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(Deaccent(s)))
}

// Upper returns the accent-stripped upper-cased trimmed form used by
// classification and field extraction.
func Upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(Deaccent(s)))
}

// Lines splits text into its non-empty trimmed lines.
func Lines(s string) []string {
	raw := strings.Split(s, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}
