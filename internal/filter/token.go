package filter

import (
	"fmt"
	"strconv"
	"strings"

	"trade-signal-alerts/internal/model"
)

// Step identifies which choice a menu interaction belongs to.
type Step string

const (
	StepCategory  Step = "c"
	StepTimeframe Step = "t"
	StepDays      Step = "d"
)

// Token is one decoded menu interaction. The partially built FilterSpec is
// embedded in every token, so the menu survives a stateless round trip with
// the transport: no server-side session is kept anywhere.
//
// Wire form is a compact key=value list ("f;s=t;c=R;p=4H") because Telegram
// caps callback data at 64 bytes.
type Token struct {
	Step      Step
	Category  string // accumulated choice, short code
	Timeframe string
	Pick      string // the value chosen by this interaction
	Back      bool
}

const tokenPrefix = "f"

// category short codes keep tokens well under the transport limit.
var categoryToCode = map[string]string{
	string(model.CategoryRSI):       "R",
	string(model.CategoryCrossover): "X",
	string(model.CategoryTrend):     "T",
	string(model.CategoryOther):     "O",
	model.AllCategories:             "A",
}

var codeToCategory = invert(categoryToCode)

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// Encode renders the token wire form.
func (t Token) Encode() string {
	parts := []string{tokenPrefix, "s=" + string(t.Step)}
	if t.Category != "" {
		parts = append(parts, "c="+t.Category)
	}
	if t.Timeframe != "" {
		parts = append(parts, "t="+t.Timeframe)
	}
	if t.Pick != "" {
		parts = append(parts, "p="+t.Pick)
	}
	if t.Back {
		parts = append(parts, "b=1")
	}
	return strings.Join(parts, ";")
}

// DecodeToken parses a callback payload. Anything that does not decode to a
// well-formed token is reported as not-ours; callers treat that as a no-op
// acknowledgment rather than an error.
func DecodeToken(data string) (Token, bool) {
	parts := strings.Split(data, ";")
	if len(parts) == 0 || parts[0] != tokenPrefix {
		return Token{}, false
	}

	var token Token
	for _, part := range parts[1:] {
		key, value, found := strings.Cut(part, "=")
		if !found || value == "" {
			return Token{}, false
		}
		switch key {
		case "s":
			token.Step = Step(value)
		case "c":
			token.Category = value
		case "t":
			token.Timeframe = value
		case "p":
			token.Pick = value
		case "b":
			token.Back = value == "1"
		default:
			return Token{}, false
		}
	}

	switch token.Step {
	case StepCategory, StepTimeframe, StepDays:
	default:
		return Token{}, false
	}
	return token, true
}

// spec materializes the FilterSpec accumulated by a terminal days pick.
func (t Token) spec() (model.FilterSpec, error) {
	spec := model.DefaultFilter()

	category, ok := codeToCategory[t.Category]
	if !ok {
		return spec, fmt.Errorf("unknown category code %q", t.Category)
	}
	spec.Category = category

	if t.Timeframe == "A" {
		spec.Timeframe = model.AllTimeframes
	} else {
		spec.Timeframe = t.Timeframe
	}

	days, err := strconv.Atoi(t.Pick)
	if err != nil || days <= 0 {
		return spec, fmt.Errorf("invalid day count %q", t.Pick)
	}
	spec.Since = daysToDuration(days)

	return spec, nil
}
