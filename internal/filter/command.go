// Package filter builds FilterSpec values from the two request surfaces:
// the typed relatorio command and the interactive menu walk. Both surfaces
// must produce equivalent specs for equivalent intents.
package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"trade-signal-alerts/internal/model"
	"trade-signal-alerts/internal/parse"
	"trade-signal-alerts/internal/textnorm"
)

// Command is a recognized typed command.
type Command int

const (
	// CommandNone means the text is not a command and should be ingested
	// as an alert.
	CommandNone Command = iota
	// CommandReport requests an immediate filtered export.
	CommandReport
	// CommandMenu opens the interactive filter menu.
	CommandMenu
)

var dayCountPattern = regexp.MustCompile(`^(\d{1,3})d$`)

// categoryKeywords maps folded command tokens to a category or to the ALL
// wildcard. Synonyms are accent-insensitive because tokens are folded
// before lookup.
var categoryKeywords = map[string]string{
	"rsi":        string(model.CategoryRSI),
	"cruzamento": string(model.CategoryCrossover),
	"cruz":       string(model.CategoryCrossover),
	"crossover":  string(model.CategoryCrossover),
	"ma200":      string(model.CategoryCrossover),
	"tendencia":  string(model.CategoryTrend),
	"trend":      string(model.CategoryTrend),
	"longa":      string(model.CategoryTrend),
	"outros":     string(model.CategoryOther),
	"outro":      string(model.CategoryOther),
	"other":      string(model.CategoryOther),
	"tudo":       model.AllCategories,
	"todos":      model.AllCategories,
	"todas":      model.AllCategories,
	"all":        model.AllCategories,
}

// ParseCommand recognizes the report verb and assembles a FilterSpec from
// the free-form tokens that follow it. Token order is irrelevant and
// unrecognized tokens are silently ignored; the grammar stays forgiving
// because the command is typed by hand on a phone.
func ParseCommand(text string) (Command, model.FilterSpec) {
	fields := strings.Fields(textnorm.Fold(text))
	if len(fields) == 0 {
		return CommandNone, model.FilterSpec{}
	}

	verb := strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(verb, "@"); at >= 0 {
		verb = verb[:at]
	}

	switch verb {
	case "menu":
		return CommandMenu, model.DefaultFilter()
	case "relatorio":
	default:
		return CommandNone, model.FilterSpec{}
	}

	tokens := fields[1:]
	if len(tokens) == 0 {
		// bare relatorio opens the menu walk instead of exporting everything
		return CommandMenu, model.DefaultFilter()
	}

	return CommandReport, specFromTokens(tokens)
}

func specFromTokens(tokens []string) model.FilterSpec {
	spec := model.DefaultFilter()

	for i, token := range tokens {
		if token == "hoje" {
			spec.Since = 24 * time.Hour
			continue
		}

		// a trailing Nd token is the day window; anywhere else the same
		// shape is tried as a 1D-style timeframe
		if m := dayCountPattern.FindStringSubmatch(token); m != nil && i == len(tokens)-1 {
			if days, err := strconv.Atoi(m[1]); err == nil && days > 0 {
				spec.Since = daysToDuration(days)
				continue
			}
		}

		if mapped, ok := categoryKeywords[token]; ok {
			spec.Category = mapped
			continue
		}

		if tf := parse.NormalizeTimeframe(token); tf != nil {
			spec.Timeframe = *tf
			continue
		}
		// unrecognized tokens are ignored
	}

	return spec
}

func daysToDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
