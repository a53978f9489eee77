package filter

import (
	"fmt"

	"trade-signal-alerts/internal/model"
)

// Button is one inline choice the transport should render.
type Button struct {
	Label string
	Data  string
}

// Menu is one rendered step of the walk: a prompt plus rows of buttons.
type Menu struct {
	Text string
	Rows [][]Button
}

// EffectKind discriminates the single outbound effect of one menu event.
type EffectKind int

const (
	// EffectIgnore acknowledges the event without changing anything;
	// invalid or foreign tokens land here.
	EffectIgnore EffectKind = iota
	// EffectRender replaces the interactive message with the next menu.
	EffectRender
	// EffectGenerate runs the export for Spec, then re-renders Menu as the
	// fresh first step.
	EffectGenerate
)

// Effect is the outcome of advancing the menu by one inbound event.
type Effect struct {
	Kind EffectKind
	Menu Menu
	Spec model.FilterSpec
}

var (
	menuTimeframes = []string{"15M", "1H", "4H", "1D"}
	menuDays       = []int{1, 3, 7, 14, 30}
)

// CategoryMenu renders the first step of the walk. It is also the state the
// menu resets to after an export.
func CategoryMenu() Menu {
	row := make([]Button, 0, len(model.Categories)+1)
	labels := map[model.Category]string{
		model.CategoryRSI:       "RSI",
		model.CategoryCrossover: "Cruzamento",
		model.CategoryTrend:     "Tendência",
		model.CategoryOther:     "Outros",
	}
	for _, category := range model.Categories {
		row = append(row, Button{
			Label: labels[category],
			Data:  Token{Step: StepCategory, Pick: categoryToCode[string(category)]}.Encode(),
		})
	}
	all := Button{
		Label: "Tudo",
		Data:  Token{Step: StepCategory, Pick: categoryToCode[model.AllCategories]}.Encode(),
	}
	return Menu{
		Text: "Relatório de alertas: escolha a categoria",
		Rows: [][]Button{row[:2], row[2:], {all}},
	}
}

func timeframeMenu(categoryCode string) Menu {
	row := make([]Button, 0, len(menuTimeframes))
	for _, tf := range menuTimeframes {
		row = append(row, Button{
			Label: tf,
			Data:  Token{Step: StepTimeframe, Category: categoryCode, Pick: tf}.Encode(),
		})
	}
	all := Button{
		Label: "Todos",
		Data:  Token{Step: StepTimeframe, Category: categoryCode, Pick: "A"}.Encode(),
	}
	back := Button{
		Label: "« Voltar",
		Data:  Token{Step: StepTimeframe, Category: categoryCode, Back: true}.Encode(),
	}
	return Menu{
		Text: "Agora o timeframe:",
		Rows: [][]Button{row, {all}, {back}},
	}
}

func daysMenu(categoryCode, timeframe string) Menu {
	row := make([]Button, 0, len(menuDays))
	for _, d := range menuDays {
		row = append(row, Button{
			Label: fmt.Sprintf("%dd", d),
			Data: Token{
				Step:      StepDays,
				Category:  categoryCode,
				Timeframe: timeframe,
				Pick:      fmt.Sprintf("%d", d),
			}.Encode(),
		})
	}
	back := Button{
		Label: "« Voltar",
		Data: Token{
			Step:      StepDays,
			Category:  categoryCode,
			Timeframe: timeframe,
			Back:      true,
		}.Encode(),
	}
	return Menu{
		Text: "Por fim, o período:",
		Rows: [][]Button{row, {back}},
	}
}

// Advance reacts to one inbound callback payload and returns exactly one
// effect. The machine holds no state of its own: every transition is derived
// from the partial spec embedded in the token, so a Back from the days step
// re-renders the timeframe menu with the category choice intact.
func Advance(data string) Effect {
	token, ok := DecodeToken(data)
	if !ok {
		return Effect{Kind: EffectIgnore}
	}

	switch token.Step {
	case StepCategory:
		if token.Back || token.Pick == "" {
			return Effect{Kind: EffectIgnore}
		}
		if _, known := codeToCategory[token.Pick]; !known {
			return Effect{Kind: EffectIgnore}
		}
		return Effect{Kind: EffectRender, Menu: timeframeMenu(token.Pick)}

	case StepTimeframe:
		if token.Back {
			return Effect{Kind: EffectRender, Menu: CategoryMenu()}
		}
		if token.Category == "" || token.Pick == "" {
			return Effect{Kind: EffectIgnore}
		}
		return Effect{Kind: EffectRender, Menu: daysMenu(token.Category, token.Pick)}

	case StepDays:
		if token.Back {
			if _, known := codeToCategory[token.Category]; !known {
				return Effect{Kind: EffectIgnore}
			}
			return Effect{Kind: EffectRender, Menu: timeframeMenu(token.Category)}
		}
		spec, err := token.spec()
		if err != nil {
			return Effect{Kind: EffectIgnore}
		}
		return Effect{Kind: EffectGenerate, Spec: spec, Menu: CategoryMenu()}
	}

	return Effect{Kind: EffectIgnore}
}
