package filter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"trade-signal-alerts/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := []Token{
		{Step: StepCategory, Pick: "R"},
		{Step: StepTimeframe, Category: "X", Pick: "15M"},
		{Step: StepDays, Category: "X", Timeframe: "15M", Pick: "7"},
		{Step: StepDays, Category: "A", Timeframe: "A", Back: true},
	}
	for _, token := range tokens {
		decoded, ok := DecodeToken(token.Encode())
		require.True(t, ok, "token %q", token.Encode())
		require.Equal(t, token, decoded)
	}
}

func TestTokenStaysUnderCallbackLimit(t *testing.T) {
	longest := Token{Step: StepDays, Category: "X", Timeframe: "15M", Pick: "30"}
	require.LessOrEqual(t, len(longest.Encode()), 64)
}

func TestDecodeTokenRejectsGarbage(t *testing.T) {
	for _, data := range []string{"", "x;s=c", "f;s=z;p=R", "f;bogus", "f;s=", "totally wrong"} {
		_, ok := DecodeToken(data)
		require.False(t, ok, "data %q", data)
	}
}

func pickButton(t *testing.T, menu Menu, label string) string {
	t.Helper()
	for _, row := range menu.Rows {
		for _, button := range row {
			if button.Label == label {
				return button.Data
			}
		}
	}
	t.Fatalf("menu %q has no button %q", menu.Text, label)
	return ""
}

func TestMenuWalkMatchesTypedCommand(t *testing.T) {
	// category, then timeframe, then days: same spec as the typed command
	step1 := Advance(pickButton(t, CategoryMenu(), "Cruzamento"))
	require.Equal(t, EffectRender, step1.Kind)

	step2 := Advance(pickButton(t, step1.Menu, "15M"))
	require.Equal(t, EffectRender, step2.Kind)

	step3 := Advance(pickButton(t, step2.Menu, "7d"))
	require.Equal(t, EffectGenerate, step3.Kind)

	_, typed := ParseCommand("relatorio cruzamento 15m 7d")
	require.Equal(t, typed, step3.Spec)

	// after generation the menu resets to the category step
	require.Equal(t, CategoryMenu().Text, step3.Menu.Text)
}

func TestMenuWalkWildcards(t *testing.T) {
	step1 := Advance(pickButton(t, CategoryMenu(), "Tudo"))
	require.Equal(t, EffectRender, step1.Kind)

	step2 := Advance(pickButton(t, step1.Menu, "Todos"))
	require.Equal(t, EffectRender, step2.Kind)

	step3 := Advance(pickButton(t, step2.Menu, "1d"))
	require.Equal(t, EffectGenerate, step3.Kind)

	require.Equal(t, model.AllCategories, step3.Spec.Category)
	require.Equal(t, model.AllTimeframes, step3.Spec.Timeframe)
}

func TestMenuBackPreservesCategory(t *testing.T) {
	step1 := Advance(pickButton(t, CategoryMenu(), "RSI"))
	step2 := Advance(pickButton(t, step1.Menu, "4H"))

	back := Advance(pickButton(t, step2.Menu, "« Voltar"))
	require.Equal(t, EffectRender, back.Kind)
	require.Equal(t, step1.Menu.Text, back.Menu.Text)

	// the re-rendered timeframe menu still carries the RSI choice
	again := Advance(pickButton(t, back.Menu, "4H"))
	require.Equal(t, EffectRender, again.Kind)
	done := Advance(pickButton(t, again.Menu, "3d"))
	require.Equal(t, EffectGenerate, done.Kind)
	require.Equal(t, string(model.CategoryRSI), done.Spec.Category)
}

func TestMenuBackToCategoryMenu(t *testing.T) {
	step1 := Advance(pickButton(t, CategoryMenu(), "Outros"))
	back := Advance(pickButton(t, step1.Menu, "« Voltar"))
	require.Equal(t, EffectRender, back.Kind)
	require.Equal(t, CategoryMenu().Text, back.Menu.Text)
}

func TestAdvanceIgnoresInvalidTokens(t *testing.T) {
	for _, data := range []string{"", "garbage", "f;s=c", "f;s=c;p=ZZ", "f;s=d;c=R;t=4H;p=abc", "f;s=d;b=1", "f;s=d;c=Z;b=1"} {
		effect := Advance(data)
		require.Equal(t, EffectIgnore, effect.Kind, "data %q", data)
	}
}
