package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"trade-signal-alerts/internal/filter"
	"trade-signal-alerts/internal/model"
	"trade-signal-alerts/internal/report"
	"trade-signal-alerts/internal/telegram"
)

const authorizedChat = int64(1000)

type fakeTransport struct {
	sentTexts []string
	edits     []string
	documents []sentDocument
	answered  []string
	keyboards []telegram.InlineKeyboard
}

type sentDocument struct {
	filename string
	content  string
	caption  string
}

func (f *fakeTransport) SendMessage(_ context.Context, _ int64, text string, keyboard telegram.InlineKeyboard) (int64, error) {
	f.sentTexts = append(f.sentTexts, text)
	f.keyboards = append(f.keyboards, keyboard)
	return int64(len(f.sentTexts)), nil
}

func (f *fakeTransport) SendMessageWithRetry(ctx context.Context, chatID int64, text string, keyboard telegram.InlineKeyboard, _ int) (int64, error) {
	return f.SendMessage(ctx, chatID, text, keyboard)
}

func (f *fakeTransport) EditMessageText(_ context.Context, _, _ int64, text string, keyboard telegram.InlineKeyboard) error {
	f.edits = append(f.edits, text)
	f.keyboards = append(f.keyboards, keyboard)
	return nil
}

func (f *fakeTransport) AnswerCallbackQuery(_ context.Context, callbackID string) {
	f.answered = append(f.answered, callbackID)
}

func (f *fakeTransport) SendDocument(_ context.Context, _ int64, filename string, content []byte, caption string) error {
	f.documents = append(f.documents, sentDocument{filename: filename, content: string(content), caption: caption})
	return nil
}

type memStore struct {
	records []model.AlertRecord
	nextID  int64
}

func (m *memStore) Append(_ context.Context, record model.AlertRecord) (int64, error) {
	m.nextID++
	record.ID = m.nextID
	m.records = append(m.records, record)
	return record.ID, nil
}

func (m *memStore) Query(_ context.Context, spec model.FilterSpec, now time.Time) ([]model.AlertRecord, error) {
	cutoff := now.Add(-spec.Since)
	matched := make([]model.AlertRecord, 0)
	for i := len(m.records) - 1; i >= 0; i-- {
		record := m.records[i]
		if record.ReceivedAt.Before(cutoff) {
			continue
		}
		if spec.Category != model.AllCategories && string(record.Category) != spec.Category {
			continue
		}
		if spec.Timeframe != model.AllTimeframes {
			if record.Timeframe == nil || *record.Timeframe != spec.Timeframe {
				continue
			}
		}
		matched = append(matched, record)
	}
	return matched, nil
}

func (m *memStore) ListRecent(_ context.Context, limit int) ([]model.AlertRecord, error) {
	out := make([]model.AlertRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *memStore) CountByCategorySince(_ context.Context, since time.Time) (map[model.Category]int64, error) {
	counts := make(map[model.Category]int64)
	for _, record := range m.records {
		if !record.ReceivedAt.Before(since) {
			counts[record.Category]++
		}
	}
	return counts, nil
}

func newTestService(t *testing.T) (*Service, *fakeTransport, *memStore) {
	t.Helper()
	transport := &fakeTransport{}
	store := &memStore{}
	svc := New(transport, store, report.NewExporter("America/Sao_Paulo"), Options{
		AuthorizedChatID: authorizedChat,
		OutputDir:        t.TempDir(),
		SendRetries:      1,
		SummaryWindow:    24 * time.Hour,
	}, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2025, 8, 1, 15, 30, 45, 0, time.UTC) }
	return svc, transport, store
}

func messageUpdate(chatID int64, text string) telegram.Update {
	return telegram.Update{Message: &telegram.Message{MessageID: 1, Chat: telegram.Chat{ID: chatID}, Text: text}}
}

func callbackUpdate(chatID int64, data string) telegram.Update {
	return telegram.Update{Callback: &telegram.Callback{
		ID:      "cb1",
		Message: &telegram.Message{MessageID: 2, Chat: telegram.Chat{ID: chatID}},
		Data:    data,
	}}
}

func TestIngestStoresAlert(t *testing.T) {
	svc, transport, store := newTestService(t)

	err := svc.HandleUpdate(context.Background(), messageUpdate(authorizedChat, "RSI 4H < 38\nBTCUSDT\nHora: 14:03"))
	require.NoError(t, err)

	require.Len(t, store.records, 1)
	require.Equal(t, model.CategoryRSI, store.records[0].Category)
	// ingestion is silent: no outbound message for a stored alert
	require.Empty(t, transport.sentTexts)
	require.Empty(t, transport.documents)
}

func TestUnauthorizedChatDiscarded(t *testing.T) {
	svc, transport, store := newTestService(t)

	err := svc.HandleUpdate(context.Background(), messageUpdate(9999, "RSI 4H < 38"))
	require.NoError(t, err)
	require.Empty(t, store.records)
	require.Empty(t, transport.sentTexts)
}

func TestUnclassifiableMessageStillStored(t *testing.T) {
	svc, _, store := newTestService(t)

	err := svc.HandleUpdate(context.Background(), messageUpdate(authorizedChat, "mensagem qualquer"))
	require.NoError(t, err)
	require.Len(t, store.records, 1)
	require.Equal(t, model.CategoryOther, store.records[0].Category)
}

func TestReportCommandSendsDocument(t *testing.T) {
	svc, transport, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleUpdate(ctx, messageUpdate(authorizedChat, "RSI 4H < 38\nBTCUSDT")))
	require.NoError(t, svc.HandleUpdate(ctx, messageUpdate(authorizedChat, "relatorio rsi 7d")))

	require.Len(t, transport.documents, 1)
	doc := transport.documents[0]
	require.True(t, strings.HasPrefix(doc.filename, "relatorio_rsi_todos_7d_"))
	require.Contains(t, doc.content, "DATA,HORA,MOEDA,TIMEFRAME,RSI")
	require.Contains(t, doc.content, "BTCUSDT")
	require.Contains(t, doc.caption, "1 alertas")
}

func TestReportCommandNoMatches(t *testing.T) {
	svc, transport, _ := newTestService(t)

	require.NoError(t, svc.HandleUpdate(context.Background(), messageUpdate(authorizedChat, "relatorio cruzamento 2d")))
	require.Empty(t, transport.documents)
	require.Len(t, transport.sentTexts, 1)
	require.Contains(t, transport.sentTexts[0], "Nenhum alerta")
}

func TestBareReportCommandOpensMenu(t *testing.T) {
	svc, transport, _ := newTestService(t)

	require.NoError(t, svc.HandleUpdate(context.Background(), messageUpdate(authorizedChat, "relatório")))
	require.Len(t, transport.sentTexts, 1)
	require.Contains(t, transport.sentTexts[0], "categoria")
	require.NotNil(t, transport.keyboards[0])
}

func TestMenuWalkProducesSameReportAsTypedCommand(t *testing.T) {
	ctx := context.Background()

	ingest := func(svc *Service) {
		require.NoError(t, svc.HandleUpdate(ctx, messageUpdate(authorizedChat, "CRUZAMENTO MA200 (15M)\nBTCUSDT")))
		require.NoError(t, svc.HandleUpdate(ctx, messageUpdate(authorizedChat, "RSI 4H < 38\nETHUSDT")))
	}

	// typed command path
	typedSvc, typedTransport, _ := newTestService(t)
	ingest(typedSvc)
	require.NoError(t, typedSvc.HandleUpdate(ctx, messageUpdate(authorizedChat, "relatorio cruzamento 15m 7d")))
	require.Len(t, typedTransport.documents, 1)

	// menu walk path: category, timeframe, days
	menuSvc, menuTransport, _ := newTestService(t)
	ingest(menuSvc)
	walk := []string{
		filter.Token{Step: filter.StepCategory, Pick: "X"}.Encode(),
		filter.Token{Step: filter.StepTimeframe, Category: "X", Pick: "15M"}.Encode(),
		filter.Token{Step: filter.StepDays, Category: "X", Timeframe: "15M", Pick: "7"}.Encode(),
	}
	for _, data := range walk {
		require.NoError(t, menuSvc.HandleUpdate(ctx, callbackUpdate(authorizedChat, data)))
	}
	require.Len(t, menuTransport.documents, 1)

	// identical matched record sets
	typedRows := strings.Split(strings.TrimSpace(typedTransport.documents[0].content), "\n")
	menuRows := strings.Split(strings.TrimSpace(menuTransport.documents[0].content), "\n")
	require.Equal(t, typedRows, menuRows)
	require.Len(t, menuRows, 2)
	require.Contains(t, menuRows[1], "BTCUSDT")

	// every callback was acknowledged, and the menu reset after export
	require.Len(t, menuTransport.answered, len(walk))
	require.Contains(t, menuTransport.edits[len(menuTransport.edits)-1], "categoria")
}

func TestCallbackInvalidTokenIsNoOp(t *testing.T) {
	svc, transport, _ := newTestService(t)

	require.NoError(t, svc.HandleUpdate(context.Background(), callbackUpdate(authorizedChat, "garbage")))
	require.Empty(t, transport.edits)
	require.Empty(t, transport.documents)
	// still acknowledged so the client spinner clears
	require.Len(t, transport.answered, 1)
}

func TestCallbackUnauthorizedChat(t *testing.T) {
	svc, transport, _ := newTestService(t)

	data := filter.Token{Step: filter.StepCategory, Pick: "R"}.Encode()
	require.NoError(t, svc.HandleUpdate(context.Background(), callbackUpdate(4444, data)))
	require.Empty(t, transport.edits)
	require.Len(t, transport.answered, 1)
}

func TestDailySummaryCountsByCategory(t *testing.T) {
	svc, transport, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleUpdate(ctx, messageUpdate(authorizedChat, "RSI 4H < 38\nBTCUSDT")))
	require.NoError(t, svc.HandleUpdate(ctx, messageUpdate(authorizedChat, "RSI 1H < 25\nETHUSDT")))
	require.NoError(t, svc.HandleUpdate(ctx, messageUpdate(authorizedChat, "CRUZAMENTO MA200 (1D)\nSOLUSDT")))

	require.NoError(t, svc.SendDailySummary(ctx))
	require.Len(t, transport.sentTexts, 1)
	summary := transport.sentTexts[0]
	require.Contains(t, summary, "RSI: 2")
	require.Contains(t, summary, "CROSSOVER: 1")
	require.Contains(t, summary, "Total: 3")
}
