// Package bot dispatches inbound transport events through the ingestion and
// reporting pipeline. One inbound event produces at most one outbound
// effect; nothing here blocks waiting for input.
package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"trade-signal-alerts/internal/filter"
	"trade-signal-alerts/internal/logging"
	"trade-signal-alerts/internal/model"
	"trade-signal-alerts/internal/parse"
	"trade-signal-alerts/internal/report"
	"trade-signal-alerts/internal/storage"
	"trade-signal-alerts/internal/telegram"
)

// Transport is the outbound surface the service needs from the messaging
// layer.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard telegram.InlineKeyboard) (int64, error)
	SendMessageWithRetry(ctx context.Context, chatID int64, text string, keyboard telegram.InlineKeyboard, maxRetries int) (int64, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard telegram.InlineKeyboard) error
	AnswerCallbackQuery(ctx context.Context, callbackID string)
	SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) error
}

// Options configure the service.
type Options struct {
	AuthorizedChatID int64
	OutputDir        string
	SendRetries      int
	SummaryWindow    time.Duration
}

// Service routes updates: alert texts are ingested, report commands and
// completed menu walks trigger exports, everything else is discarded.
type Service struct {
	transport Transport
	store     storage.AlertStore
	exporter  *report.Exporter
	opts      Options
	logger    zerolog.Logger
	now       func() time.Time
}

// New constructs the dispatch service.
func New(transport Transport, store storage.AlertStore, exporter *report.Exporter, opts Options, logger zerolog.Logger) *Service {
	return &Service{
		transport: transport,
		store:     store,
		exporter:  exporter,
		opts:      opts,
		logger:    logging.Component(logger, "bot"),
		now:       time.Now,
	}
}

// HandleUpdate processes one inbound event. A returned error means the
// event must not be acknowledged; the transport will redeliver it.
func (s *Service) HandleUpdate(ctx context.Context, update telegram.Update) error {
	switch {
	case update.Message != nil:
		return s.handleMessage(ctx, *update.Message)
	case update.Callback != nil:
		return s.handleCallback(ctx, *update.Callback)
	}
	return nil
}

func (s *Service) handleMessage(ctx context.Context, msg telegram.Message) error {
	if msg.Chat.ID != s.opts.AuthorizedChatID {
		s.logger.Debug().Int64("chat_id", msg.Chat.ID).Msg("message from unauthorized chat discarded")
		return nil
	}
	if strings.TrimSpace(msg.Text) == "" {
		return nil
	}

	command, spec := filter.ParseCommand(msg.Text)
	switch command {
	case filter.CommandMenu:
		menu := filter.CategoryMenu()
		_, err := s.transport.SendMessage(ctx, msg.Chat.ID, menu.Text, keyboardFor(menu))
		return err
	case filter.CommandReport:
		return s.generateReport(ctx, msg.Chat.ID, spec)
	}

	return s.ingest(ctx, msg.Text)
}

func (s *Service) ingest(ctx context.Context, text string) error {
	record, ok := parse.BuildRecord(text, s.now())
	if !ok {
		return nil
	}

	id, err := s.store.Append(ctx, record)
	if err != nil {
		return fmt.Errorf("persist alert: %w", err)
	}

	event := s.logger.Info().
		Int64("id", id).
		Str("category", string(record.Category))
	if record.Symbol != nil {
		event = event.Str("symbol", *record.Symbol)
	}
	if record.Timeframe != nil {
		event = event.Str("timeframe", *record.Timeframe)
	}
	event.Msg("alert ingested")
	return nil
}

func (s *Service) handleCallback(ctx context.Context, cb telegram.Callback) error {
	// callbacks are acknowledged unconditionally so the client UI settles;
	// the effect below decides whether anything else happens
	defer s.transport.AnswerCallbackQuery(ctx, cb.ID)

	if cb.Message == nil || cb.Message.Chat.ID != s.opts.AuthorizedChatID {
		return nil
	}
	chatID := cb.Message.Chat.ID

	effect := filter.Advance(cb.Data)
	switch effect.Kind {
	case filter.EffectRender:
		return s.transport.EditMessageText(ctx, chatID, cb.Message.MessageID, effect.Menu.Text, keyboardFor(effect.Menu))
	case filter.EffectGenerate:
		if err := s.generateReport(ctx, chatID, effect.Spec); err != nil {
			return err
		}
		// walk complete: reset the interactive message to the first step
		return s.transport.EditMessageText(ctx, chatID, cb.Message.MessageID, effect.Menu.Text, keyboardFor(effect.Menu))
	}
	return nil
}

func (s *Service) generateReport(ctx context.Context, chatID int64, spec model.FilterSpec) error {
	now := s.now()
	records, err := s.store.Query(ctx, spec, now)
	if err != nil {
		return fmt.Errorf("query alerts: %w", err)
	}

	if len(records) == 0 {
		_, err := s.transport.SendMessage(ctx, chatID,
			fmt.Sprintf("Nenhum alerta encontrado (%s).", spec.Describe()), nil)
		return err
	}

	path, err := s.exporter.ExportCSV(s.opts.OutputDir, spec, records, now)
	if err != nil {
		return fmt.Errorf("export report: %w", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read export: %w", err)
	}

	caption := fmt.Sprintf("Relatório: %d alertas (%s)", len(records), spec.Describe())
	if err := s.transport.SendDocument(ctx, chatID, filepath.Base(path), content, caption); err != nil {
		return fmt.Errorf("send report: %w", err)
	}

	s.logger.Info().Int("alerts", len(records)).Str("filter", spec.Describe()).Msg("report delivered")
	return nil
}

// SendDailySummary posts per-category alert counts over the summary window.
func (s *Service) SendDailySummary(ctx context.Context) error {
	window := s.opts.SummaryWindow
	if window <= 0 {
		window = 24 * time.Hour
	}

	counts, err := s.store.CountByCategorySince(ctx, s.now().Add(-window))
	if err != nil {
		return fmt.Errorf("count alerts for summary: %w", err)
	}

	var total int64
	var b strings.Builder
	b.WriteString("Resumo de alertas:\n")
	for _, category := range model.Categories {
		n := counts[category]
		total += n
		fmt.Fprintf(&b, "%s: %d\n", category, n)
	}
	fmt.Fprintf(&b, "Total: %d", total)

	_, err = s.transport.SendMessageWithRetry(ctx, s.opts.AuthorizedChatID, b.String(), nil, s.opts.SendRetries)
	return err
}

func keyboardFor(menu filter.Menu) telegram.InlineKeyboard {
	keyboard := make(telegram.InlineKeyboard, 0, len(menu.Rows))
	for _, row := range menu.Rows {
		buttons := make([]telegram.InlineButton, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, telegram.InlineButton{Text: button.Label, CallbackData: button.Data})
		}
		keyboard = append(keyboard, buttons)
	}
	return keyboard
}
