package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"trade-signal-alerts/internal/bot"
	"trade-signal-alerts/internal/config"
	"trade-signal-alerts/internal/logging"
	"trade-signal-alerts/internal/report"
	"trade-signal-alerts/internal/storage"
	"trade-signal-alerts/internal/telegram"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logging.Component(logger, "app")}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	if err := storage.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	return store, store.Close, nil
}

func (a *App) newTransport() *telegram.Client {
	return telegram.NewClient(a.Config.Telegram.BotToken, a.Config.Telegram.APIBase, 10*time.Second, a.Logger)
}

func (a *App) newExporter() *report.Exporter {
	return report.NewExporter(a.Config.Report.Timezone)
}

// Run starts the long-running ingestion and reporting service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if a.Config.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token is required to run the service")
	}
	if a.Config.Telegram.ChatID == 0 {
		return errors.New("telegram.chat_id is required to run the service")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	transport := a.newTransport()
	svc := bot.New(transport, store, a.newExporter(), bot.Options{
		AuthorizedChatID: a.Config.Telegram.ChatID,
		OutputDir:        a.Config.Report.OutputDir,
		SendRetries:      a.Config.Telegram.SendRetries,
		SummaryWindow:    a.Config.Summary.Window,
	}, a.Logger)

	var scheduler *cron.Cron
	if a.Config.Summary.Enabled {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(a.Config.Summary.Schedule, func() {
			if err := svc.SendDailySummary(ctx); err != nil {
				a.Logger.Error().Err(err).Msg("daily summary failed")
			}
		})
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
		a.Logger.Info().Str("schedule", a.Config.Summary.Schedule).Msg("daily summary scheduled")
	}

	a.Logger.Info().Msg("starting update polling")
	err = transport.Poll(ctx, a.Config.Telegram.PollTimeout, svc.HandleUpdate)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("service stopped")
	return nil
}

// Migrate applies the database schema and exits.
func (a *App) Migrate(ctx context.Context) error {
	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		return err
	}
	a.Logger.Info().Msg("schema up to date")
	return nil
}

// ExportOptions hold parameters for the offline export command.
type ExportOptions struct {
	Days      int
	Category  string
	Timeframe string
	CSVPath   string
	PNGPath   string
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
