package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"trade-signal-alerts/internal/model"
	"trade-signal-alerts/internal/parse"
)

// Export renders stored alerts as CSV and/or a daily-count PNG chart
// without going through the transport.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	if opts.Days <= 0 {
		return errors.New("--days must be greater than zero")
	}

	spec := model.DefaultFilter()
	spec.Since = time.Duration(opts.Days) * 24 * time.Hour

	if opts.Category != "" {
		category := model.Category(strings.ToUpper(opts.Category))
		if !category.Valid() {
			return fmt.Errorf("unknown category %q", opts.Category)
		}
		spec.Category = string(category)
	}
	if opts.Timeframe != "" {
		tf := parse.NormalizeTimeframe(opts.Timeframe)
		if tf == nil {
			return fmt.Errorf("invalid timeframe %q", opts.Timeframe)
		}
		spec.Timeframe = *tf
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := store.Query(ctx, spec, time.Now().UTC())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.Logger.Info().Msg("no alerts found for export window")
		return nil
	}

	exporter := a.newExporter()

	if opts.CSVPath != "" {
		file, err := os.Create(opts.CSVPath)
		if err != nil {
			return err
		}
		if err := exporter.WriteCSV(file, records); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := exporter.WriteCountsPNG(opts.PNGPath, records); err != nil {
			return err
		}
	}

	a.Logger.Info().Int("alerts", len(records)).Str("filter", spec.Describe()).Msg("export complete")
	return nil
}
