package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// Show prints the most recent alerts.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := store.ListRecent(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts stored")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tReceived (UTC)\tCategory\tSymbol\tTimeframe\tRSI\tFirst line")

	for _, record := range records {
		symbol := "-"
		if record.Symbol != nil {
			symbol = *record.Symbol
		}
		timeframe := "-"
		if record.Timeframe != nil {
			timeframe = *record.Timeframe
		}
		rsi := "-"
		if record.RSIValue.Valid {
			rsi = record.RSIValue.Decimal.String()
		}
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			record.ID,
			record.ReceivedAt.UTC().Format(time.RFC3339),
			record.Category,
			symbol,
			timeframe,
			rsi,
			firstLine(record.RawText),
		)
	}

	return writer.Flush()
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	line = strings.TrimSpace(line)
	if len(line) > 48 {
		return line[:48] + "…"
	}
	return line
}
