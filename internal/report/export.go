// Package report renders a filtered alert set into files suitable for
// sending back over the transport.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"trade-signal-alerts/internal/model"
)

// Header is the fixed first row of every export.
var Header = []string{"DATA", "HORA", "MOEDA", "TIMEFRAME", "RSI"}

// trailing timezone labels on embedded alert times ("14:03:22 BRT",
// "14:03 (UTC-3)") are display noise and get stripped
var trailingTZPattern = regexp.MustCompile(`\s+(?:\([^)]*\)|[A-Za-z]{2,5}|UTC[+-]?\d{1,2})$`)

// Exporter renders record sets with a fixed display timezone.
type Exporter struct {
	location *time.Location
}

// NewExporter resolves the display timezone by name. When the zoneinfo
// database cannot resolve it, exports fall back to fixed UTC-3, the
// timezone the upstream alerts are written in.
func NewExporter(timezone string) *Exporter {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.FixedZone("UTC-3", -3*60*60)
	}
	return &Exporter{location: loc}
}

// WriteCSV renders records most-recent-first into w. Absent optional fields
// become empty cells, never a placeholder.
func (e *Exporter) WriteCSV(w io.Writer, records []model.AlertRecord) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(Header); err != nil {
		return err
	}

	for _, record := range records {
		if err := writer.Write(e.row(record)); err != nil {
			return err
		}
	}

	return writer.Error()
}

// ExportCSV writes the export to dir under a collision-safe name and
// returns the full path.
func (e *Exporter) ExportCSV(dir string, filter model.FilterSpec, records []model.AlertRecord, now time.Time) (string, error) {
	path := filepath.Join(dir, Filename(filter, now))
	if err := ensureDir(path); err != nil {
		return "", err
	}

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := e.WriteCSV(file, records); err != nil {
		return "", fmt.Errorf("write export csv: %w", err)
	}
	return path, nil
}

func (e *Exporter) row(record model.AlertRecord) []string {
	local := record.ReceivedAt.In(e.location)

	hora := local.Format("15:04:05")
	if record.AlertTimeText != nil {
		// the embedded time from the alert body is preferred for display
		hora = StripTrailingTZ(*record.AlertTimeText)
	}

	symbol := ""
	if record.Symbol != nil {
		symbol = *record.Symbol
	}
	timeframe := ""
	if record.Timeframe != nil {
		timeframe = *record.Timeframe
	}
	rsi := ""
	if record.RSIValue.Valid {
		rsi = record.RSIValue.Decimal.String()
	}

	return []string{local.Format("2006-01-02"), hora, symbol, timeframe, rsi}
}

// StripTrailingTZ drops a trailing timezone label from a raw embedded time
// string, leaving the rest verbatim.
func StripTrailingTZ(s string) string {
	return strings.TrimSpace(trailingTZPattern.ReplaceAllString(strings.TrimSpace(s), ""))
}

// Filename encodes the query parameters plus a generation stamp and a short
// random suffix, so concurrent exports never collide.
func Filename(filter model.FilterSpec, now time.Time) string {
	category := strings.ToLower(filter.Category)
	if filter.Category == model.AllCategories {
		category = "tudo"
	}
	timeframe := strings.ToLower(filter.Timeframe)
	if filter.Timeframe == model.AllTimeframes {
		timeframe = "todos"
	}
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("relatorio_%s_%s_%dd_%s_%s.csv",
		category, timeframe, filter.Days(), now.Format("20060102-150405"), suffix)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
