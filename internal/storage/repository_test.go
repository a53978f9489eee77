package storage

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"trade-signal-alerts/internal/model"
)

// stubRows drives the scan path without a live database.
type stubRows struct {
	rows [][]any
	idx  int
	err  error
}

func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return r.err }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }
func (r *stubRows) Values() ([]any, error)                       { return nil, nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }

func (r *stubRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan expects %d destinations, got %d", len(row), len(dest))
	}
	for i, value := range row {
		switch d := dest[i].(type) {
		case *int64:
			*d = value.(int64)
		case *time.Time:
			*d = value.(time.Time)
		case *string:
			*d = value.(string)
		case *sql.NullString:
			*d = value.(sql.NullString)
		default:
			return fmt.Errorf("unsupported scan destination %T", dest[i])
		}
	}
	return nil
}

var _ pgx.Rows = (*stubRows)(nil)

// appendedValue mirrors what Append binds for the rsi_value column.
func appendedValue(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}

func TestCollectAlertsRoundTrip(t *testing.T) {
	received := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	rsi := decimal.NullDecimal{Decimal: decimal.RequireFromString("38.5"), Valid: true}

	rows := &stubRows{rows: [][]any{
		{
			int64(7),
			received,
			sql.NullString{String: "BTCUSDT", Valid: true},
			sql.NullString{String: "4H", Valid: true},
			"RSI",
			appendedValue(rsi),
			sql.NullString{String: "14:03:22 BRT", Valid: true},
			"RSI 4H < 38,5\nBTCUSDT\nHora: 14:03:22 BRT",
		},
		{
			int64(8),
			received,
			sql.NullString{},
			sql.NullString{},
			"OTHER",
			sql.NullString{},
			sql.NullString{},
			"mensagem qualquer",
		},
	}}

	records, err := collectAlerts(rows)
	require.NoError(t, err)
	require.Len(t, records, 2)

	full := records[0]
	require.Equal(t, int64(7), full.ID)
	require.True(t, full.ReceivedAt.Equal(received))
	require.NotNil(t, full.Symbol)
	require.Equal(t, "BTCUSDT", *full.Symbol)
	require.NotNil(t, full.Timeframe)
	require.Equal(t, "4H", *full.Timeframe)
	require.Equal(t, model.CategoryRSI, full.Category)
	require.True(t, full.RSIValue.Valid)
	require.True(t, full.RSIValue.Decimal.Equal(rsi.Decimal))
	require.NotNil(t, full.AlertTimeText)
	require.Equal(t, "14:03:22 BRT", *full.AlertTimeText)
	require.Equal(t, "RSI 4H < 38,5\nBTCUSDT\nHora: 14:03:22 BRT", full.RawText)

	bare := records[1]
	require.Equal(t, int64(8), bare.ID)
	require.Equal(t, model.CategoryOther, bare.Category)
	require.Nil(t, bare.Symbol)
	require.Nil(t, bare.Timeframe)
	require.Nil(t, bare.AlertTimeText)
	require.False(t, bare.RSIValue.Valid)
}

func TestCollectAlertsMalformedDecimal(t *testing.T) {
	rows := &stubRows{rows: [][]any{
		{
			int64(1),
			time.Now(),
			sql.NullString{},
			sql.NullString{},
			"RSI",
			sql.NullString{String: "not-a-number", Valid: true},
			sql.NullString{},
			"RSI < ?",
		},
	}}

	_, err := collectAlerts(rows)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse rsi value")
}

func TestCollectAlertsPropagatesRowsErr(t *testing.T) {
	rows := &stubRows{err: fmt.Errorf("connection reset")}
	_, err := collectAlerts(rows)
	require.Error(t, err)
}
