package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"trade-signal-alerts/internal/model"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	insertAlertSQL = `INSERT INTO alerts (
        received_at,
        symbol,
        timeframe,
        category,
        rsi_value,
        alert_time_text,
        raw_text
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    RETURNING id;`

	countByCategorySinceSQL = `SELECT category, COUNT(*)
    FROM alerts
    WHERE received_at >= $1
    GROUP BY category;`
)

var alertColumns = []string{
	"id",
	"received_at",
	"symbol",
	"timeframe",
	"category",
	"rsi_value",
	"alert_time_text",
	"raw_text",
}

// AlertStore defines the persistence operations the pipeline relies on.
type AlertStore interface {
	Append(ctx context.Context, record model.AlertRecord) (int64, error)
	Query(ctx context.Context, filter model.FilterSpec, now time.Time) ([]model.AlertRecord, error)
	ListRecent(ctx context.Context, limit int) ([]model.AlertRecord, error)
	CountByCategorySince(ctx context.Context, since time.Time) (map[model.Category]int64, error)
}

// Store persists alert records in an append-only PostgreSQL table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// Append inserts one alert record and returns its assigned id. Records are
// never updated or deleted afterwards.
func (s *Store) Append(ctx context.Context, record model.AlertRecord) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	var rsi interface{}
	if record.RSIValue.Valid {
		rsi = record.RSIValue.Decimal.String()
	}

	var id int64
	scanErr := pool.QueryRow(ctx, insertAlertSQL,
		record.ReceivedAt,
		record.Symbol,
		record.Timeframe,
		string(record.Category),
		rsi,
		record.AlertTimeText,
		record.RawText,
	).Scan(&id)
	if scanErr != nil {
		return 0, fmt.Errorf("append alert: %w", scanErr)
	}
	return id, nil
}

// BuildQuery assembles the conjunctive filter query. Exposed for tests; the
// WHERE clause grows one predicate per restricted dimension, and ordering is
// insertion-descending with the id as a stable tie-break.
func BuildQuery(filter model.FilterSpec, now time.Time) (string, []interface{}, error) {
	builder := sq.Select(alertColumns...).
		From("alerts").
		Where(sq.GtOrEq{"received_at": now.Add(-filter.Since)}).
		OrderBy("received_at DESC", "id DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.Category != model.AllCategories {
		builder = builder.Where(sq.Eq{"category": filter.Category})
	}
	if filter.Timeframe != model.AllTimeframes {
		builder = builder.Where(sq.Eq{"timeframe": filter.Timeframe})
	}

	return builder.ToSql()
}

// Query returns the records matching filter, most recent first.
func (s *Store) Query(ctx context.Context, filter model.FilterSpec, now time.Time) ([]model.AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	query, args, err := BuildQuery(filter, now)
	if err != nil {
		return nil, fmt.Errorf("build alert query: %w", err)
	}

	rows, queryErr := pool.Query(ctx, query, args...)
	if queryErr != nil {
		return nil, fmt.Errorf("query alerts: %w", queryErr)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// ListRecent returns the newest alerts regardless of filter, for the CLI
// show command.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]model.AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	query, args, err := sq.Select(alertColumns...).
		From("alerts").
		OrderBy("received_at DESC", "id DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent query: %w", err)
	}

	rows, queryErr := pool.Query(ctx, query, args...)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// CountByCategorySince aggregates stored alerts per category for the daily
// summary.
func (s *Store) CountByCategorySince(ctx context.Context, since time.Time) (map[model.Category]int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, countByCategorySinceSQL, since)
	if queryErr != nil {
		return nil, fmt.Errorf("count alerts: %w", queryErr)
	}
	defer rows.Close()

	counts := make(map[model.Category]int64)
	for rows.Next() {
		var category string
		var count int64
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		counts[model.Category(category)] = count
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return counts, nil
}

func collectAlerts(rows pgx.Rows) ([]model.AlertRecord, error) {
	records := make([]model.AlertRecord, 0)
	for rows.Next() {
		record, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

func scanAlert(rows pgx.Rows) (model.AlertRecord, error) {
	var (
		id            int64
		receivedAt    time.Time
		symbol        sql.NullString
		timeframe     sql.NullString
		category      string
		rsiValue      sql.NullString
		alertTimeText sql.NullString
		rawText       string
	)

	if err := rows.Scan(
		&id,
		&receivedAt,
		&symbol,
		&timeframe,
		&category,
		&rsiValue,
		&alertTimeText,
		&rawText,
	); err != nil {
		return model.AlertRecord{}, err
	}

	record := model.AlertRecord{
		ID:         id,
		ReceivedAt: receivedAt,
		Category:   model.Category(category),
		RawText:    rawText,
	}

	if symbol.Valid {
		value := symbol.String
		record.Symbol = &value
	}
	if timeframe.Valid {
		value := timeframe.String
		record.Timeframe = &value
	}
	if alertTimeText.Valid {
		value := alertTimeText.String
		record.AlertTimeText = &value
	}
	if rsiValue.Valid {
		parsed, err := parseStoredDecimal(rsiValue.String)
		if err != nil {
			return model.AlertRecord{}, fmt.Errorf("parse rsi value: %w", err)
		}
		record.RSIValue = parsed
	}

	return record, nil
}

func parseStoredDecimal(s string) (decimal.NullDecimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

var _ AlertStore = (*Store)(nil)
