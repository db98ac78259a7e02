package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/screener/internal/storage"
)

// PostgreSQL error codes
const (
	pgErrUndefinedTable  = "42P01" // undefined_table
	pgErrUniqueViolation = "23505" // unique_violation
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS "ScreenerSignal" (
	id            SERIAL PRIMARY KEY,
	symbol        VARCHAR(20)   NOT NULL,
	strategy_key  VARCHAR(100)  NOT NULL,
	strategy_name VARCHAR(200),
	price         DECIMAL(10,2),
	indicators    JSONB,
	scanned_at    TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
	scan_date     DATE          NOT NULL DEFAULT (NOW() AT TIME ZONE 'UTC')::date,
	processed     BOOLEAN       NOT NULL DEFAULT FALSE
);
CREATE UNIQUE INDEX IF NOT EXISTS "ScreenerSignal_symbol_strategy_day_key"
	ON "ScreenerSignal" (symbol, strategy_key, scan_date);
CREATE INDEX IF NOT EXISTS "ScreenerSignal_scanned_at_idx"
	ON "ScreenerSignal" (scanned_at);
`

const insertSQL = `
	INSERT INTO "ScreenerSignal" (
		symbol, strategy_key, strategy_name, price, indicators, scanned_at, scan_date, processed
	) VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
`

// 같은 날 같은 종목/전략이면 최신 값으로 갱신
const onConflictOverwrite = `
	ON CONFLICT (symbol, strategy_key, scan_date) DO UPDATE SET
		strategy_name = EXCLUDED.strategy_name,
		price         = EXCLUDED.price,
		indicators    = EXCLUDED.indicators,
		scanned_at    = EXCLUDED.scanned_at
`

const onConflictSkip = `
	ON CONFLICT (symbol, strategy_key, scan_date) DO NOTHING
`

// SignalStore implements storage.Backend on PostgreSQL
type SignalStore struct {
	pool *pgxpool.Pool
}

// NewSignalStore creates a new SignalStore
func NewSignalStore(pool *pgxpool.Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.Backend = (*SignalStore)(nil)

// EnsureSchema creates the signal table and its indexes
func (s *SignalStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create signal table: %w", err)
	}
	return nil
}

// DeleteBefore removes signals scanned before cutoff
func (s *SignalStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM "ScreenerSignal" WHERE scanned_at < $1`, cutoff)
	if err != nil {
		return 0, wrapErr("delete signals", err)
	}
	return tag.RowsAffected(), nil
}

// Insert writes one record in its own statement.
// With the skip policy a conflicting record affects no rows and reports written=false.
func (s *SignalStore) Insert(ctx context.Context, rec storage.Record, policy storage.Policy) (bool, error) {
	indicators, err := json.Marshal(rec.Signal.Indicators)
	if err != nil {
		return false, fmt.Errorf("%w: encode indicators: %v", storage.ErrInvalidInput, err)
	}

	query := insertSQL
	switch policy {
	case storage.PolicySkip:
		query += onConflictSkip
	default:
		query += onConflictOverwrite
	}

	tag, err := s.pool.Exec(ctx, query,
		rec.Signal.Symbol,
		rec.Signal.StrategyKey,
		rec.Signal.StrategyName,
		rec.Signal.Price,
		indicators,
		rec.ScannedAt,
		rec.ScanDate,
	)
	if err != nil {
		return false, wrapErr("insert signal", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListSince returns signals scanned at or after since, grouped by strategy
func (s *SignalStore) ListSince(ctx context.Context, since time.Time, strategyKey string) ([]storage.Record, error) {
	query := `
		SELECT id, symbol, strategy_key, COALESCE(strategy_name, ''), COALESCE(price, 0)::float8,
		       indicators, scanned_at, scan_date, processed
		FROM "ScreenerSignal"
		WHERE scanned_at >= $1 AND ($2::text = '' OR strategy_key = $2::text)
		ORDER BY strategy_key, symbol
	`

	rows, err := s.pool.Query(ctx, query, since, strategyKey)
	if err != nil {
		return nil, wrapErr("query signals", err)
	}
	defer rows.Close()

	var out []storage.Record
	for rows.Next() {
		var (
			rec        storage.Record
			indicators []byte
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Signal.Symbol,
			&rec.Signal.StrategyKey,
			&rec.Signal.StrategyName,
			&rec.Signal.Price,
			&indicators,
			&rec.ScannedAt,
			&rec.ScanDate,
			&rec.Processed,
		); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}

		if len(indicators) > 0 {
			if err := json.Unmarshal(indicators, &rec.Signal.Indicators); err != nil {
				return nil, fmt.Errorf("decode indicators for %s: %w", rec.Signal.Symbol, err)
			}
		}
		rec.Signal.ScannedAt = rec.ScannedAt
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signals: %w", err)
	}

	return out, nil
}

// Count returns the number of stored signals
func (s *SignalStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM "ScreenerSignal"`).Scan(&n); err != nil {
		return 0, wrapErr("count signals", err)
	}
	return n, nil
}

func wrapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUndefinedTable:
			return fmt.Errorf("%s: %w", op, storage.ErrSchemaMissing)
		case pgErrUniqueViolation:
			// only reachable if the unique index and ON CONFLICT target disagree
			return fmt.Errorf("%s: %w: duplicate signal", op, storage.ErrInvalidInput)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
