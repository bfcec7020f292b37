package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	createSamplesTableSQL = `CREATE TABLE IF NOT EXISTS ratio_samples (
        id          BIGSERIAL PRIMARY KEY,
        pair_name   TEXT        NOT NULL,
        mode        TEXT        NOT NULL,
        symbol_a    TEXT        NOT NULL,
        symbol_b    TEXT        NOT NULL,
        price_a     NUMERIC     NOT NULL,
        price_b     NUMERIC     NOT NULL,
        ratio       NUMERIC     NOT NULL,
        volume      NUMERIC,
        slippage_a  NUMERIC,
        slippage_b  NUMERIC,
        ts          TIMESTAMPTZ NOT NULL,
        created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
    );
    CREATE INDEX IF NOT EXISTS idx_ratio_samples_pair_ts
        ON ratio_samples (pair_name, ts DESC);`

	createAlertsTableSQL = `CREATE TABLE IF NOT EXISTS ratio_alerts (
        id            BIGSERIAL PRIMARY KEY,
        pair_name     TEXT        NOT NULL,
        ratio         NUMERIC     NOT NULL,
        change_pct    NUMERIC     NOT NULL,
        threshold_pct NUMERIC     NOT NULL,
        direction     TEXT        NOT NULL,
        window_secs   BIGINT      NOT NULL,
        ts            TIMESTAMPTZ NOT NULL,
        created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
    );
    CREATE INDEX IF NOT EXISTS idx_ratio_alerts_pair_ts
        ON ratio_alerts (pair_name, ts DESC);`

	insertSampleSQL = `INSERT INTO ratio_samples (
        pair_name, mode, symbol_a, symbol_b, price_a, price_b, ratio,
        volume, slippage_a, slippage_b, ts
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    RETURNING id;`

	sampleColumns = `id, pair_name, mode, symbol_a, symbol_b, price_a,
        price_b, ratio, volume, slippage_a, slippage_b, ts, created_at`

	listHistorySQL = `SELECT ` + sampleColumns + `
    FROM ratio_samples
    WHERE pair_name = $1
    ORDER BY ts DESC
    LIMIT $2;`

	listSamplesBetweenSQL = `SELECT ` + sampleColumns + `
    FROM ratio_samples
    WHERE pair_name = $1
      AND ts >= $2
      AND ts < $3
    ORDER BY ts;`

	countSamplesSQL = `SELECT COUNT(*) FROM ratio_samples;`

	deleteSamplesBeforeSQL = `DELETE FROM ratio_samples WHERE ts < $1;`

	insertAlertSQL = `INSERT INTO ratio_alerts (
        pair_name, ratio, change_pct, threshold_pct, direction, window_secs, ts
    ) VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id;`

	alertColumns = `id, pair_name, ratio, change_pct, threshold_pct,
        direction, window_secs, ts, created_at`

	listAlertsSQL = `SELECT ` + alertColumns + `
    FROM ratio_alerts
    WHERE ($1 = '' OR pair_name = $1)
    ORDER BY ts DESC
    LIMIT $2;`

	deleteAlertsBeforeSQL = `DELETE FROM ratio_alerts WHERE ts < $1;`
)

// SampleStore defines operations for ratio sample persistence.
type SampleStore interface {
	InsertSample(ctx context.Context, sample SampleRecord) error
	ListHistory(ctx context.Context, pair string, limit int) ([]SampleRecord, error)
	ListSamplesBetween(ctx context.Context, pair string, from, to time.Time) ([]SampleRecord, error)
	CountSamples(ctx context.Context) (int64, error)
	DeleteSamplesBefore(ctx context.Context, olderThan time.Time) (int64, error)
}

// AlertStore defines operations for alert auditing.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) error
	ListAlerts(ctx context.Context, pair string, limit int) ([]AlertRecord, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) (int64, error)
}

// Store aggregates access to ratio samples and alerts.
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

// EnsureSchema creates the tables and indexes when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, createSamplesTableSQL); err != nil {
		return fmt.Errorf("create ratio_samples table: %w", err)
	}
	if _, err := pool.Exec(ctx, createAlertsTableSQL); err != nil {
		return fmt.Errorf("create ratio_alerts table: %w", err)
	}
	return nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertSample persists one ratio observation.
func (s *Store) InsertSample(ctx context.Context, sample SampleRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var volume, slipA, slipB interface{}
	if sample.Volume != nil {
		volume = sample.Volume.String()
	}
	if sample.SlippageA != nil {
		slipA = sample.SlippageA.String()
	}
	if sample.SlippageB != nil {
		slipB = sample.SlippageB.String()
	}

	var id int64
	scanErr := pool.QueryRow(ctx, insertSampleSQL,
		sample.Pair,
		sample.Mode,
		sample.SymbolA,
		sample.SymbolB,
		sample.PriceA.String(),
		sample.PriceB.String(),
		sample.Ratio.String(),
		volume,
		slipA,
		slipB,
		sample.Timestamp,
	).Scan(&id)
	if scanErr != nil {
		return fmt.Errorf("insert ratio sample: %w", scanErr)
	}
	return nil
}

// ListHistory lists the most recent samples for one pair, newest first.
func (s *Store) ListHistory(ctx context.Context, pair string, limit int) ([]SampleRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listHistorySQL, pair, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list history: %w", queryErr)
	}
	defer rows.Close()

	return collectSamples(rows, limit)
}

// ListSamplesBetween lists one pair's samples within a time window, oldest first.
func (s *Store) ListSamplesBetween(ctx context.Context, pair string, from, to time.Time) ([]SampleRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSamplesBetweenSQL, pair, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list samples between: %w", queryErr)
	}
	defer rows.Close()

	return collectSamples(rows, 0)
}

// CountSamples counts stored samples.
func (s *Store) CountSamples(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countSamplesSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count samples: %w", scanErr)
	}
	return count, nil
}

// DeleteSamplesBefore removes samples older than the cutoff.
func (s *Store) DeleteSamplesBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	tag, execErr := pool.Exec(ctx, deleteSamplesBeforeSQL, olderThan)
	if execErr != nil {
		return 0, fmt.Errorf("delete samples before: %w", execErr)
	}
	return tag.RowsAffected(), nil
}

// InsertAlert persists an alert emission.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var id int64
	scanErr := pool.QueryRow(ctx, insertAlertSQL,
		alert.Pair,
		alert.Ratio.String(),
		alert.ChangePct.String(),
		alert.ThresholdPct.String(),
		alert.Direction,
		alert.WindowSecs,
		alert.Timestamp,
	).Scan(&id)
	if scanErr != nil {
		return fmt.Errorf("insert alert: %w", scanErr)
	}
	return nil
}

// ListAlerts lists recent alerts, optionally filtered by pair (empty = all).
func (s *Store) ListAlerts(ctx context.Context, pair string, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listAlertsSQL, pair, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		var (
			rec          AlertRecord
			ratioStr     string
			changeStr    string
			thresholdStr string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Pair,
			&ratioStr,
			&changeStr,
			&thresholdStr,
			&rec.Direction,
			&rec.WindowSecs,
			&rec.Timestamp,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		var convErr error
		if rec.Ratio, convErr = decimal.NewFromString(ratioStr); convErr != nil {
			return nil, fmt.Errorf("parse ratio: %w", convErr)
		}
		if rec.ChangePct, convErr = decimal.NewFromString(changeStr); convErr != nil {
			return nil, fmt.Errorf("parse change pct: %w", convErr)
		}
		if rec.ThresholdPct, convErr = decimal.NewFromString(thresholdStr); convErr != nil {
			return nil, fmt.Errorf("parse threshold pct: %w", convErr)
		}

		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// DeleteAlertsBefore removes alerts older than the cutoff.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	tag, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan)
	if execErr != nil {
		return 0, fmt.Errorf("delete alerts before: %w", execErr)
	}
	return tag.RowsAffected(), nil
}

func collectSamples(rows pgx.Rows, sizeHint int) ([]SampleRecord, error) {
	samples := make([]SampleRecord, 0, sizeHint)
	for rows.Next() {
		sample, scanErr := scanSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

func scanSample(rows pgx.Rows) (SampleRecord, error) {
	var (
		rec       SampleRecord
		priceAStr string
		priceBStr string
		ratioStr  string
		volume    sql.NullString
		slipA     sql.NullString
		slipB     sql.NullString
	)

	if err := rows.Scan(
		&rec.ID,
		&rec.Pair,
		&rec.Mode,
		&rec.SymbolA,
		&rec.SymbolB,
		&priceAStr,
		&priceBStr,
		&ratioStr,
		&volume,
		&slipA,
		&slipB,
		&rec.Timestamp,
		&rec.CreatedAt,
	); err != nil {
		return SampleRecord{}, err
	}

	var err error
	if rec.PriceA, err = decimal.NewFromString(priceAStr); err != nil {
		return SampleRecord{}, fmt.Errorf("parse price a: %w", err)
	}
	if rec.PriceB, err = decimal.NewFromString(priceBStr); err != nil {
		return SampleRecord{}, fmt.Errorf("parse price b: %w", err)
	}
	if rec.Ratio, err = decimal.NewFromString(ratioStr); err != nil {
		return SampleRecord{}, fmt.Errorf("parse ratio: %w", err)
	}

	if volume.Valid {
		v, convErr := decimal.NewFromString(volume.String)
		if convErr != nil {
			return SampleRecord{}, fmt.Errorf("parse volume: %w", convErr)
		}
		rec.Volume = &v
	}
	if slipA.Valid {
		v, convErr := decimal.NewFromString(slipA.String)
		if convErr != nil {
			return SampleRecord{}, fmt.Errorf("parse slippage a: %w", convErr)
		}
		rec.SlippageA = &v
	}
	if slipB.Valid {
		v, convErr := decimal.NewFromString(slipB.String)
		if convErr != nil {
			return SampleRecord{}, fmt.Errorf("parse slippage b: %w", convErr)
		}
		rec.SlippageB = &v
	}

	return rec, nil
}
