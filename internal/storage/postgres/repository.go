// Package postgres persists the merged city/day dataset so downstream
// dashboards can query it without parsing CSV outputs.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a pooled connection to the given Postgres DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Ping verifies connectivity with a short deadline.
func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// Repository stores merged daily rows keyed by (city, date).
type Repository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository creates a Repository over an open database handle.
func NewRepository(db *sql.DB, logger *slog.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// EnsureSchema creates the merged-dataset table when it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS city_daily_weather (
	city          TEXT             NOT NULL,
	date          DATE             NOT NULL,
	ride_count    INTEGER          NOT NULL,
	member_count  INTEGER          NOT NULL,
	casual_count  INTEGER          NOT NULL,
	tavg          DOUBLE PRECISION,
	tmin          DOUBLE PRECISION,
	tmax          DOUBLE PRECISION,
	prcp          DOUBLE PRECISION,
	snow          DOUBLE PRECISION,
	wdir          DOUBLE PRECISION,
	wspd          DOUBLE PRECISION,
	pres          DOUBLE PRECISION,
	updated_at    TIMESTAMPTZ      NOT NULL,
	PRIMARY KEY (city, date)
)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertMerged writes the merged rows, replacing any previous run's values
// for the same (city, date). Reruns fully regenerate the dataset, so an
// upsert keeps the table consistent without a truncate.
func (r *Repository) UpsertMerged(ctx context.Context, rows []domain.MergedDaily) error {
	const stmt = `
INSERT INTO city_daily_weather
	(city, date, ride_count, member_count, casual_count,
	 tavg, tmin, tmax, prcp, snow, wdir, wspd, pres, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (city, date) DO UPDATE SET
	ride_count = EXCLUDED.ride_count,
	member_count = EXCLUDED.member_count,
	casual_count = EXCLUDED.casual_count,
	tavg = EXCLUDED.tavg, tmin = EXCLUDED.tmin, tmax = EXCLUDED.tmax,
	prcp = EXCLUDED.prcp, snow = EXCLUDED.snow,
	wdir = EXCLUDED.wdir, wspd = EXCLUDED.wspd, pres = EXCLUDED.pres,
	updated_at = EXCLUDED.updated_at`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := domain.Now()
	for _, row := range rows {
		var tavg, tmin, tmax, prcp, snow, wdir, wspd, pres *float64
		if w := row.Weather; w != nil {
			tavg, tmin, tmax = w.TAvg, w.TMin, w.TMax
			prcp, snow = w.Prcp, w.Snow
			wdir, wspd, pres = w.Wdir, w.Wspd, w.Pres
		}
		if _, err := tx.ExecContext(ctx, stmt,
			row.City, row.Date, row.RideCount, row.MemberCount, row.CasualCount,
			tavg, tmin, tmax, prcp, snow, wdir, wspd, pres, now,
		); err != nil {
			return fmt.Errorf("upsert %s %s: %w", row.City, row.Date.Format(time.DateOnly), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	r.logger.Info("merged dataset stored", "rows", len(rows))
	return nil
}
