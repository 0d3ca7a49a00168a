package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/air-quality-predict/internal/airquality"
)

const schema = `
CREATE TABLE IF NOT EXISTS raw_measurements (
	observed_at TIMESTAMP NOT NULL,
	location    TEXT NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	unit        TEXT NOT NULL,
	PRIMARY KEY (observed_at, location)
)`

// SQLStore mirrors raw measurements into SQLite or Postgres.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// OpenSQL connects to driver ("sqlite3" or "postgres") and ensures the schema exists.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if driver == "sqlite3" {
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if driver == "sqlite3" {
		// One writer; also keeps ":memory:" databases on a single connection.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	return &SQLStore{db: db, driver: driver}, nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveMeasurements upserts ms in a single transaction.
func (s *SQLStore) SaveMeasurements(ctx context.Context, ms []airquality.Measurement) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := tx.Rebind(`
		INSERT INTO raw_measurements (observed_at, location, value, unit)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (observed_at, location) DO UPDATE
		SET value = excluded.value,
		    unit = excluded.unit`)

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range ms {
		if _, err := stmt.ExecContext(ctx, m.Timestamp.UTC(), m.Location, m.Value, m.Unit); err != nil {
			return fmt.Errorf("insert measurement %s: %w", m.Timestamp.Format(time.RFC3339), err)
		}
	}
	return tx.Commit()
}

// LoadMeasurements returns every stored measurement ordered by time.
func (s *SQLStore) LoadMeasurements(ctx context.Context) ([]airquality.Measurement, error) {
	var ms []airquality.Measurement
	err := s.db.SelectContext(ctx, &ms, `
		SELECT observed_at, value, location, unit
		FROM raw_measurements
		ORDER BY observed_at, location`)
	if err != nil {
		return nil, fmt.Errorf("select measurements: %w", err)
	}
	if len(ms) == 0 {
		return nil, fmt.Errorf("%w: raw_measurements is empty", ErrNotFound)
	}
	for i := range ms {
		ms[i].Timestamp = ms[i].Timestamp.UTC()
	}
	return ms, nil
}

func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
