// Package store persists sensor readings to SQLite. The readings table is
// the device's local history; the HTTP API serves range queries from it and
// the sampling loop appends one row per successful decode.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// sqliteTimeFormat is the TIMESTAMP format SQLite sorts lexically.
const sqliteTimeFormat = "2006-01-02 15:04:05"

// Reading is one persisted sensor sample.
type Reading struct {
	ID          string
	TakenAt     time.Time
	Temperature float64
	Humidity    float64
}

// Store wraps the readings database.
type Store struct {
	db *sql.DB
}

// Open opens/creates the SQLite file at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// SQLite is not great with many writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", strings.TrimSuffix(pragma, ";"), err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an existing database handle. Used by tests.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

const schemaReadings = `
CREATE TABLE IF NOT EXISTS readings (
    id TEXT PRIMARY KEY,
    taken_at TIMESTAMP NOT NULL,
    temperature REAL NOT NULL,
    humidity REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_readings_taken_at ON readings (taken_at);
`

func ensureSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaReadings); err != nil {
		return fmt.Errorf("ensure readings schema: %w", err)
	}
	return nil
}

// Append inserts a reading. If ID is empty a new one is generated; if
// TakenAt is zero the current time is used.
func (s *Store) Append(ctx context.Context, r Reading) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.TakenAt.IsZero() {
		r.TakenAt = time.Now().UTC()
	} else {
		r.TakenAt = r.TakenAt.UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO readings (id, taken_at, temperature, humidity)
		VALUES (?, ?, ?, ?)
	`,
		r.ID,
		r.TakenAt.Format(sqliteTimeFormat),
		r.Temperature,
		r.Humidity,
	)
	return err
}

// List returns readings in [from, to] (inclusive; zero bounds are open),
// newest first, capped at limit (<= 0 means no cap).
func (s *Store) List(ctx context.Context, from, to time.Time, limit int) ([]Reading, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "taken_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimeFormat))
	}
	if !to.IsZero() {
		conds = append(conds, "taken_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimeFormat))
	}

	q := `SELECT id, taken_at, temperature, humidity FROM readings`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY taken_at DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Reading, 0, 64)
	for rows.Next() {
		var (
			r  Reading
			ts string
		)
		if err := rows.Scan(&r.ID, &ts, &r.Temperature, &r.Humidity); err != nil {
			return nil, err
		}
		at, err := time.ParseInLocation(sqliteTimeFormat, ts, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse taken_at %q: %w", ts, err)
		}
		r.TakenAt = at
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Prune deletes readings older than the cutoff and reports how many rows
// went away.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM readings WHERE taken_at < ?`,
		olderThan.UTC().Format(sqliteTimeFormat),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
