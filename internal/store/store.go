// Package store persists detection runs and their scored points to SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	outlier "github.com/aouyang1/go-outlier"
	"github.com/aouyang1/go-outlier/score"
	"github.com/google/uuid"

	// pure Go sqlite driver
	_ "modernc.org/sqlite"
)

const DefaultBusyTimeout = 5 * time.Second

var (
	ErrNoPath      = errors.New("no sqlite path specified")
	ErrNoResults   = errors.New("no results to store")
	ErrRunNotFound = errors.New("run not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	series TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	total INTEGER NOT NULL,
	scored INTEGER NOT NULL,
	outliers INTEGER NOT NULL,
	outlier_ratio REAL NOT NULL,
	max_score REAL NOT NULL,
	mean_score REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS points (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	ts INTEGER NOT NULL,
	observed REAL,
	forecast REAL,
	lower REAL,
	upper REAL,
	score REAL,
	is_outlier INTEGER NOT NULL,
	PRIMARY KEY (run_id, ts)
);

CREATE INDEX IF NOT EXISTS idx_runs_series_created ON runs(series, created_at);
CREATE INDEX IF NOT EXISTS idx_points_outlier ON points(run_id, is_outlier);
`

// Run is the summary of a single detection over a series
type Run struct {
	ID        string        `json:"id"`
	Series    string        `json:"series"`
	CreatedAt time.Time     `json:"created_at"`
	Summary   score.Summary `json:"summary"`
}

// Store writes detection results into a SQLite database
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and initializes the schema
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		path, DefaultBusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database, %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to create schema, %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores the results of a detection over the named series and returns the new run
func (s *Store) SaveRun(ctx context.Context, series string, res *outlier.Results) (Run, error) {
	if res == nil || res.Len() == 0 {
		return Run{}, ErrNoResults
	}
	run := Run{
		ID:        uuid.New().String(),
		Series:    series,
		CreatedAt: s.now().UTC(),
		Summary:   res.Summary(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("unable to begin transaction, %w", err)
	}
	defer tx.Rollback()

	sum := run.Summary
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, series, created_at, total, scored, outliers, outlier_ratio, max_score, mean_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Series, run.CreatedAt.UnixNano(),
		sum.Total, sum.Scored, sum.Outliers, sum.OutlierRatio, sum.MaxScore, sum.MeanScore,
	); err != nil {
		return Run{}, fmt.Errorf("unable to insert run, %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO points (run_id, ts, observed, forecast, lower, upper, score, is_outlier)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("unable to prepare point insert, %w", err)
	}
	defer stmt.Close()

	for _, rec := range res.Records() {
		if _, err := stmt.ExecContext(ctx,
			run.ID, rec.T.UnixNano(),
			nullFloat(rec.Observed), nullFloat(rec.Forecast), nullFloat(rec.Lower),
			nullFloat(rec.Upper), nullFloat(rec.Score), rec.IsOutlier,
		); err != nil {
			return Run{}, fmt.Errorf("unable to insert point at %s, %w", rec.T, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("unable to commit run, %w", err)
	}
	return run, nil
}

// Runs returns the most recent runs of a series, newest first. An empty series returns runs of
// every series.
func (s *Store) Runs(ctx context.Context, series string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, series, created_at, total, scored, outliers, outlier_ratio, max_score, mean_score
		FROM runs WHERE ? = '' OR series = ? ORDER BY created_at DESC LIMIT ?`,
		series, series, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query runs, %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt int64
		if err := rows.Scan(&run.ID, &run.Series, &createdAt,
			&run.Summary.Total, &run.Summary.Scored, &run.Summary.Outliers,
			&run.Summary.OutlierRatio, &run.Summary.MaxScore, &run.Summary.MeanScore,
		); err != nil {
			return nil, fmt.Errorf("unable to scan run, %w", err)
		}
		run.CreatedAt = time.Unix(0, createdAt).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Points returns the stored records of a run in time order. When outliersOnly is set only
// flagged points are returned.
func (s *Store) Points(ctx context.Context, runID string, outliersOnly bool) ([]outlier.Record, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("unable to query run, %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%s, %w", runID, ErrRunNotFound)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, observed, forecast, lower, upper, score, is_outlier
		FROM points WHERE run_id = ? AND (? = 0 OR is_outlier = 1) ORDER BY ts`,
		runID, outliersOnly)
	if err != nil {
		return nil, fmt.Errorf("unable to query points, %w", err)
	}
	defer rows.Close()

	var records []outlier.Record
	for rows.Next() {
		var ts int64
		var observed, forecast, lower, upper, sc sql.NullFloat64
		var rec outlier.Record
		if err := rows.Scan(&ts, &observed, &forecast, &lower, &upper, &sc, &rec.IsOutlier); err != nil {
			return nil, fmt.Errorf("unable to scan point, %w", err)
		}
		rec.T = time.Unix(0, ts).UTC()
		rec.Observed = floatPtr(observed)
		rec.Forecast = floatPtr(forecast)
		rec.Lower = floatPtr(lower)
		rec.Upper = floatPtr(upper)
		rec.Score = floatPtr(sc)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteBefore removes runs created before the cutoff along with their points and returns the
// number of runs removed
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("unable to delete runs, %w", err)
	}
	return res.RowsAffected()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
