// Package db records training runs and priority predictions.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	DefaultListLimit = 50

	SourceManual     = "manual"
	SourceSuggestion = "suggestion"
)

var ErrNotInitialized = errors.New("database not initialized")

// Options selects the driver and where it connects.
type Options struct {
	Driver string
	// Path is the sqlite file; DSN is the postgres connection string.
	Path string
	DSN  string
}

// DB records training runs and priority predictions.
type DB struct {
	conn    *sql.DB
	driver  string
	builder sq.StatementBuilderType
}

// TrainingRun is one scored housing model fit.
type TrainingRun struct {
	ID          int64     `json:"id"`
	DatasetName string    `json:"dataset_name"`
	ModelName   string    `json:"model_name"`
	R2          float64   `json:"r2"`
	TrainRows   int       `json:"train_rows"`
	TestRows    int       `json:"test_rows"`
	TrainedAt   time.Time `json:"trained_at"`
}

// Prediction is one priority guess, from predict or suggest.
type Prediction struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Predicted   string    `json:"predicted"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS training_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    dataset_name TEXT NOT NULL,
    model_name VARCHAR(50) NOT NULL,
    r2 REAL NOT NULL,
    train_rows INTEGER NOT NULL,
    test_rows INTEGER NOT NULL,
    trained_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS priority_predictions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    description TEXT NOT NULL,
    predicted VARCHAR(10) NOT NULL,
    source VARCHAR(20) NOT NULL,
    created_at DATETIME NOT NULL
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS training_runs (
    id BIGSERIAL PRIMARY KEY,
    dataset_name TEXT NOT NULL,
    model_name VARCHAR(50) NOT NULL,
    r2 DOUBLE PRECISION NOT NULL,
    train_rows INTEGER NOT NULL,
    test_rows INTEGER NOT NULL,
    trained_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS priority_predictions (
    id BIGSERIAL PRIMARY KEY,
    description TEXT NOT NULL,
    predicted VARCHAR(10) NOT NULL,
    source VARCHAR(20) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
`

// Open connects with the configured driver and creates missing tables.
func Open(ctx context.Context, opts Options) (*DB, error) {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	var (
		dsn     string
		schema  string
		builder = sq.StatementBuilder
	)
	switch driver {
	case "", "sqlite", DriverSQLite:
		driver = DriverSQLite
		if opts.Path == "" {
			return nil, errors.New("sqlite path is required")
		}
		if dir := filepath.Dir(opts.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		dsn = opts.Path + "?_journal_mode=WAL&_busy_timeout=5000"
		schema = sqliteSchema
		builder = builder.PlaceholderFormat(sq.Question)
	case DriverPostgres, "postgresql":
		driver = DriverPostgres
		if opts.DSN == "" {
			return nil, errors.New("postgres dsn is required")
		}
		dsn = opts.DSN
		schema = postgresSchema
		builder = builder.PlaceholderFormat(sq.Dollar)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}
	if driver == DriverSQLite {
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(5)
	}
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &DB{conn: conn, driver: driver, builder: builder}, nil
}

// Driver is the normalized driver name.
func (d *DB) Driver() string {
	return d.driver
}

func (d *DB) Close() error {
	if d == nil || d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

// SaveTrainingRun inserts run and fills in its ID. A zero TrainedAt is set
// to now.
func (d *DB) SaveTrainingRun(ctx context.Context, run *TrainingRun) error {
	if d == nil || d.conn == nil {
		return ErrNotInitialized
	}
	if run.TrainedAt.IsZero() {
		run.TrainedAt = time.Now().UTC()
	}
	query, args, err := d.builder.
		Insert("training_runs").
		Columns("dataset_name", "model_name", "r2", "train_rows", "test_rows", "trained_at").
		Values(run.DatasetName, run.ModelName, run.R2, run.TrainRows, run.TestRows, run.TrainedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}
	return d.conn.QueryRowContext(ctx, query, args...).Scan(&run.ID)
}

// ListTrainingRuns returns the newest runs first.
func (d *DB) ListTrainingRuns(ctx context.Context, limit int) ([]TrainingRun, error) {
	if d == nil || d.conn == nil {
		return nil, ErrNotInitialized
	}
	query, args, err := d.builder.
		Select("id", "dataset_name", "model_name", "r2", "train_rows", "test_rows", "trained_at").
		From("training_runs").
		OrderBy("trained_at DESC", "id DESC").
		Limit(listLimit(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]TrainingRun, 0)
	for rows.Next() {
		var r TrainingRun
		if err := rows.Scan(&r.ID, &r.DatasetName, &r.ModelName, &r.R2, &r.TrainRows, &r.TestRows, &r.TrainedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SavePrediction inserts p and fills in its ID.
func (d *DB) SavePrediction(ctx context.Context, p *Prediction) error {
	if d == nil || d.conn == nil {
		return ErrNotInitialized
	}
	if p.Source == "" {
		p.Source = SourceManual
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	query, args, err := d.builder.
		Insert("priority_predictions").
		Columns("description", "predicted", "source", "created_at").
		Values(p.Description, p.Predicted, p.Source, p.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}
	return d.conn.QueryRowContext(ctx, query, args...).Scan(&p.ID)
}

// ListPredictions returns the newest predictions first, optionally limited
// to one source.
func (d *DB) ListPredictions(ctx context.Context, source string, limit int) ([]Prediction, error) {
	if d == nil || d.conn == nil {
		return nil, ErrNotInitialized
	}
	q := d.builder.
		Select("id", "description", "predicted", "source", "created_at").
		From("priority_predictions").
		OrderBy("created_at DESC", "id DESC").
		Limit(listLimit(limit))
	if source != "" {
		q = q.Where(sq.Eq{"source": source})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	preds := make([]Prediction, 0)
	for rows.Next() {
		var p Prediction
		if err := rows.Scan(&p.ID, &p.Description, &p.Predicted, &p.Source, &p.CreatedAt); err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, rows.Err()
}

func listLimit(limit int) uint64 {
	if limit <= 0 {
		return DefaultListLimit
	}
	return uint64(limit)
}
