package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bradykim7/bookscraper/internal/models"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrRunNotFound is returned by LoadRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS crawl_runs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	seed_url    TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	pages       INTEGER NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS records (
	run_id TEXT NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
	seq    INTEGER NOT NULL,
	fields TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// SQLiteStore keeps crawl runs in a local SQLite file. Records are stored as
// JSON objects so the table does not depend on the profile's field set.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string, log *zap.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, log: log.Named("sqlite-store")}, nil
}

// SaveRun writes the run and its records in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *models.CrawlRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO crawl_runs (id, source, seed_url, started_at, finished_at, pages, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.SeedURL,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Pages, string(run.Status), run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (run_id, seq, fields) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, record := range run.Result.Records {
		fields, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, string(fields)); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}

	s.log.Info("Saved crawl run",
		zap.String("run_id", run.ID),
		zap.Int("records", run.Result.Len()))
	return nil
}

// LoadRun reads a run and its records back in their original order.
func (s *SQLiteStore) LoadRun(ctx context.Context, id string) (*models.CrawlRun, error) {
	var (
		run                 models.CrawlRun
		status              string
		startedAt, finished string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, seed_url, started_at, finished_at, pages, status, error
		 FROM crawl_runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Source, &run.SeedURL, &startedAt, &finished, &run.Pages, &status, &run.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	run.Status = models.RunStatus(status)

	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("bad started_at for run %s: %w", id, err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, fmt.Errorf("bad finished_at for run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT fields FROM records WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load records for run %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var record models.Record
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		run.Result.Records = append(run.Result.Records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	return &run, nil
}

// Close closes the database.
func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}
