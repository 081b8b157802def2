// Package sqlite persists the run catalog to a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"blochsweep/internal/catalog/core"
)

var _ core.Store = (*Store)(nil)

// DefaultPath is used when NewStore is given an empty path.
const DefaultPath = "blochsweep.db"

// Store keeps one row per run in the runs table.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		cache_key TEXT NOT NULL,
		points INTEGER NOT NULL,
		failed TEXT NOT NULL,
		cache_hit INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) Record(ctx context.Context, run core.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}
	failed, err := json.Marshal(nonNil(run.Failed))
	if err != nil {
		return fmt.Errorf("encode failed indices: %w", err)
	}
	hit := 0
	if run.CacheHit {
		hit = 1
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO runs(id, kind, cache_key, points, failed, cache_hit, started_at, finished_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET kind=excluded.kind, cache_key=excluded.cache_key, points=excluded.points,
			failed=excluded.failed, cache_hit=excluded.cache_hit, started_at=excluded.started_at, finished_at=excluded.finished_at`,
		run.ID, string(run.Kind), run.CacheKey, run.Points, string(failed), hit,
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.FinishedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

const selectRuns = `SELECT id, kind, cache_key, points, failed, cache_hit, started_at, finished_at FROM runs`

func (s *Store) Get(ctx context.Context, id string) (core.Run, error) {
	rows, err := s.db.QueryContext(ctx, selectRuns+` WHERE id = ?`, id)
	if err != nil {
		return core.Run{}, fmt.Errorf("select run: %w", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return core.Run{}, err
	}
	if len(runs) == 0 {
		return core.Run{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return runs[0], nil
}

func (s *Store) List(ctx context.Context) ([]core.Run, error) {
	rows, err := s.db.QueryContext(ctx, selectRuns)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	core.SortRuns(runs)
	return runs, nil
}

func (s *Store) Close() error { return s.db.Close() }

func scanRuns(rows *sql.Rows) ([]core.Run, error) {
	defer func() { _ = rows.Close() }()
	var runs []core.Run
	for rows.Next() {
		var (
			run               core.Run
			kind, failed      string
			hit               int64
			started, finished string
		)
		if err := rows.Scan(&run.ID, &kind, &run.CacheKey, &run.Points, &failed, &hit, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		run.Kind = core.Kind(kind)
		run.CacheHit = hit != 0
		if err := json.Unmarshal([]byte(failed), &run.Failed); err != nil {
			return nil, fmt.Errorf("decode failed indices of %s: %w", run.ID, err)
		}
		if len(run.Failed) == 0 {
			run.Failed = nil
		}
		var err error
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("decode started_at of %s: %w", run.ID, err)
		}
		if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("decode finished_at of %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nonNil(xs []int) []int {
	if xs == nil {
		return []int{}
	}
	return xs
}
