// Package postgres persists the run catalog to Postgres through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"blochsweep/internal/catalog/core"
)

var _ core.Store = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// DefaultDSN is used when NewStore is given an empty DSN.
	DefaultDSN = "postgres://localhost/blochsweep?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store keeps one row per run in the runs table.
type Store struct {
	db *sql.DB
}

// NewStore connects, pings and ensures the runs table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureRunsTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureRunsTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		cache_key TEXT NOT NULL,
		points INTEGER NOT NULL,
		failed JSONB NOT NULL,
		cache_hit BOOLEAN NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	return nil
}

// Record upserts run inside a transaction.
func (s *Store) Record(ctx context.Context, run core.Run) (retErr error) {
	if err := run.Validate(); err != nil {
		return err
	}
	failed := run.Failed
	if failed == nil {
		failed = []int{}
	}
	payload, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("encode failed indices: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && retErr == nil {
				retErr = rbErr
			}
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (id, kind, cache_key, points, failed, cache_hit, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET kind = EXCLUDED.kind, cache_key = EXCLUDED.cache_key, points = EXCLUDED.points,
			failed = EXCLUDED.failed, cache_hit = EXCLUDED.cache_hit, started_at = EXCLUDED.started_at, finished_at = EXCLUDED.finished_at`,
		run.ID, string(run.Kind), run.CacheKey, run.Points, payload, run.CacheHit, run.StartedAt.UTC(), run.FinishedAt.UTC()); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

const selectRuns = `SELECT id, kind, cache_key, points, failed, cache_hit, started_at, finished_at FROM runs`

func (s *Store) Get(ctx context.Context, id string) (core.Run, error) {
	rows, err := s.db.QueryContext(ctx, selectRuns+` WHERE id = $1`, id)
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
	rows, err := s.db.QueryContext(ctx, selectRuns+` ORDER BY started_at, id`)
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
			run     core.Run
			kind    string
			payload []byte
			started time.Time
			done    time.Time
		)
		if err := rows.Scan(&run.ID, &kind, &run.CacheKey, &run.Points, &payload, &run.CacheHit, &started, &done); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if err := json.Unmarshal(payload, &run.Failed); err != nil {
			return nil, fmt.Errorf("decode failed indices of %s: %w", run.ID, err)
		}
		if len(run.Failed) == 0 {
			run.Failed = nil
		}
		run.Kind = core.Kind(kind)
		run.StartedAt, run.FinishedAt = started.UTC(), done.UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// OverrideSQLOpen swaps the sql.Open hook for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dsn string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}
