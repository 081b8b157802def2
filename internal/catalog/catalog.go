// Package catalog records executed sweeps so past runs can be listed and
// inspected. Storage is pluggable: memory for tests and one-off runs, SQLite
// for a local file, Postgres for a shared lab database.
package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"blochsweep/internal/catalog/core"
	"blochsweep/internal/infra/persistence/memory"
	"blochsweep/internal/infra/persistence/postgres"
	"blochsweep/internal/infra/persistence/sqlite"
)

type (
	Run   = core.Run
	Kind  = core.Kind
	Store = core.Store
)

const (
	KindSteady   = core.KindSteady
	KindParallel = core.KindParallel
	KindEvolve   = core.KindEvolve
)

var (
	ErrNotFound   = core.ErrNotFound
	ErrInvalidRun = core.ErrInvalidRun
)

// Driver identifies a catalog backend.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (tests / ephemeral)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// DefaultSQLitePath is the sqlite file used when Config.SQLitePath is empty.
const DefaultSQLitePath = sqlite.DefaultPath

// Config selects and parameterises a backend. An empty Driver means sqlite.
type Config struct {
	Driver     Driver `toml:"driver" yaml:"driver" json:"driver"`
	SQLitePath string `toml:"sqlite_path" yaml:"sqlite_path" json:"sqlite_path"`
	// PostgresDSN is only read when Driver is postgres.
	PostgresDSN string `toml:"postgres_dsn" yaml:"postgres_dsn" json:"postgres_dsn"`
}

// Open returns the configured Store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		return memory.NewStore(), nil
	case "", DriverSQLite:
		return sqlite.NewStore(cfg.SQLitePath)
	case DriverPostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown catalog driver %s", cfg.Driver)
	}
}

// NewMemory returns an empty in-process catalog.
func NewMemory() Store { return memory.NewStore() }

// NewID returns a fresh run identifier.
func NewID() string { return uuid.NewString() }
