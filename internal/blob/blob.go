// Package blob is the single entry point to the blob storage drivers. Callers
// depend on blob.Store and select a backend with Open.
package blob

import (
	"context"
	"fmt"

	"blochsweep/internal/blob/core"
	"blochsweep/internal/infra/blob/fs"
	"blochsweep/internal/infra/blob/memory"
	"blochsweep/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
	// Locker serialises writers to a key.
	Locker = core.Locker
	// S3Config configures the S3 driver.
	S3Config = s3.Config
)

// DefaultRoot is the fs driver's directory when Config.Root is empty.
const DefaultRoot = fs.DefaultRoot

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrNotFound   = core.ErrNotFound
	ErrExists     = core.ErrExists
	ErrInvalidKey = core.ErrInvalidKey
)

// Config selects and configures a driver. An empty Driver means fs.
type Config struct {
	Driver Driver
	Root   string
	S3     S3Config
}

// Open constructs the configured driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return fs.New(cfg.Root)
	case DriverS3:
		return s3.New(ctx, cfg.S3)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memory.New() }

// NewMockS3 returns an S3 Store backed by an in-process fake endpoint.
func NewMockS3() Store { return s3.NewMock() }
