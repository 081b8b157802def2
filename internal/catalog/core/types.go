// Package core holds the run catalog contract shared by the facade and the
// persistence drivers.
package core

import (
	"context"
	"errors"
	"slices"
	"time"
)

// Kind names the sweep flavour a run executed.
type Kind string

const (
	KindSteady   Kind = "steady"
	KindParallel Kind = "parallel"
	KindEvolve   Kind = "evolve"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindSteady, KindParallel, KindEvolve:
		return true
	}
	return false
}

var (
	// ErrNotFound is returned by Get for unknown run ids.
	ErrNotFound = errors.New("run not found")
	// ErrInvalidRun rejects records missing an id or kind.
	ErrInvalidRun = errors.New("invalid run")
)

// Run is one executed sweep. Failed lists the sweep indices whose solve
// failed; CacheHit marks runs served entirely from the result cache.
type Run struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	CacheKey   string    `json:"cache_key,omitempty"`
	Points     int       `json:"points"`
	Failed     []int     `json:"failed,omitempty"`
	CacheHit   bool      `json:"cache_hit"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Validate checks the fields every driver relies on.
func (r Run) Validate() error {
	if r.ID == "" {
		return errors.Join(ErrInvalidRun, errors.New("id required"))
	}
	if !r.Kind.Valid() {
		return errors.Join(ErrInvalidRun, errors.New("unknown kind "+string(r.Kind)))
	}
	if r.Points < 0 {
		return errors.Join(ErrInvalidRun, errors.New("negative point count"))
	}
	return nil
}

// Duration is the wall time between start and finish.
func (r Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Clone deep-copies the failed index list.
func (r Run) Clone() Run {
	r.Failed = slices.Clone(r.Failed)
	return r
}

// Store records and lists runs. Record replaces an existing run with the
// same id. List orders runs by start time, then id.
type Store interface {
	Record(ctx context.Context, run Run) error
	Get(ctx context.Context, id string) (Run, error)
	List(ctx context.Context) ([]Run, error)
	Close() error
}

// SortRuns applies the List ordering in place.
func SortRuns(runs []Run) {
	slices.SortFunc(runs, func(a, b Run) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}
