// Package memory keeps the run catalog in process memory.
package memory

import (
	"context"
	"fmt"
	"sync"

	"blochsweep/internal/catalog/core"
)

var _ core.Store = (*Store)(nil)

// Store is a mutex-guarded map of runs keyed by id.
type Store struct {
	mu   sync.RWMutex
	runs map[string]core.Run
}

// NewStore returns an empty catalog.
func NewStore() *Store {
	return &Store{runs: make(map[string]core.Run)}
}

func (s *Store) Record(ctx context.Context, run core.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := run.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.runs[run.ID] = run.Clone()
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(_ context.Context, id string) (core.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return core.Run{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return run.Clone(), nil
}

func (s *Store) List(ctx context.Context) ([]core.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]core.Run, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run.Clone())
	}
	s.mu.RUnlock()
	core.SortRuns(out)
	return out, nil
}

func (s *Store) Close() error { return nil }
