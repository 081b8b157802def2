package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"blochsweep/internal/catalog"
	"blochsweep/pkg/density"
	"blochsweep/pkg/optical"
)

// RunSteadyState solves the steady state at every detuning in order.
//
// Unless recompute is set, a cached set under cacheKey is returned without
// touching the system. Otherwise the result set is reset and each point is
// solved; a failed point stays absent and logs one warning. When cacheKey
// is non-empty the finished set is cached, replacing any previous entry.
// Cancelling ctx aborts the sweep.
func (s *Scan) RunSteadyState(ctx context.Context, initial []float64, recompute bool, cacheKey string) ([]*density.Matrix, error) {
	if err := s.checkInitial(initial); err != nil {
		return nil, err
	}
	rs, err := s.begin(catalog.KindSteady, cacheKey)
	if err != nil {
		return nil, err
	}
	hit, err := s.lookup(ctx, rs, recompute, false)
	if err != nil {
		return nil, err
	}
	if hit {
		s.finish(ctx, rs, true)
		return slices.Clone(s.results.Rho), nil
	}

	s.results = newResults(len(s.deltas), false)
	for i, delta := range s.deltas {
		if err := aborted(ctx); err != nil {
			return nil, err
		}
		s.progress(i, delta)
		rho, err := s.solvePoint(ctx, rs.kind, s.system, initial, delta)
		if err != nil {
			if abort := aborted(ctx); abort != nil {
				return nil, abort
			}
			if isSetupError(err) {
				return nil, err
			}
			s.failed(rs.kind, i, delta, err)
			continue
		}
		s.results.Rho[i] = rho
	}
	err = s.persist(ctx, rs)
	s.finish(ctx, rs, false)
	return slices.Clone(s.results.Rho), err
}

// RunParallelSteadyState is RunSteadyState with the points spread over up to
// workers goroutines (runtime.NumCPU() when workers <= 0). Systems that
// implement optical.Cloner are cloned once per worker; others are shared
// and their solves serialised. Results come back in range order.
func (s *Scan) RunParallelSteadyState(ctx context.Context, initial []float64, workers int, recompute bool, cacheKey string) ([]*density.Matrix, error) {
	if err := s.checkInitial(initial); err != nil {
		return nil, err
	}
	rs, err := s.begin(catalog.KindParallel, cacheKey)
	if err != nil {
		return nil, err
	}
	hit, err := s.lookup(ctx, rs, recompute, false)
	if err != nil {
		return nil, err
	}
	if hit {
		s.finish(ctx, rs, true)
		return slices.Clone(s.results.Rho), nil
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(s.deltas))
	pool := s.systemPool(workers)

	s.results = newResults(len(s.deltas), false)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, delta := range s.deltas {
		g.Go(func() error {
			if err := aborted(gctx); err != nil {
				return err
			}
			s.progress(i, delta)
			sys := <-pool
			rho, err := s.solvePoint(gctx, rs.kind, sys, initial, delta)
			pool <- sys
			if err != nil {
				if abort := aborted(gctx); abort != nil {
					return abort
				}
				if isSetupError(err) {
					return err
				}
				s.failed(rs.kind, i, delta, err)
				return nil
			}
			s.results.Rho[i] = rho
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if abort := aborted(ctx); abort != nil {
			return nil, abort
		}
		return nil, err
	}
	err = s.persist(ctx, rs)
	s.finish(ctx, rs, false)
	return slices.Clone(s.results.Rho), err
}

// systemPool hands out systems to workers. A cloneable system yields one
// clone per worker; otherwise the single shared system is the pool, which
// serialises access to it.
func (s *Scan) systemPool(workers int) chan optical.System {
	cl, ok := s.system.(optical.Cloner)
	if !ok {
		pool := make(chan optical.System, 1)
		pool <- s.system
		return pool
	}
	pool := make(chan optical.System, workers)
	for range workers {
		pool <- cl.Clone()
	}
	return pool
}

// setupError marks failures that are not the solver's: they would repeat
// at every point, so the sweep stops instead of recording them.
type setupError struct{ err error }

func (e setupError) Error() string { return e.err.Error() }
func (e setupError) Unwrap() error { return e.err }

func isSetupError(err error) bool {
	var se setupError
	return errors.As(err, &se)
}

func (s *Scan) solvePoint(ctx context.Context, kind catalog.Kind, sys optical.System, initial []float64, delta float64) (*density.Matrix, error) {
	if err := sys.SetDetunings(s.detuningsAt(initial, delta)); err != nil {
		return nil, setupError{fmt.Errorf("sweep: set detunings: %w", err)}
	}
	pctx, cancel := s.pointContext(ctx)
	defer cancel()
	start := time.Now()
	rho, err := sys.SteadyState(pctx)
	if err := checkSolved(rho, err); err != nil {
		return nil, err
	}
	s.recorder.PointSolved(string(kind), time.Since(start))
	return rho, nil
}
