package sweep

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"blochsweep/internal/catalog"
	"blochsweep/pkg/density"
	"blochsweep/pkg/optical"
)

// RunTimeEvolution evolves rho0 over times at every detuning, keeping each
// trajectory and its final state. The cache contract matches RunSteadyState;
// the cached entry carries both the final states and the trajectories.
// drive is validated before any point is solved.
func (s *Scan) RunTimeEvolution(ctx context.Context, initial, times []float64, rho0 *density.Matrix, drive optical.Drive, recompute bool, cacheKey string) ([]*optical.Trajectory, error) {
	if err := s.checkInitial(initial); err != nil {
		return nil, err
	}
	if len(times) == 0 {
		return nil, errors.New("sweep: empty time list")
	}
	if err := drive.Validate(); err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	rs, err := s.begin(catalog.KindEvolve, cacheKey)
	if err != nil {
		return nil, err
	}
	hit, err := s.lookup(ctx, rs, recompute, true)
	if err != nil {
		return nil, err
	}
	if hit {
		s.finish(ctx, rs, true)
		return slices.Clone(s.results.Trajectories), nil
	}

	s.results = newResults(len(s.deltas), true)
	for i, delta := range s.deltas {
		if err := aborted(ctx); err != nil {
			return nil, err
		}
		s.progress(i, delta)
		traj, err := s.evolvePoint(ctx, initial, times, rho0, drive, delta)
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
		s.results.Trajectories[i] = traj
		s.results.Rho[i] = traj.Final()
	}
	err = s.persist(ctx, rs)
	s.finish(ctx, rs, false)
	return slices.Clone(s.results.Trajectories), err
}

func (s *Scan) evolvePoint(ctx context.Context, initial, times []float64, rho0 *density.Matrix, drive optical.Drive, delta float64) (*optical.Trajectory, error) {
	if err := s.system.SetDetunings(s.detuningsAt(initial, delta)); err != nil {
		return nil, setupError{fmt.Errorf("sweep: set detunings: %w", err)}
	}
	pctx, cancel := s.pointContext(ctx)
	defer cancel()
	start := time.Now()
	traj, err := s.system.Evolve(pctx, times, rho0, drive)
	if err != nil {
		return nil, err
	}
	if traj == nil {
		return nil, fmt.Errorf("%w: no trajectory returned", optical.ErrSolveFailure)
	}
	for _, st := range traj.States {
		if err := checkSolved(st, nil); err != nil {
			return nil, err
		}
	}
	if traj.Final() == nil {
		return nil, fmt.Errorf("%w: empty trajectory", optical.ErrSolveFailure)
	}
	s.recorder.PointSolved(string(catalog.KindEvolve), time.Since(start))
	return traj, nil
}
