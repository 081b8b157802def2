// Package sweep drives an optical.System over a range of detunings, one
// solve per point. It tolerates per-point solver failure, caches whole result
// sets and can fan points out across goroutines.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"blochsweep/internal/cache"
	"blochsweep/internal/catalog"
	"blochsweep/internal/observability"
	"blochsweep/pkg/density"
	"blochsweep/pkg/optical"
)

var (
	// ErrIncompleteSweep is returned when a full result set is requested but
	// some points are absent.
	ErrIncompleteSweep = errors.New("sweep: incomplete sweep")
	// ErrNoCache is returned when a cache key is given to a Scan built
	// without WithCache.
	ErrNoCache = errors.New("sweep: no cache configured")
)

// IncompleteError lists the absent indices. It unwraps to
// ErrIncompleteSweep.
type IncompleteError struct {
	Indices []int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%v: %d absent point(s) at %v", ErrIncompleteSweep, len(e.Indices), e.Indices)
}

func (e *IncompleteError) Unwrap() error { return ErrIncompleteSweep }

// Results is the index-aligned result set. A nil entry is an absent point.
// Trajectories is only populated by time evolution.
type Results struct {
	Rho          []*density.Matrix
	Trajectories []*optical.Trajectory
}

func newResults(n int, withTrajectories bool) Results {
	r := Results{Rho: make([]*density.Matrix, n)}
	if withTrajectories {
		r.Trajectories = make([]*optical.Trajectory, n)
	}
	return r
}

// Scan holds one system, its detuning range and the latest result set.
// A Scan is not safe for concurrent use; the parallel run manages its own
// goroutines.
type Scan struct {
	system       optical.System
	deltas       []float64
	slot         int
	results      Results
	cache        *cache.Cache
	logger       *slog.Logger
	recorder     observability.Recorder
	catalog      catalog.Store
	pointTimeout time.Duration
}

// Option configures a Scan.
type Option func(*Scan)

// WithCache enables result caching.
func WithCache(c *cache.Cache) Option { return func(s *Scan) { s.cache = c } }

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option { return func(s *Scan) { s.logger = l } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r observability.Recorder) Option { return func(s *Scan) { s.recorder = r } }

// WithCatalog records one catalog run per sweep operation.
func WithCatalog(c catalog.Store) Option { return func(s *Scan) { s.catalog = c } }

// WithPointTimeout bounds each solve; zero disables the bound. A point that
// runs out of time is recorded as failed.
func WithPointTimeout(d time.Duration) Option { return func(s *Scan) { s.pointTimeout = d } }

// New returns a Scan over deltas, writing each value into detuning slot.
func New(system optical.System, deltas []float64, slot int, opts ...Option) (*Scan, error) {
	if system == nil {
		return nil, errors.New("sweep: nil system")
	}
	if len(deltas) == 0 {
		return nil, errors.New("sweep: empty detuning range")
	}
	if slot < 0 {
		return nil, fmt.Errorf("sweep: negative detuning slot %d", slot)
	}
	s := &Scan{
		system:  system,
		deltas:  slices.Clone(deltas),
		slot:    slot,
		results: newResults(len(deltas), false),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "sweep")
	if s.recorder == nil {
		s.recorder = observability.Nop{}
	}
	if s.pointTimeout < 0 {
		return nil, fmt.Errorf("sweep: negative point timeout %v", s.pointTimeout)
	}
	return s, nil
}

// Deltas returns a copy of the detuning range.
func (s *Scan) Deltas() []float64 { return slices.Clone(s.deltas) }

// Slot is the index of the swept detuning.
func (s *Scan) Slot() int { return s.slot }

// System returns the wrapped system.
func (s *Scan) System() optical.System { return s.system }

// Results returns the current result set. The slices are copies; the
// matrices are shared and must not be mutated.
func (s *Scan) Results() Results {
	return Results{Rho: slices.Clone(s.results.Rho), Trajectories: slices.Clone(s.results.Trajectories)}
}

// Failed lists the absent indices in ascending order.
func (s *Scan) Failed() []int {
	var idx []int
	for i, rho := range s.results.Rho {
		if rho == nil {
			idx = append(idx, i)
		}
	}
	return idx
}

// detuningsAt returns a copy of initial with the swept slot set to delta.
func (s *Scan) detuningsAt(initial []float64, delta float64) []float64 {
	d := slices.Clone(initial)
	d[s.slot] = delta
	return d
}

func (s *Scan) checkInitial(initial []float64) error {
	if s.slot >= len(initial) {
		return fmt.Errorf("sweep: detuning slot %d out of range for %d detunings", s.slot, len(initial))
	}
	return nil
}

// pointContext applies the per-point timeout.
func (s *Scan) pointContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.pointTimeout > 0 {
		return context.WithTimeout(ctx, s.pointTimeout)
	}
	return context.WithCancel(ctx)
}

// progress logs the per-point diagnostic.
func (s *Scan) progress(i int, delta float64) {
	s.logger.Debug("sweep point", "delta", delta, "index", i, "of", len(s.deltas)-1)
}

// failed records the single warning and metric for a failed point.
func (s *Scan) failed(kind catalog.Kind, i int, delta float64, err error) {
	s.logger.Warn("solve failed, point left absent", "delta", delta, "index", i, "err", err)
	s.recorder.PointFailed(string(kind))
}

// checkSolved turns nil or non-finite output into a solve failure.
func checkSolved(rho *density.Matrix, err error) error {
	if err != nil {
		return err
	}
	if rho == nil {
		return fmt.Errorf("%w: no state returned", optical.ErrSolveFailure)
	}
	if !rho.IsFinite() {
		return fmt.Errorf("%w: non-finite state", optical.ErrSolveFailure)
	}
	return nil
}

// aborted reports whether err comes from the parent context rather than the
// point deadline.
func aborted(parent context.Context) error {
	if err := parent.Err(); err != nil {
		return fmt.Errorf("sweep aborted: %w", err)
	}
	return nil
}

type runState struct {
	kind     catalog.Kind
	cacheKey string
	started  time.Time
}

func (s *Scan) begin(kind catalog.Kind, cacheKey string) (runState, error) {
	if cacheKey != "" {
		if s.cache == nil {
			return runState{}, ErrNoCache
		}
		if err := cache.ValidateKey(cacheKey); err != nil {
			return runState{}, err
		}
	}
	return runState{kind: kind, cacheKey: cacheKey, started: time.Now().UTC()}, nil
}

// finish records the run in the catalog. Catalog failures are logged, not
// returned; the results are already in memory.
func (s *Scan) finish(ctx context.Context, rs runState, hit bool) {
	failed := s.Failed()
	s.logger.Info("sweep finished", "kind", rs.kind, "points", len(s.deltas), "failed", len(failed),
		"cache_hit", hit, "elapsed", time.Since(rs.started))
	if s.catalog == nil {
		return
	}
	run := catalog.Run{
		ID:         catalog.NewID(),
		Kind:       rs.kind,
		CacheKey:   rs.cacheKey,
		Points:     len(s.deltas),
		Failed:     failed,
		CacheHit:   hit,
		StartedAt:  rs.started,
		FinishedAt: time.Now().UTC(),
	}
	if err := s.catalog.Record(ctx, run); err != nil {
		s.logger.Warn("recording run failed", "id", run.ID, "err", err)
	}
}

// lookup loads the cached set for rs.cacheKey. It reports a miss when
// recompute is set, no key is given, nothing is stored, or the stored entry
// cannot be decoded for this range.
func (s *Scan) lookup(ctx context.Context, rs runState, recompute, withTrajectories bool) (bool, error) {
	if rs.cacheKey == "" || recompute {
		return false, nil
	}
	payload, err := s.cache.Load(ctx, rs.cacheKey)
	if errors.Is(err, cache.ErrCacheMiss) {
		s.recorder.CacheLookup(false)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	snap, err := Decode(payload)
	if err == nil {
		err = snap.fits(len(s.deltas), s.system.NumStates(), withTrajectories)
	}
	if err != nil {
		s.logger.Warn("discarding unreadable cache entry", "key", rs.cacheKey, "err", err)
		s.recorder.CacheLookup(false)
		return false, nil
	}
	s.recorder.CacheLookup(true)
	s.results = Results{Rho: snap.Rho, Trajectories: snap.Trajectories}
	return true, nil
}

// persist stores the whole result set under rs.cacheKey.
func (s *Scan) persist(ctx context.Context, rs runState) error {
	if rs.cacheKey == "" {
		return nil
	}
	payload, err := Encode(Snapshot{
		Deltas:       s.deltas,
		Slot:         s.slot,
		Rho:          s.results.Rho,
		Trajectories: s.results.Trajectories,
	})
	if err != nil {
		return err
	}
	meta := map[string]string{
		"kind":   string(rs.kind),
		"points": strconv.Itoa(len(s.deltas)),
		"failed": strconv.Itoa(len(s.Failed())),
	}
	if err := s.cache.Save(ctx, rs.cacheKey, payload, meta); err != nil {
		return fmt.Errorf("sweep: caching results: %w", err)
	}
	return nil
}
