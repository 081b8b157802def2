package sweep

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"blochsweep/pkg/density"
	"blochsweep/pkg/optical"
)

// fakeSystem is a two-state system whose steady state encodes the current
// detuning in its coherence. Detunings listed in fail make the solve fail;
// those in block wait for ctx.
type fakeSystem struct {
	deltas   []float64
	calls    *atomic.Int64
	inFlight *atomic.Int32
	overlap  *atomic.Bool
	fail     map[float64]bool
	block    map[float64]bool
	energies []float64
	rho      *density.Matrix
}

func newFake(failAt ...float64) *fakeSystem {
	f := &fakeSystem{
		calls:    new(atomic.Int64),
		inFlight: new(atomic.Int32),
		overlap:  new(atomic.Bool),
		fail:     make(map[float64]bool),
		block:    make(map[float64]bool),
		energies: []float64{0, 10},
	}
	for _, d := range failAt {
		f.fail[d] = true
	}
	return f
}

func (f *fakeSystem) NumStates() int { return 2 }

func (f *fakeSystem) SetDetunings(d []float64) error {
	if len(d) != 2 {
		return errors.New("fake: want two detunings")
	}
	f.deltas = slices.Clone(d)
	return nil
}

func (f *fakeSystem) BareEnergies() []float64 { return slices.Clone(f.energies) }

func (f *fakeSystem) Rho() *density.Matrix { return f.rho }

func (f *fakeSystem) enter() func() {
	if f.inFlight.Add(1) > 1 {
		f.overlap.Store(true)
	}
	return func() { f.inFlight.Add(-1) }
}

func stateFor(delta, t float64) *density.Matrix {
	rho := density.Diagonal([]float64{0.75, 0.25})
	rho.Set(0, 1, complex(delta, t))
	rho.Set(1, 0, complex(delta, -t))
	return rho
}

func (f *fakeSystem) SteadyState(ctx context.Context) (*density.Matrix, error) {
	defer f.enter()()
	f.calls.Add(1)
	delta := f.deltas[0]
	if f.block[delta] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	time.Sleep(time.Millisecond)
	if f.fail[delta] {
		return nil, optical.ErrSolveFailure
	}
	f.rho = stateFor(delta, 0)
	return f.rho, nil
}

func (f *fakeSystem) Evolve(ctx context.Context, times []float64, _ *density.Matrix, _ optical.Drive) (*optical.Trajectory, error) {
	defer f.enter()()
	f.calls.Add(1)
	delta := f.deltas[0]
	if f.block[delta] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.fail[delta] {
		return nil, optical.ErrSolveFailure
	}
	traj := &optical.Trajectory{Times: slices.Clone(times)}
	for _, t := range times {
		traj.States = append(traj.States, stateFor(delta, t))
	}
	f.rho = traj.Final()
	return traj, nil
}

// cloningSystem adds optical.Cloner; clones share the counters.
type cloningSystem struct{ *fakeSystem }

func (c cloningSystem) Clone() optical.System {
	cp := *c.fakeSystem
	cp.inFlight = new(atomic.Int32)
	return cloningSystem{&cp}
}

// logCapture records every log line.
type logCapture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *logCapture) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

func (l *logCapture) count(substr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Count(l.buf.String(), substr)
}

func newLogger() (*slog.Logger, *logCapture) {
	lc := &logCapture{}
	return slog.New(slog.NewTextHandler(lc, &slog.HandlerOptions{Level: slog.LevelDebug})), lc
}

// countingRecorder implements observability.Recorder.
type countingRecorder struct {
	solved, failed, hits, misses atomic.Int64
}

func (r *countingRecorder) PointSolved(string, time.Duration) { r.solved.Add(1) }
func (r *countingRecorder) PointFailed(string)                { r.failed.Add(1) }
func (r *countingRecorder) CacheLookup(hit bool) {
	if hit {
		r.hits.Add(1)
		return
	}
	r.misses.Add(1)
}
