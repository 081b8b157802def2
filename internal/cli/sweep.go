package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"blochsweep/internal/config"
	"blochsweep/internal/model/bloch"
	"blochsweep/internal/observability"
	"blochsweep/internal/style"
	"blochsweep/internal/sweep"
	"blochsweep/pkg/angmom"
	"blochsweep/pkg/density"
	"blochsweep/pkg/macro"
)

// rangeFlags are the detuning-range and cache flags shared by sweep and
// evolve. Unset flags fall back to the [sweep] config section.
type rangeFlags struct {
	start, stop float64
	points      int
	slot        int
	cacheKey    string
	recompute   bool
	asJSON      bool
}

func (r *rangeFlags) register(f *pflag.FlagSet) {
	f.Float64Var(&r.start, "start", 0, "First detuning (default from config)")
	f.Float64Var(&r.stop, "stop", 0, "Last detuning (default from config)")
	f.IntVar(&r.points, "points", 0, "Number of detunings (default from config)")
	f.IntVar(&r.slot, "slot", 0, "Detuning slot to sweep (default from config)")
	f.StringVar(&r.cacheKey, "cache-key", "", "Cache the result set under this key")
	f.BoolVar(&r.recompute, "recompute", false, "Ignore a cached result set and solve again")
	f.BoolVar(&r.asJSON, "json", false, "Output as JSON")
}

// apply overlays the flags the user actually set.
func (r *rangeFlags) apply(f *pflag.FlagSet, sc config.SweepConfig) (config.SweepConfig, error) {
	if f.Changed("start") {
		sc.Start = r.start
	}
	if f.Changed("stop") {
		sc.Stop = r.stop
	}
	if f.Changed("points") {
		sc.Points = r.points
	}
	if f.Changed("slot") {
		sc.Slot = r.slot
	}
	if sc.Points < 1 {
		return sc, fmt.Errorf("--points must be positive, got %d", sc.Points)
	}
	return sc, nil
}

// session holds everything one sweep-running command opened.
type session struct {
	model *bloch.Model
	scan  *sweep.Scan
	close func()
}

func (a *app) newSession(ctx context.Context, model *bloch.Model, sc config.SweepConfig, cacheKey string) (*session, error) {
	rec, stopMetrics, err := a.recorder()
	if err != nil {
		return nil, err
	}
	cat, err := a.openCatalog(ctx)
	if err != nil {
		stopMetrics()
		return nil, err
	}
	closeAll := func() {
		if err := cat.Close(); err != nil {
			a.logger.Warn("closing run catalog", "error", err)
		}
		stopMetrics()
	}
	opts := []sweep.Option{
		sweep.WithLogger(a.logger),
		sweep.WithRecorder(rec),
		sweep.WithCatalog(cat),
		sweep.WithPointTimeout(a.cfg.Sweep.PointTimeout.Duration),
	}
	if cacheKey != "" {
		c, err := a.openCache(ctx)
		if err != nil {
			closeAll()
			return nil, err
		}
		opts = append(opts, sweep.WithCache(c))
	}
	scan, err := sweep.New(model, sc.Range(), sc.Slot, opts...)
	if err != nil {
		closeAll()
		return nil, err
	}
	return &session{model: model, scan: scan, close: closeAll}, nil
}

func newSweepCmd(a *app) *cobra.Command {
	var (
		rf       rangeFlags
		tr       transition
		fromAtom bool
		rabi     float64
		gamma    float64
		parallel bool
		workers  int
		elements []string
		cutoff   float64
		tdme     float64
		field    float64
		numDens  float64
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Solve the steady state across a detuning range",
		Long: `Solve the steady-state density matrix of the configured model at every
detuning of the range, printing the populations and the summed coherence
of the chosen elements. A point whose solve fails is reported and left out;
the command then exits with status 3.

With --atom the model is built from two hyperfine levels of the configured
atom instead of the [model] section: every lower sublevel is coupled to
every upper one by the dipole coefficient for polarisation q, and the upper
manifold decays back at rate gamma.

With --tdme, --field and --density the coherence is converted to the
electric susceptibility of the medium.

Examples:
  blochsweep sweep --start -5 --stop 5 --points 51
  blochsweep sweep --parallel --workers 4 --cache-key d2-line
  blochsweep sweep --element 1,0 --cutoff 2.5 --json
  blochsweep sweep --atom --lower-f 2 --upper-f 3 --q 0 --rabi 3 --gamma 6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := rf.apply(cmd.Flags(), a.cfg.Sweep)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				workers = a.cfg.Sweep.Workers
			}
			elems, err := parseElements(elements)
			if err != nil {
				return err
			}
			var copts []sweep.CoherenceOption
			if cmd.Flags().Changed("cutoff") {
				copts = append(copts, sweep.WithDetuningCutoff(cutoff))
			}
			var calc *macro.Calculator
			if tdme != 0 {
				if !(field > 0) || !(numDens > 0) {
					return errors.New("--tdme needs a positive --field and --density")
				}
				if calc, err = macro.NewCalculator(macro.CODATA2018()); err != nil {
					return err
				}
			}

			var model *bloch.Model
			if fromAtom {
				lo, up, err := tr.resolve(a)
				if err != nil {
					return err
				}
				if model, err = bloch.FromAtomTransition(lo, up, angmom.Polarization(tr.q), rabi, gamma); err != nil {
					return err
				}
				if !cmd.Flags().Changed("slot") {
					sc.Slot = 0
				}
			} else if model, err = bloch.New(a.cfg.Model); err != nil {
				return err
			}

			ctx := cmd.Context()
			sess, err := a.newSession(ctx, model, sc, rf.cacheKey)
			if err != nil {
				return err
			}
			defer sess.close()

			initial := sess.model.Detunings()
			stop := observability.Measure(a.logger, "steady state sweep")
			var rhos []*density.Matrix
			if parallel {
				rhos, err = sess.scan.RunParallelSteadyState(ctx, initial, workers, rf.recompute, rf.cacheKey)
			} else {
				rhos, err = sess.scan.RunSteadyState(ctx, initial, rf.recompute, rf.cacheKey)
			}
			stop()
			if err != nil {
				if rhos == nil {
					return err
				}
				// The results are complete but could not be cached.
				style.PrintWarning(cmd.ErrOrStderr(), "%v", err)
			}

			rep, err := buildReport(sess.scan, elems, copts, calc, tdme, field, numDens)
			if err != nil {
				return err
			}
			if err := writeReport(cmd.OutOrStdout(), "steady state", sess.model.NumStates(), rep, rf.asJSON); err != nil {
				return err
			}
			if len(rep.Failed) > 0 {
				style.PrintWarning(cmd.ErrOrStderr(), "%d of %d points failed: %v", len(rep.Failed), len(rep.Points), rep.Failed)
				return NewSilentExit(exitIncomplete)
			}
			return nil
		},
	}
	f := cmd.Flags()
	rf.register(f)
	tr.register(f)
	f.BoolVar(&fromAtom, "atom", false, "Build the model from an atomic transition (see --lower-*, --upper-*, --q)")
	f.Float64Var(&rabi, "rabi", 1, "Rabi frequency of the --atom probe")
	f.Float64Var(&gamma, "gamma", 1, "Upper-manifold decay rate of the --atom model")
	f.BoolVar(&parallel, "parallel", false, "Spread the points over worker goroutines")
	f.IntVar(&workers, "workers", 0, "Worker count for --parallel (0 means one per CPU)")
	f.StringArrayVar(&elements, "element", []string{"1,0"}, "Density-matrix element row,col summed into the coherence (repeatable)")
	f.Float64Var(&cutoff, "cutoff", 0, "Keep an element only within this distance of its resonance")
	f.Float64Var(&tdme, "tdme", 0, "Transition dipole matrix element in e·a0")
	f.Float64Var(&field, "field", 0, "Probe field amplitude in V/m")
	f.Float64Var(&numDens, "density", 0, "Atomic number density in m^-3")
	return cmd
}

// buildReport assembles per-point output. Coherences need a complete
// sweep; an incomplete one reports populations only.
func buildReport(scan *sweep.Scan, elems []sweep.Element, copts []sweep.CoherenceOption, calc *macro.Calculator, tdme, field, numDens float64) (sweepReport, error) {
	deltas := scan.Deltas()
	rep := sweepReport{Slot: scan.Slot(), Failed: scan.Failed(), Points: make([]pointReport, len(deltas))}
	rhos := scan.Results().Rho
	for i, d := range deltas {
		rep.Points[i] = pointReport{Delta: d, Populations: populations(rhos[i])}
	}
	if len(rep.Failed) > 0 || len(elems) == 0 {
		return rep, nil
	}
	coh, err := scan.WeightedCoherence(elems, copts...)
	if err != nil {
		return sweepReport{}, err
	}
	var chi []complex128
	if calc != nil {
		chi = calc.SusceptibilitySweep(tdme, field, numDens, coh)
	}
	for i := range rep.Points {
		c := toComplex(coh[i])
		rep.Points[i].Coherence = &c
		if chi != nil {
			x := toComplex(chi[i])
			rep.Points[i].Susceptibility = &x
		}
	}
	return rep, nil
}

func writeReport(w io.Writer, title string, n int, rep sweepReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return writeTable(w, title, n, rep)
}
