package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"blochsweep/internal/model/bloch"
	"blochsweep/internal/observability"
	"blochsweep/internal/style"
	"blochsweep/pkg/optical"
	"blochsweep/pkg/tfunc"
)

// pulseFlags shape the coefficient applied to one field.
type pulseFlags struct {
	kind      string
	field     int
	amplitude float64
	on, off   float64
	centre    float64
	width     float64
}

func (p pulseFlags) drive() (optical.Drive, error) {
	var c tfunc.Coefficient
	switch p.kind {
	case "none":
		return optical.Drive{}, nil
	case "constant":
		c = tfunc.Constant(p.amplitude)
	case "square":
		c = tfunc.Square{On: p.on, Off: p.off, Amplitude: p.amplitude}
	case "gaussian":
		c = tfunc.Gaussian{Amplitude: p.amplitude, Width: p.width, Centre: p.centre}
	default:
		return nil, fmt.Errorf("unknown pulse %q (want none, constant, square or gaussian)", p.kind)
	}
	d := optical.Drive{p.field: c}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// sampleTimes returns steps evenly spaced times over [0, tmax].
func sampleTimes(tmax float64, steps int) ([]float64, error) {
	if !(tmax > 0) || steps < 2 {
		return nil, fmt.Errorf("need --t-max > 0 and --steps >= 2, got %v and %d", tmax, steps)
	}
	out := make([]float64, steps)
	for k := range out {
		out[k] = tmax * float64(k) / float64(steps-1)
	}
	return out, nil
}

func newEvolveCmd(a *app) *cobra.Command {
	var (
		rf       rangeFlags
		pulse    pulseFlags
		tmax     float64
		steps    int
		elements []string
	)
	cmd := &cobra.Command{
		Use:   "evolve",
		Short: "Integrate the driven master equation at every detuning",
		Long: `Evolve the configured model from its ground state over [0, t-max] at every
detuning of the range, with one field shaped by a pulse. Prints the final
populations and the summed coherence of the chosen elements.

Examples:
  blochsweep evolve --pulse square --on 0 --off 5 --t-max 10
  blochsweep evolve --pulse gaussian --centre 5 --width 2 --cache-key pulse-scan`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := rf.apply(cmd.Flags(), a.cfg.Sweep)
			if err != nil {
				return err
			}
			times, err := sampleTimes(tmax, steps)
			if err != nil {
				return err
			}
			drive, err := pulse.drive()
			if err != nil {
				return err
			}
			elems, err := parseElements(elements)
			if err != nil {
				return err
			}

			model, err := bloch.New(a.cfg.Model)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			sess, err := a.newSession(ctx, model, sc, rf.cacheKey)
			if err != nil {
				return err
			}
			defer sess.close()

			stop := observability.Measure(a.logger, "time evolution sweep")
			trajs, err := sess.scan.RunTimeEvolution(ctx, sess.model.Detunings(), times, nil, drive, rf.recompute, rf.cacheKey)
			stop()
			if err != nil {
				if trajs == nil {
					return err
				}
				style.PrintWarning(cmd.ErrOrStderr(), "%v", err)
			}

			rep, err := buildReport(sess.scan, elems, nil, nil, 0, 0, 0)
			if err != nil {
				return err
			}
			if err := writeReport(cmd.OutOrStdout(), "final state", sess.model.NumStates(), rep, rf.asJSON); err != nil {
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
	f.Float64Var(&tmax, "t-max", 10, "End of the integration window")
	f.IntVar(&steps, "steps", 201, "Number of sample times including both ends")
	f.StringVar(&pulse.kind, "pulse", "square", "Pulse shape: none, constant, square or gaussian")
	f.IntVar(&pulse.field, "field-index", 0, "Field the pulse is applied to")
	f.Float64Var(&pulse.amplitude, "amplitude", 1, "Pulse amplitude relative to the field's Rabi frequency")
	f.Float64Var(&pulse.on, "on", 0, "Square pulse start")
	f.Float64Var(&pulse.off, "off", 5, "Square pulse end")
	f.Float64Var(&pulse.centre, "centre", 5, "Gaussian pulse centre")
	f.Float64Var(&pulse.width, "width", 2, "Gaussian pulse intensity FWHM")
	f.StringArrayVar(&elements, "element", []string{"1,0"}, "Density-matrix element row,col summed into the coherence (repeatable)")
	return cmd
}
