package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"blochsweep/internal/style"
	"blochsweep/pkg/angmom"
	"blochsweep/pkg/atom"
)

// levelRef picks one hyperfine level of the configured atom.
type levelRef struct {
	shell int
	j, f  float64
}

func (r levelRef) String() string {
	return fmt.Sprintf("shell %d J=%g F=%g", r.shell, r.j, r.f)
}

// pick returns the Zeeman sublevels of r in enumeration order.
func (r levelRef) pick(at *atom.Atom) ([]atom.Sublevel, error) {
	if r.shell < 0 || r.shell >= len(at.Shells) {
		return nil, fmt.Errorf("%s: atom has %d shells", r, len(at.Shells))
	}
	sh := at.Shells[r.shell]
	var out []atom.Sublevel
	for s := range at.Sublevels() {
		if s.N == sh.N && s.L == sh.L && s.J == r.j && s.F == r.f {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no such level", r)
	}
	return out, nil
}

// transition selects a lower and an upper hyperfine level and the probe
// polarisation between them.
type transition struct {
	lower, upper levelRef
	q            int
}

func (tr *transition) register(f *pflag.FlagSet) {
	f.IntVar(&tr.lower.shell, "lower-shell", 0, "Index of the lower shell in the atom config")
	f.Float64Var(&tr.lower.j, "lower-j", 0.5, "J of the lower level")
	f.Float64Var(&tr.lower.f, "lower-f", 2, "F of the lower level")
	f.IntVar(&tr.upper.shell, "upper-shell", 1, "Index of the upper shell in the atom config")
	f.Float64Var(&tr.upper.j, "upper-j", 1.5, "J of the upper level")
	f.Float64Var(&tr.upper.f, "upper-f", 3, "F of the upper level")
	f.IntVar(&tr.q, "q", 0, "Polarisation: -1 (sigma-), 0 (pi), 1 (sigma+)")
}

// resolve builds the configured atom and picks both levels.
func (tr *transition) resolve(a *app) (lo, up []atom.Sublevel, err error) {
	if tr.q < -1 || tr.q > 1 {
		return nil, nil, fmt.Errorf("polarisation q must be -1, 0 or 1, got %d", tr.q)
	}
	at, err := a.cfg.Atom.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("building atom: %w", err)
	}
	if lo, err = tr.lower.pick(at); err != nil {
		return nil, nil, fmt.Errorf("lower level: %w", err)
	}
	if up, err = tr.upper.pick(at); err != nil {
		return nil, nil, fmt.Errorf("upper level: %w", err)
	}
	return lo, up, nil
}

type couplingTable struct {
	Q     int         `json:"q"`
	Lower []float64   `json:"lower_mf"`
	Upper []float64   `json:"upper_mf"`
	Rows  [][]float64 `json:"coefficients"`
}

func newCouplingCmd(a *app) *cobra.Command {
	var (
		tr     transition
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "coupling",
		Short: "Tabulate dipole coupling coefficients between two hyperfine levels",
		Long: `Print the hyperfine dipole matrix elements between every Zeeman sublevel
of a lower and an upper hyperfine level, in units of the reduced J matrix
element. Rows are lower mF, columns upper mF.

Examples:
  blochsweep coupling                                  # Rb87 D2 F=2 -> F'=3, pi
  blochsweep coupling --upper-j 0.5 --upper-f 2 --q 1  # D1 sigma+`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lo, up, err := tr.resolve(a)
			if err != nil {
				return err
			}
			table := couplingTable{
				Q:    tr.q,
				Rows: angmom.CouplingMatrix(lo, up, angmom.Polarization(tr.q)),
			}
			for _, s := range lo {
				table.Lower = append(table.Lower, s.MF)
			}
			for _, s := range up {
				table.Upper = append(table.Upper, s.MF)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(table)
			}
			fmt.Fprintln(out, style.Header(fmt.Sprintf("%s -> %s", tr.lower, tr.upper), fmt.Sprintf("(q=%d)", tr.q)))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprint(tw, "mF\\mF'\t")
			for _, m := range table.Upper {
				fmt.Fprintf(tw, "%g\t", m)
			}
			fmt.Fprintln(tw)
			for i, row := range table.Rows {
				fmt.Fprintf(tw, "%g\t", table.Lower[i])
				for _, c := range row {
					fmt.Fprintf(tw, "%.4f\t", c)
				}
				fmt.Fprintln(tw)
			}
			return tw.Flush()
		},
	}
	tr.register(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
