package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"blochsweep/internal/style"
)

func newLevelsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "levels",
		Short: "List the Zeeman sublevels of the configured atom",
		Long: `Expand the configured atom through its shells, fine and hyperfine levels
down to the Zeeman sublevels and print them in enumeration order.

Examples:
  blochsweep levels
  blochsweep levels --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			at, err := a.cfg.Atom.Build()
			if err != nil {
				return fmt.Errorf("building atom: %w", err)
			}
			levels := at.SublevelList()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(levels)
			}
			fmt.Fprintln(out, style.Header(at.String(), fmt.Sprintf("(%d sublevels)", len(levels))))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tn\tL\tJ\tF\tmF\tenergy")
			for i, s := range levels {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%g\t%g\t%g\t%.6g\n", i, s.N, s.L, s.J, s.F, s.MF, s.Energy)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
