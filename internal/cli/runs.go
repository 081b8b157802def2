package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"blochsweep/internal/catalog"
	"blochsweep/internal/style"
)

func newRunsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List catalogued sweep runs",
		Long: `List every run recorded in the catalog, oldest first, or show one run.

Examples:
  blochsweep runs
  blochsweep runs 3f2a9c64-...   # one run in full
  blochsweep runs --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			var runs []catalog.Run
			if len(args) == 1 {
				run, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				runs = []catalog.Run{run}
			} else if runs, err = store.List(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, style.Dim.Render("no runs recorded"))
				return nil
			}
			fmt.Fprintln(out, style.Header("runs", fmt.Sprintf("(%d)", len(runs))))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "id\tkind\tpoints\tfailed\tcache\tkey\tstarted\ttook")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
					r.ID, r.Kind, humanize.Comma(int64(r.Points)), len(r.Failed),
					cacheStatus(r), orDash(r.CacheKey),
					humanize.Time(r.StartedAt), r.Duration().Round(time.Millisecond))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func cacheStatus(r catalog.Run) string {
	switch {
	case r.CacheKey == "":
		return "-"
	case r.CacheHit:
		return style.Success.Render("hit")
	default:
		return "miss"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
