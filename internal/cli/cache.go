package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"blochsweep/internal/style"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune cached result sets",
	}
	cmd.AddCommand(newCacheLsCmd(a), newCacheRmCmd(a))
	return cmd
}

func newCacheLsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List cached result sets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			entries, err := c.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, style.Dim.Render("cache is empty"))
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "key\tkind\tpoints\tsize\tmodified")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.Key, orDash(e.Metadata["kind"]), orDash(e.Metadata["points"]),
					humanize.Bytes(uint64(max(e.Size, 0))), humanize.Time(e.Modified))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newCacheRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <key>...",
		Aliases: []string{"remove"},
		Short:   "Delete cached result sets",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, key := range args {
				existed, err := c.Delete(ctx, key)
				if err != nil {
					return err
				}
				if existed {
					style.PrintSuccess(out, "removed %s", key)
				} else {
					style.PrintWarning(out, "no cache entry %s", key)
				}
			}
			return nil
		},
	}
}
