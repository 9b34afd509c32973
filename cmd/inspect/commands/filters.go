package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFiltersCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List the filters the inspection service understands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLABEL\tDEFAULT")
			for _, f := range root.catalog.Filters {
				def := "-"
				if f.Checked {
					def = "on"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", f.ID, f.Label, def)
			}
			return w.Flush()
		},
	}
}
