package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dirtabase/dirtabase/cas"
)

// newGCCmd implements the SUPPLEMENTED "dirtabase gc" subcommand over
// cas.GC, the mark-and-sweep policy implementation of spec.md §4.3's
// reachability contract.
func newGCCmd(g *globalFlags) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "sweep CAS objects unreachable from the root triad",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, e, err := defaultEngine(g)
			if err != nil {
				return err
			}
			retained, removed, err := cas.GC(e, dryRun)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "retained: %d\n", len(retained))
			fmt.Fprintf(cmd.OutOrStdout(), "removed: %d\n", len(removed))
			for _, d := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), d.String())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report retained/removed without deleting anything")
	return cmd
}
