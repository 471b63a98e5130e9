package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dirtabase/dirtabase/label"
	"github.com/dirtabase/dirtabase/triad"
)

// newLabelCmd implements the SUPPLEMENTED "dirtabase label ls|get|set|del"
// thin CLI wrappers over the label package's already-required
// operations (spec.md §4.3), matching original_source/src/cli.rs's
// surface.
func newLabelCmd(g *globalFlags) *cobra.Command {
	parent := &cobra.Command{Use: "label", Short: "inspect and mutate the engine's label set"}

	parent.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "list all labels, sorted by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, e, err := defaultEngine(g)
			if err != nil {
				return err
			}
			bindings, err := label.ListLabels(e)
			if err != nil {
				return err
			}
			for _, b := range bindings {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", b.Name, b.Triad.String())
			}
			return nil
		},
	})

	parent.AddCommand(&cobra.Command{
		Use:   "get NAME",
		Short: "print the triad bound to NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, e, err := defaultEngine(g)
			if err != nil {
				return err
			}
			t, err := label.GetLabel(e, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		},
	})

	parent.AddCommand(&cobra.Command{
		Use:   "set NAME TRIAD",
		Short: "bind NAME to TRIAD",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, e, err := defaultEngine(g)
			if err != nil {
				return err
			}
			t, terr := triad.Parse(args[1])
			if terr != nil {
				return terr
			}
			return label.SetLabel(e, cfg.Retries, args[0], t)
		},
	})

	parent.AddCommand(&cobra.Command{
		Use:   "del NAME",
		Short: "remove the binding for NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, e, err := defaultEngine(g)
			if err != nil {
				return err
			}
			return label.DelLabel(e, cfg.Retries, args[0])
		},
	})

	return parent
}
