package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newRootShowCmd implements the SUPPLEMENTED "dirtabase root show"
// wrapper: read_root() once, print the current rootdata triad.
func newRootShowCmd(g *globalFlags) *cobra.Command {
	parent := &cobra.Command{Use: "root", Short: "inspect the engine's rootdata pointer"}
	parent.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "print the current rootdata triad",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, e, err := defaultEngine(g)
			if err != nil {
				return err
			}
			t, _, err := e.ReadRoot()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		},
	})
	return parent
}
