package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dirtabase/dirtabase/pipeline"
)

// newRunCmd builds the "run" subcommand. It disables cobra's own flag
// parsing for this subcommand's argv, per SPEC_FULL.md's Ambient
// Stack CLI note: the pipeline grammar of spec.md §6 is an
// arbitrarily long, arbitrarily ordered sequence of repeatable
// heterogeneous flag groups that pflag cannot express, so it is
// walked by the hand-written scanner in pipeline_args.go instead.
func newRunCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:                "run -- [pipeline flags...]",
		Short:              "evaluate a pipeline of operators left-to-right",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			args = stripGlobalFlags(args, g)

			cfg := resolveConfig(g)
			driver := pipeline.NewDriver(cfg)
			if m := maybeServeMetrics(g); m != nil {
				driver.WithMetrics(m)
			}

			stages, err := buildStages(args, cfg, driver.Engines)
			if err != nil {
				return err
			}

			outputs, err := driver.Run(stages)
			if err != nil {
				return err
			}
			for _, out := range outputs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", out.Triad.String(), out.SubPath)
			}
			return nil
		},
	}
}

// stripGlobalFlags removes the root command's persistent flags
// (--db, --retries, --no-cache, --metrics-addr) from run's raw argv, since
// DisableFlagParsing means cobra never got a chance to. Those flags
// are non-repeatable and never interleave with the pipeline grammar.
func stripGlobalFlags(args []string, g *globalFlags) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--db":
			if i+1 < len(args) {
				g.db = args[i+1]
				i++
			}
		case "--retries":
			if i+1 < len(args) {
				fmt.Sscanf(args[i+1], "%d", &g.retries)
				i++
			}
		case "--no-cache":
			g.noCache = true
		case "--metrics-addr":
			if i+1 < len(args) {
				g.metricsAddr = args[i+1]
				i++
			}
		default:
			out = append(out, args[i])
		}
	}
	return out
}
