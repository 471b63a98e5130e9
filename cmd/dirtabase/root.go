package main

import (
	"github.com/spf13/cobra"

	"github.com/dirtabase/dirtabase/config"
)

// globalFlags holds the root command's persistent, non-repeatable
// flags — the ones cobra/pflag are well suited for, per SPEC_FULL.md's
// Ambient Stack CLI note. The repeatable pipeline grammar lives in
// pipeline_args.go instead.
type globalFlags struct {
	db          string
	retries     int
	noCache     bool
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:           "dirtabase",
		Short:         "content-addressed object store and pipeline engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.db, "db", "", "engine URL override for the default: scheme (default: $DIRTABASE_DEFAULT)")
	root.PersistentFlags().IntVar(&g.retries, "retries", 0, "CAS root-CAS retry cap override (default: $DIRTABASE_RETRIES)")
	root.PersistentFlags().BoolVar(&g.noCache, "no-cache", false, "disable the build cache for this invocation")
	root.PersistentFlags().StringVar(&g.metricsAddr, "metrics-addr", "", "if set, serve Prometheus /metrics on this address for the lifetime of the command")

	root.AddCommand(newRunCmd(&g))
	root.AddCommand(newLabelCmd(&g))
	root.AddCommand(newRootShowCmd(&g))
	root.AddCommand(newGCCmd(&g))
	return root
}

// resolveConfig builds a config.Config from the environment, then
// applies any CLI overrides, per spec.md §6 "Environment variables".
func resolveConfig(g *globalFlags) config.Config {
	cfg := config.FromEnv()
	if g.db != "" {
		cfg.DefaultEngineURL = g.db
	}
	if g.retries > 0 {
		cfg.Retries = g.retries
	}
	if g.noCache {
		cfg.CacheEnabled = false
	}
	return cfg
}
