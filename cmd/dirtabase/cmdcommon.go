package main

import (
	"github.com/dirtabase/dirtabase/cas"
	"github.com/dirtabase/dirtabase/config"
	"github.com/dirtabase/dirtabase/ref"
)

// defaultEngine resolves the process default: engine (per spec.md
// §4.4 rule 4) for subcommands that operate on a single engine outside
// of a pipeline (label, root, gc).
func defaultEngine(g *globalFlags) (cfg config.Config, e cas.Engine, err error) {
	cfg = resolveConfig(g)
	r, rerr := ref.Canon("default:///", cfg)
	if rerr != nil {
		return cfg, nil, rerr
	}
	switch r.Scheme {
	case "file":
		e, err = cas.OpenLocal(r.Fullpath)
	case "memory":
		e = cas.NewMemory()
	default:
		return cfg, nil, &ref.InvalidReference{Input: r.Scheme, Reason: "unknown scheme"}
	}
	return cfg, e, err
}
