package main

import (
	"fmt"
	"strings"

	"github.com/dirtabase/dirtabase/config"
	"github.com/dirtabase/dirtabase/op"
	"github.com/dirtabase/dirtabase/pipeline"
	"github.com/dirtabase/dirtabase/ref"
)

// malformedInvocation reports a pipeline argument vector that doesn't
// parse under the grammar of spec.md §6 — wrong arity, unknown flag,
// or a flag value where another flag was expected. Maps to exit code
// 2, same as ref.InvalidReference.
type malformedInvocation struct {
	Reason string
}

func (e *malformedInvocation) Error() string { return "malformed invocation: " + e.Reason }

// isFlag reports whether s looks like one of run's pipeline flags
// rather than a flag's value, so variadic flags (--import PATH...)
// know where their argument run ends.
func isFlag(s string) bool { return strings.HasPrefix(s, "--") }

// buildStages walks args (run's own argv, with cobra's flag parsing
// disabled for this subcommand per SPEC_FULL.md's Ambient Stack CLI
// note) left to right, translating each flag group of spec.md §6 into
// an op.Operator in sequence. Unlike cobra/pflag, this scanner
// preserves interleaving order across distinct flag names, which the
// pipeline grammar depends on.
func buildStages(args []string, cfg config.Config, engines *pipeline.EngineSet) (stages []op.Operator, err error) {
	defaultRef, rerr := ref.Canon("default:///", cfg)
	if rerr != nil {
		return nil, rerr
	}
	engine, eerr := engines.Resolve(defaultRef)
	if eerr != nil {
		return nil, eerr
	}

	i := 0
	for i < len(args) {
		flag := args[i]
		i++
		switch flag {
		case "--import":
			var paths []string
			for i < len(args) && !isFlag(args[i]) {
				paths = append(paths, args[i])
				i++
			}
			if len(paths) == 0 {
				return nil, &malformedInvocation{Reason: "--import requires at least one path"}
			}
			stages = append(stages, &op.Import{Paths: paths, Engine: engine})

		case "--export":
			dir, n, terr := takeN(args, i, 1, "--export")
			if terr != nil {
				return nil, terr
			}
			i += n
			stages = append(stages, &op.Export{Dir: dir[0]})

		case "--merge":
			stages = append(stages, &op.Merge{})

		case "--prefix":
			vals, n, terr := takeN(args, i, 2, "--prefix")
			if terr != nil {
				return nil, terr
			}
			i += n
			stages = append(stages, &op.Prefix{From: vals[0], To: vals[1]})

		case "--filter":
			vals, n, terr := takeN(args, i, 1, "--filter")
			if terr != nil {
				return nil, terr
			}
			i += n
			stages = append(stages, &op.Filter{Regex: vals[0]})

		case "--cmd-impure":
			vals, n, terr := takeN(args, i, 1, "--cmd-impure")
			if terr != nil {
				return nil, terr
			}
			i += n
			stages = append(stages, &op.CmdImpure{Shell: vals[0]})

		case "--label":
			vals, n, terr := takeN(args, i, 1, "--label")
			if terr != nil {
				return nil, terr
			}
			i += n
			stages = append(stages, &op.Label{LabelName: vals[0], Retries: cfg.Retries})

		default:
			return nil, &malformedInvocation{Reason: fmt.Sprintf("unrecognized pipeline flag %q", flag)}
		}
	}
	return stages, nil
}

// takeN consumes exactly n non-flag values starting at args[i],
// returning how many args were consumed.
func takeN(args []string, i, n int, flag string) (vals []string, consumed int, err error) {
	for consumed = 0; consumed < n; consumed++ {
		if i+consumed >= len(args) || isFlag(args[i+consumed]) {
			return nil, 0, &malformedInvocation{Reason: fmt.Sprintf("%s requires %d argument(s)", flag, n)}
		}
		vals = append(vals, args[i+consumed])
	}
	return vals, consumed, nil
}
