// Package op implements the operator contract and the seven concrete
// operators of spec.md §4.5: a pure function (params, input_stream)
// -> output_stream, each declaring a cacheability predicate.
package op

import (
	"fmt"

	"github.com/dirtabase/dirtabase/cas"
	"github.com/dirtabase/dirtabase/config"
	"github.com/dirtabase/dirtabase/triad"
)

// State is the per-invocation state machine of spec.md §4.5:
// Pending -> Resolving(inputs) -> Executing -> {Emitted | Failed}.
type State int

const (
	Pending State = iota
	Resolving
	Executing
	Emitted
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Resolving:
		return "Resolving"
	case Executing:
		return "Executing"
	case Emitted:
		return "Emitted"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Ref is a resolved inter-stage reference: a concrete CAS engine, the
// triad it names within that engine, and the sub-path selected within
// the resolved archive (spec.md §3 Reference.path, default "."). By
// the time a Ref reaches an Operator it is already canonical: every
// inter-stage reference carries a triad, per spec.md §4.6.
type Ref struct {
	Engine  cas.Engine
	Triad   triad.Triad
	SubPath string
}

// CommandFailed reports a CmdImpure subprocess non-zero exit, per
// spec.md §4.5 and §7.
type CommandFailed struct {
	ExitCode  int
	StderrTail string
}

func (e *CommandFailed) Error() string {
	return fmt.Sprintf("command failed: exit %d: %s", e.ExitCode, e.StderrTail)
}

// Context carries the ambient state an Operator's Run needs beyond
// its own params and inputs.
type Context struct {
	Cfg config.Config
}

// Operator is the capability interface of spec.md §9's design note:
// "{cacheable?, fingerprint, run}". Concrete operators live in
// import.go, export.go, merge.go, prefix.go, filter.go, cmdimpure.go,
// label.go.
type Operator interface {
	// Name identifies the operator in fingerprints and logs.
	Name() string
	// Cacheable reports the operator's cacheability predicate,
	// per spec.md §4.5: it depends only on whether the operator's
	// effect is deterministic given resolved inputs — it does not
	// depend on the inputs themselves (those are folded into the
	// fingerprint separately).
	Cacheable() bool
	// ParamEncoding returns the canonical_param_encoding folded into
	// the fingerprint of spec.md §4.6.
	ParamEncoding() []byte
	// Run executes the operator against already-resolved inputs and
	// returns already-resolved outputs.
	Run(ctx *Context, inputs []Ref) ([]Ref, error)
}
