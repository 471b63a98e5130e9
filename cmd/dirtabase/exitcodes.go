package main

import (
	"github.com/pkg/errors"

	"github.com/dirtabase/dirtabase/archive"
	"github.com/dirtabase/dirtabase/cas"
	"github.com/dirtabase/dirtabase/op"
	"github.com/dirtabase/dirtabase/ref"
)

// exitCodeFor maps a taxonomy error (spec.md §7) to the exit code
// table of spec.md §6.
func exitCodeFor(err error) int {
	cause := errors.Cause(err)
	switch cause.(type) {
	case *ref.InvalidReference, *malformedInvocation:
		return 2
	case *cas.RootContention:
		return 3
	case *cas.MissingReferent, *archive.MissingReferent:
		return 4
	case *op.CommandFailed, *archive.MalformedArchive, *archive.IllegalPath, *cas.EngineError:
		return 1
	default:
		return 1
	}
}
