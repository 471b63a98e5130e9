package cas

import (
	"github.com/dirtabase/dirtabase/archive"
	"github.com/dirtabase/dirtabase/digest"
	"github.com/dirtabase/dirtabase/triad"
	. "github.com/stevegt/goadapt"
)

// GC implements the reachability contract of spec.md §4.3: an object
// is retained iff it is reachable by the closure from the root triad
// following decoded archive references. This is a policy
// implementation of that contract — SPEC_FULL.md's supplemented
// "gc" subcommand — grounded on original_source's mark-and-sweep
// engines, not a change to the contract itself.
//
// dryRun reports retained/removed without deleting anything; a real
// sweep (dryRun=false) removes every non-retained digest from e.
func GC(e Engine, dryRun bool) (retained, removed []digest.Digest, err error) {
	defer Return(&err)

	rootTriad, _, err := e.ReadRoot()
	Ck(err)

	live := map[digest.Digest]bool{rootTriad.Digest: true}
	frontier := []triad.Triad{rootTriad}

	for len(frontier) > 0 {
		t := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		if !t.IsArchive() {
			continue
		}
		buf, gerr := e.Get(t.Digest)
		if gerr != nil {
			// A dangling reference inside a stored archive is a data
			// integrity problem, not a GC decision — surface it.
			return nil, nil, gerr
		}
		a, derr := archive.Decode(t.Format, buf)
		Ck(derr)
		for _, ent := range a.Entries {
			if !live[ent.Triad.Digest] {
				live[ent.Triad.Digest] = true
				frontier = append(frontier, ent.Triad)
			}
		}
	}

	all, err := e.List()
	Ck(err)
	for _, d := range all {
		if live[d] {
			retained = append(retained, d)
		} else {
			removed = append(removed, d)
		}
	}

	if dryRun {
		return retained, removed, nil
	}

	local, ok := e.(*Local)
	if !ok {
		return retained, removed, &EngineError{Op: "gc", Cause: errGCUnsupported}
	}
	for _, d := range removed {
		if rmErr := local.remove(d); rmErr != nil {
			return retained, removed, rmErr
		}
	}
	return retained, removed, nil
}

var errGCUnsupported = gcUnsupportedError{}

type gcUnsupportedError struct{}

func (gcUnsupportedError) Error() string {
	return "GC sweep (non-dry-run) is only implemented for the local engine"
}
