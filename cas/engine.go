// Package cas implements the content-addressed storage engine
// contract of spec.md §4.2: a byte store plus a single mutable root
// slot, guarded by optimistic compare-and-swap.
package cas

import (
	"io"

	"github.com/dirtabase/dirtabase/digest"
	"github.com/dirtabase/dirtabase/triad"
)

// Token is the opaque pre-image captured by ReadRoot, presented back
// to CASRoot to detect whether the root slot changed underneath the
// caller. Per spec.md §4.2 it only needs to "capture the pre-image
// for CAS" — engines are free to make it as simple as the observed
// triad's digest.
type Token interface {
	// Equal reports whether two tokens observed the same root state.
	Equal(Token) bool
}

// Engine is the CAS storage engine contract of spec.md §4.2.
// Implementations must give every process-visible object immutability
// once put (I1), and must make the root slot the only mutable shared
// resource, guarded exclusively by CASRoot (spec.md §5).
type Engine interface {
	// Put stores bytes under sha256(bytes), idempotently, and returns
	// the triad with the engine-chosen format/compression labels.
	Put(buf []byte, format triad.Format, compression triad.Compression) (triad.Triad, error)
	// PutStream is the streaming form of Put, for memory-bounded
	// ingestion of large buffers (spec.md §4.5 Import).
	PutStream(r io.Reader, format triad.Format, compression triad.Compression) (triad.Triad, error)
	// Get retrieves bytes by digest, or MissingReferent.
	Get(d digest.Digest) ([]byte, error)
	// Has reports whether digest is present without retrieving bytes.
	Has(d digest.Digest) (bool, error)
	// ReadRoot returns the current rootdata triad and a token
	// capturing the pre-image for CAS.
	ReadRoot() (triad.Triad, Token, error)
	// CASRoot atomically replaces the root iff token still matches
	// the current state, returning Conflict (false, nil) otherwise.
	CASRoot(token Token, newTriad triad.Triad) (ok bool, err error)
	// List iterates every digest present in the engine, for GC.
	List() ([]digest.Digest, error)
	// Resolve adapts Get to archive.Resolver: fetch bytes by triad,
	// ignoring the format/compression beyond digest lookup.
	Resolve(t triad.Triad) ([]byte, error)
}
