// Package archive implements the Archive data model of spec.md §3:
// an ordered sequence of Entries describing an immutable directory
// tree, plus its codec (§4.1) and normalization/traversal rules.
package archive

import (
	"sort"

	"github.com/dirtabase/dirtabase/triad"
)

// Kind distinguishes an inlined file entry from a spliced include.
type Kind string

const (
	// KindFile inlines a file at Entry.Path whose bytes are the CAS
	// object named by Entry.Triad.
	KindFile Kind = "FILE"
	// KindInclude logically splices another archive's entries, each
	// of their paths prefixed with Entry.Path.
	KindInclude Kind = "INCLUDE"
)

// Recognized Attrs keys, per spec.md §3.
const (
	AttrMode   = "mode"   // octal digits
	AttrMtime  = "mtime"  // integer seconds
	AttrType   = "type"   // file|dir|symlink
	AttrTarget = "target" // symlink target
)

// Attrs is a mapping of small string keys to string values.
type Attrs map[string]string

// Clone returns an independent copy of a.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// SortedKeys returns a's keys in sorted order, used by codecs that
// must emit attrs deterministically.
func (a Attrs) SortedKeys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entry is one element of an Archive's entry sequence, per spec.md §3.
type Entry struct {
	Path  string
	Kind  Kind
	Triad triad.Triad
	Attrs Attrs
}

// Archive is an ordered sequence of Entries, per spec.md §3.
type Archive struct {
	Entries []Entry
}

// Empty returns the archive with zero entries — the canonical
// initial rootdata value per spec.md §9 Open Question 2.
func Empty() Archive {
	return Archive{}
}

// IsClean reports whether a satisfies spec.md §3's "clean" predicate:
// no INCLUDE entries, every path unique, entries sorted by path.
func (a Archive) IsClean() bool {
	prev := ""
	seen := make(map[string]bool, len(a.Entries))
	for i, e := range a.Entries {
		if e.Kind == KindInclude {
			return false
		}
		if seen[e.Path] {
			return false
		}
		seen[e.Path] = true
		if i > 0 && e.Path < prev {
			return false
		}
		prev = e.Path
	}
	return true
}
