package archive

import (
	"sort"
	"strings"

	"github.com/dirtabase/dirtabase/triad"
	. "github.com/stevegt/goadapt"
)

// Resolver fetches the bytes named by a triad, used to expand INCLUDE
// entries while cleaning or walking an archive. CAS engines implement
// this directly (digest lookup, ignoring format/compression beyond
// using them to pick a decoder).
type Resolver interface {
	Resolve(t triad.Triad) ([]byte, error)
}

// expanded is a FILE entry produced by flattening INCLUDE splices,
// carrying the prefixed path but the original FILE triad/attrs.
type expanded struct {
	entry Entry
}

// Clean expands every INCLUDE recursively, applies the override rule
// (later entries win on path collision), drops entries whose final
// attrs mark type=dir when a descendant file survives, and re-emits
// sorted by path — the clean(A) operation of spec.md §4.1.
func Clean(a Archive, r Resolver) (out Archive, err error) {
	defer Return(&err)

	// expand's taxonomy errors are returned as-is rather than through
	// Ck, so callers can type-assert *MissingReferent / *IllegalPath.
	flat, err := expand(a, "", r, map[triad.Triad]bool{})
	if err != nil {
		return out, err
	}

	byPath := make(map[string]expanded, len(flat))
	for _, f := range flat {
		byPath[f.entry.Path] = f
	}

	finals := make([]expanded, 0, len(byPath))
	for _, f := range byPath {
		finals = append(finals, f)
	}
	sort.Slice(finals, func(i, j int) bool { return finals[i].entry.Path < finals[j].entry.Path })

	isImplicitDir := make(map[string]bool, len(finals))
	for _, f := range finals {
		if f.entry.Attrs[AttrType] != "dir" {
			continue
		}
		prefix := f.entry.Path + "/"
		for _, g := range finals {
			if g.entry.Path != f.entry.Path && strings.HasPrefix(g.entry.Path, prefix) {
				isImplicitDir[f.entry.Path] = true
				break
			}
		}
	}

	entries := make([]Entry, 0, len(finals))
	for _, f := range finals {
		if isImplicitDir[f.entry.Path] {
			continue
		}
		entries = append(entries, f.entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	return Archive{Entries: entries}, nil
}

// expand recursively flattens INCLUDE entries, prefixing descendant
// paths, preserving encounter order so later-in-stream entries
// override earlier ones when Clean collapses by path. visiting guards
// against resolving the same triad twice within one recursion branch
// (harmless for acyclic DAGs per I2, but keeps pathological inputs
// from blowing up).
func expand(a Archive, prefix string, r Resolver, visiting map[triad.Triad]bool) (out []expanded, err error) {
	defer Return(&err)

	for _, e := range a.Entries {
		path, perr := NormalizePath(joinPrefix(prefix, e.Path))
		if perr != nil && e.Kind == KindInclude && prefix == "" && (e.Path == "" || e.Path == "." || e.Path == "/") {
			// an INCLUDE at the archive root splices its entries unprefixed
			path, perr = "", nil
		}
		Ck(perr)

		switch e.Kind {
		case KindFile:
			ent := e
			ent.Path = path
			out = append(out, expanded{entry: ent})
		case KindInclude:
			if visiting[e.Triad] {
				return nil, &IllegalPath{Path: path, Reason: "cyclic INCLUDE (impossible under I2, but guarded)"}
			}
			buf, rerr := r.Resolve(e.Triad)
			if rerr != nil {
				return nil, &MissingReferent{Triad: e.Triad.String()}
			}
			sub, derr := Decode(e.Triad.Format, buf)
			Ck(derr)

			visiting[e.Triad] = true
			children, eerr := expand(sub, path, r, visiting)
			delete(visiting, e.Triad)
			if eerr != nil {
				return nil, eerr
			}

			out = append(out, children...)
		default:
			return nil, &MalformedArchive{Format: "entry", Cause: errUnknownKind(e.Kind)}
		}
	}
	return out, nil
}

func joinPrefix(prefix, path string) string {
	if prefix == "" {
		return path
	}
	return prefix + "/" + path
}

type unknownKindError string

func (e unknownKindError) Error() string { return "unknown entry kind: " + string(e) }

func errUnknownKind(k Kind) error { return unknownKindError(string(k)) }

// Walk yields clean(A)'s surviving entries in sorted path order via
// yield, stopping early if yield returns an error. It performs clean
// internally; callers needing just a slice can use Clean directly —
// Walk exists so large archives can be processed without materializing
// every surviving entry at once downstream.
func Walk(a Archive, r Resolver, yield func(Entry) error) error {
	cleaned, err := Clean(a, r)
	if err != nil {
		return err
	}
	for _, e := range cleaned.Entries {
		if err := yield(e); err != nil {
			return err
		}
	}
	return nil
}
