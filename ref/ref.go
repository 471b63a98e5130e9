// Package ref implements the reference grammar and canonicalization
// rules of spec.md §4.4: scheme://fullpath(#ref)?(:path)?
package ref

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dirtabase/dirtabase/config"
	"github.com/dirtabase/dirtabase/triad"
	. "github.com/stevegt/goadapt"
)

// RootLabel is the reserved label name substituted when a reference
// omits its ref component, per spec.md §4.4 rule 2.
const RootLabel = "@root"

// InvalidReference reports an unparseable URL or unknown scheme,
// detected at pipeline construction per spec.md §7.
type InvalidReference struct {
	Input  string
	Reason string
}

func (e *InvalidReference) Error() string {
	return fmt.Sprintf("invalid reference %q: %s", e.Input, e.Reason)
}

// Ref is the parsed, canonical form of a reference: scheme, fullpath,
// ref (either a label name or a triad), and sub-path.
type Ref struct {
	Scheme   string
	Fullpath string
	Label    string      // set iff the ref component is "@name"
	Triad    triad.Triad // set iff the ref component is a triad
	Path     string
}

// IsLabelRef reports whether the ref component names a label rather
// than a triad directly.
func (r Ref) IsLabelRef() bool { return r.Label != "" }

// String renders r back into "scheme://fullpath#ref:path" form.
func (r Ref) String() string {
	var refPart string
	if r.IsLabelRef() {
		refPart = r.Label
	} else {
		refPart = r.Triad.String()
	}
	return fmt.Sprintf("%s://%s#%s:%s", r.Scheme, r.Fullpath, refPart, r.Path)
}

// Canon parses and canonicalizes input under the rules of spec.md
// §4.4, applied in order: bare shorthand expansion, ref defaulting to
// @root, path defaulting to ".", and scheme "default" substitution
// from cfg. Canon is idempotent (P7): canonicalizing an already
// canonical reference's String() form returns an equal Ref.
func Canon(input string, cfg config.Config) (r Ref, err error) {
	defer Return(&err)

	input = expandShorthand(input)

	scheme, fullpath, refPart, pathPart, perr := split(input)
	if perr != nil {
		return r, perr
	}

	if refPart == "" {
		refPart = RootLabel
	}
	if pathPart == "" {
		pathPart = "."
	}

	if scheme == "default" {
		defScheme, defFullpath, _, _, derr := split(expandShorthand(cfg.DefaultEngineURL))
		Ck(derr)
		scheme, fullpath = defScheme, defFullpath
	}

	r = Ref{Scheme: scheme, Fullpath: fullpath, Path: pathPart}
	if strings.HasPrefix(refPart, "@") {
		if verr := validateLabel(refPart); verr != nil {
			return r, verr
		}
		r.Label = refPart
	} else {
		t, terr := triad.Parse(refPart)
		if terr != nil {
			return r, &InvalidReference{Input: input, Reason: "ref is neither @label nor triad: " + terr.Error()}
		}
		r.Triad = t
	}
	return r, nil
}

// expandShorthand implements spec.md §4.4 rule 1: inputs with no
// "://" are shorthand for a default-engine or filesystem reference.
func expandShorthand(input string) string {
	if strings.Contains(input, "://") {
		return input
	}
	switch {
	case strings.HasPrefix(input, "#"):
		return "default:///" + input
	case strings.HasPrefix(input, "@"):
		return "default:///#" + input
	default:
		abs, err := filepath.Abs(input)
		if err != nil {
			abs = input
		}
		dir, base := filepath.Split(abs)
		dir = strings.TrimSuffix(dir, "/")
		return fmt.Sprintf("file://%s/#:%s", dir, base)
	}
}

// split parses "scheme://fullpath(#ref)?(:path)?" into its four parts
// without defaulting — defaulting is Canon's job so split stays pure
// grammar.
func split(input string) (scheme, fullpath, refPart, pathPart string, err error) {
	schemeSep := strings.Index(input, "://")
	if schemeSep < 0 {
		return "", "", "", "", &InvalidReference{Input: input, Reason: "missing '://'"}
	}
	scheme = input[:schemeSep]
	rest := input[schemeSep+3:]

	// fullpath runs until '#' (ref) or the ':' that begins a path
	// suffix; fullpath may itself legally contain ':' as part of
	// "?param=value&...", so we look for '#' first, and otherwise the
	// LAST ':' in rest (a ':' path separator always trails any query
	// string, which is the only place '://' or bare ':' can recur).
	hashIdx := strings.Index(rest, "#")
	if hashIdx >= 0 {
		fullpath = rest[:hashIdx]
		remainder := rest[hashIdx+1:]
		colonIdx := strings.Index(remainder, ":")
		if colonIdx >= 0 {
			refPart = remainder[:colonIdx]
			pathPart = remainder[colonIdx+1:]
		} else {
			refPart = remainder
		}
		return scheme, fullpath, refPart, pathPart, nil
	}

	colonIdx := strings.LastIndex(rest, ":")
	if colonIdx >= 0 {
		fullpath = rest[:colonIdx]
		pathPart = rest[colonIdx+1:]
	} else {
		fullpath = rest
	}
	return scheme, fullpath, refPart, pathPart, nil
}

func validateLabel(label string) error {
	if label == RootLabel {
		return nil
	}
	if strings.Contains(label, "/") || strings.ContainsAny(label, ":#?&") {
		return &InvalidReference{Input: label, Reason: "label contains reserved character"}
	}
	return nil
}
