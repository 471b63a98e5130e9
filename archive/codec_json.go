package archive

import (
	"encoding/json"

	"github.com/dirtabase/dirtabase/triad"
	. "github.com/stevegt/goadapt"
)

// jsonEntry fixes field order to path, kind, triad, attrs per
// spec.md §4.1; encoding/json marshals struct fields in declaration
// order and sorts map[string]string keys, which together give the
// byte-identical-for-identical-input guarantee the spec requires.
type jsonEntry struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Triad string `json:"triad"`
	Attrs Attrs  `json:"attrs,omitempty"`
}

func encodeJSON(a Archive) (buf []byte, err error) {
	defer Return(&err)
	entries := make([]jsonEntry, len(a.Entries))
	for i, e := range a.Entries {
		entries[i] = jsonEntry{
			Path:  e.Path,
			Kind:  string(e.Kind),
			Triad: e.Triad.String(),
			Attrs: e.Attrs,
		}
	}
	buf, err = json.Marshal(entries)
	Ck(err)
	return buf, nil
}

func decodeJSON(buf []byte) (a Archive, err error) {
	var entries []jsonEntry
	if err := json.Unmarshal(buf, &entries); err != nil {
		return a, &MalformedArchive{Format: string(triad.FormatJSONArchive), Cause: err}
	}
	a.Entries = make([]Entry, len(entries))
	for i, je := range entries {
		t, terr := triad.Parse(je.Triad)
		if terr != nil {
			return a, &MalformedArchive{Format: string(triad.FormatJSONArchive), Cause: terr}
		}
		path, perr := NormalizePath(je.Path)
		if perr != nil {
			return a, perr
		}
		a.Entries[i] = Entry{
			Path:  path,
			Kind:  Kind(je.Kind),
			Triad: t,
			Attrs: je.Attrs,
		}
	}
	return a, nil
}
