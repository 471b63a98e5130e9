package op

import (
	"strings"

	"github.com/dirtabase/dirtabase/archive"
	"github.com/dirtabase/dirtabase/cas"
	"github.com/dirtabase/dirtabase/triad"
	. "github.com/stevegt/goadapt"
)

// loadArchive decodes r's triad as an archive (cleaning INCLUDE
// splices via r.Engine) and, if r.SubPath is not ".", narrows to the
// subtree rooted at that sub-path, per spec.md §3 Reference.path.
func loadArchive(r Ref) (a archive.Archive, err error) {
	defer Return(&err)

	if !r.Triad.IsArchive() {
		return a, &archive.MalformedArchive{Format: string(r.Triad.Format), Cause: errNotArchive}
	}
	buf, gerr := r.Engine.Get(r.Triad.Digest)
	Ck(gerr)
	raw, derr := archive.Decode(r.Triad.Format, buf)
	Ck(derr)
	cleaned, cerr := archive.Clean(raw, r.Engine)
	Ck(cerr)

	if r.SubPath == "" || r.SubPath == "." {
		return cleaned, nil
	}
	prefix := strings.TrimSuffix(r.SubPath, "/") + "/"
	var out []archive.Entry
	for _, e := range cleaned.Entries {
		if strings.HasPrefix(e.Path, prefix) {
			e.Path = strings.TrimPrefix(e.Path, prefix)
			out = append(out, e)
		}
	}
	return archive.Archive{Entries: out}, nil
}

var errNotArchive = notArchiveError{}

type notArchiveError struct{}

func (notArchiveError) Error() string { return "triad does not name an archive" }

// storeArchive cleans and encodes a under json_plain (the engine's
// canonical archive format, matching the teacher's preference for
// plain-text wire formats) and puts it into e.
func storeArchive(e cas.Engine, a archive.Archive) (t triad.Triad, err error) {
	defer Return(&err)
	cleaned, cerr := archive.Clean(a, e)
	Ck(cerr)
	buf, eerr := archive.Encode(triad.FormatJSONArchive, cleaned)
	Ck(eerr)
	t, err = e.Put(buf, triad.FormatJSONArchive, triad.CompressionPlain)
	Ck(err)
	return t, nil
}
