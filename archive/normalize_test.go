package archive

import (
	"reflect"
	"testing"

	"github.com/dirtabase/dirtabase/digest"
	"github.com/dirtabase/dirtabase/triad"
	. "github.com/stevegt/goadapt"
)

// memResolver is a trivial in-memory Resolver for tests that need
// INCLUDE expansion without pulling in the cas package (which would
// be a needless import-cycle risk for a leaf package's tests).
type memResolver map[triad.Triad][]byte

func (m memResolver) Resolve(t triad.Triad) ([]byte, error) {
	buf, ok := m[t]
	if !ok {
		return nil, &MissingReferent{Triad: t.String()}
	}
	return buf, nil
}

func putArchive(m memResolver, a Archive) triad.Triad {
	buf, err := Encode(triad.FormatJSONArchive, a)
	Ck(err)
	d := digest.Of(buf)
	t := triad.New(triad.FormatJSONArchive, triad.CompressionPlain, d)
	m[t] = buf
	return t
}

func fileTriad(content string) triad.Triad {
	return triad.New(triad.FormatFile, triad.CompressionPlain, digest.Of([]byte(content)))
}

func TestCleanOverrideRule(t *testing.T) {
	h1, h2 := fileTriad("v1"), fileTriad("v2")
	a := Archive{Entries: []Entry{
		{Path: "a", Kind: KindFile, Triad: h1},
		{Path: "a", Kind: KindFile, Triad: h2},
	}}
	got, err := Clean(a, memResolver{})
	tassert(t, err == nil, "%v", err)
	tassert(t, len(got.Entries) == 1, "expected 1 surviving entry, got %d", len(got.Entries))
	tassert(t, got.Entries[0].Triad == h2, "later entry must win on path collision")
}

func TestCleanExpandsInclude(t *testing.T) {
	m := memResolver{}
	h := fileTriad("leaf")
	child := Archive{Entries: []Entry{{Path: "x", Kind: KindFile, Triad: h}}}
	childTriad := putArchive(m, child)

	a := Archive{Entries: []Entry{
		{Path: "sub", Kind: KindInclude, Triad: childTriad},
	}}
	got, err := Clean(a, m)
	tassert(t, err == nil, "%v", err)
	tassert(t, len(got.Entries) == 1, "expected 1 entry after expansion, got %d", len(got.Entries))
	tassert(t, got.Entries[0].Path == "sub/x", "expected prefixed path sub/x, got %s", got.Entries[0].Path)
}

func TestCleanSortsAndIsIdempotent(t *testing.T) {
	a := Archive{Entries: []Entry{
		{Path: "z", Kind: KindFile, Triad: fileTriad("z")},
		{Path: "a", Kind: KindFile, Triad: fileTriad("a")},
	}}
	once, err := Clean(a, memResolver{})
	tassert(t, err == nil, "%v", err)
	tassert(t, once.IsClean(), "Clean's output must satisfy IsClean")
	tassert(t, once.Entries[0].Path == "a" && once.Entries[1].Path == "z", "expected sorted order, got %v", once.Entries)

	twice, err := Clean(once, memResolver{})
	tassert(t, err == nil, "%v", err)
	tassert(t, len(twice.Entries) == len(once.Entries), "clean(clean(A)) changed entry count")
	for i := range once.Entries {
		tassert(t, reflect.DeepEqual(once.Entries[i], twice.Entries[i]), "clean(clean(A)) != clean(A) at index %d", i)
	}
}

func TestCleanDropsImplicitDirs(t *testing.T) {
	a := Archive{Entries: []Entry{
		{Path: "dir", Kind: KindFile, Triad: fileTriad("dir"), Attrs: Attrs{AttrType: "dir"}},
		{Path: "dir/file", Kind: KindFile, Triad: fileTriad("file"), Attrs: Attrs{AttrType: "file"}},
	}}
	got, err := Clean(a, memResolver{})
	tassert(t, err == nil, "%v", err)
	tassert(t, len(got.Entries) == 1, "expected implicit dir entry dropped, got %d entries", len(got.Entries))
	tassert(t, got.Entries[0].Path == "dir/file", "expected surviving entry dir/file, got %s", got.Entries[0].Path)
}

func TestCleanMissingReferent(t *testing.T) {
	ghost := triad.New(triad.FormatJSONArchive, triad.CompressionPlain, digest.Of([]byte("ghost")))
	a := Archive{Entries: []Entry{{Path: "sub", Kind: KindInclude, Triad: ghost}}}
	_, err := Clean(a, memResolver{})
	tassert(t, err != nil, "expected MissingReferent for an unresolved INCLUDE")
	_, ok := err.(*MissingReferent)
	tassert(t, ok, "expected *MissingReferent, got %T", err)
}

func TestWalkYieldsSortedSurvivors(t *testing.T) {
	a := Archive{Entries: []Entry{
		{Path: "b", Kind: KindFile, Triad: fileTriad("b")},
		{Path: "a", Kind: KindFile, Triad: fileTriad("a")},
	}}
	var order []string
	err := Walk(a, memResolver{}, func(e Entry) error {
		order = append(order, e.Path)
		return nil
	})
	tassert(t, err == nil, "%v", err)
	tassert(t, len(order) == 2 && order[0] == "a" && order[1] == "b", "expected sorted walk order, got %v", order)
}

func TestNormalizePathRejectsDotDot(t *testing.T) {
	_, err := NormalizePath("../escape")
	tassert(t, err != nil, "expected IllegalPath for .. overflow")
}

func TestNormalizePathCollapsesDots(t *testing.T) {
	got, err := NormalizePath("./a//b/./c")
	tassert(t, err == nil, "%v", err)
	tassert(t, got == "a/b/c", "expected a/b/c, got %s", got)
}

func TestValidateLabelName(t *testing.T) {
	tassert(t, ValidateLabelName("@root") == nil, "@root must be a valid label name")
	tassert(t, ValidateLabelName("noat") != nil, "label names must begin with '@'")
	tassert(t, ValidateLabelName("@a/b") != nil, "label names must not contain '/'")
	tassert(t, ValidateLabelName("@a#b") != nil, "label names must not contain reserved characters")
}
