package label

import (
	"sync"
	"testing"

	"github.com/dirtabase/dirtabase/cas"
	"github.com/dirtabase/dirtabase/digest"
	"github.com/dirtabase/dirtabase/triad"
)

func tassert(t *testing.T, cond bool, txt string, args ...interface{}) {
	t.Helper()
	if !cond {
		t.Fatalf(txt, args...)
	}
}

func sampleTriad(content string) triad.Triad {
	return triad.New(triad.FormatFile, triad.CompressionPlain, digest.Of([]byte(content)))
}

func TestSetGetLabel(t *testing.T) {
	e := cas.NewMemory()
	tr := sampleTriad("one")
	err := SetLabel(e, 8, "@widget", tr)
	tassert(t, err == nil, "%v", err)

	got, err := GetLabel(e, "@widget")
	tassert(t, err == nil, "%v", err)
	tassert(t, got == tr, "expected %v, got %v", tr, got)
}

func TestGetLabelMissing(t *testing.T) {
	e := cas.NewMemory()
	_, err := GetLabel(e, "@nope")
	tassert(t, err != nil, "expected NoSuchLabel")
	_, ok := err.(*NoSuchLabel)
	tassert(t, ok, "expected *NoSuchLabel, got %T", err)
}

func TestSetLabelPreservesOthers(t *testing.T) {
	e := cas.NewMemory()
	tassert(t, SetLabel(e, 8, "@a", sampleTriad("a")) == nil, "setup")
	tassert(t, SetLabel(e, 8, "@b", sampleTriad("b")) == nil, "setup")

	bindings, err := ListLabels(e)
	tassert(t, err == nil, "%v", err)
	tassert(t, len(bindings) == 2, "expected 2 bindings, got %d", len(bindings))
	tassert(t, bindings[0].Name == "@a" && bindings[1].Name == "@b", "expected sorted [@a, @b], got %v", bindings)
}

func TestSetLabelOverwritesPriorBinding(t *testing.T) {
	e := cas.NewMemory()
	tassert(t, SetLabel(e, 8, "@x", sampleTriad("v1")) == nil, "setup")
	tassert(t, SetLabel(e, 8, "@x", sampleTriad("v2")) == nil, "setup")

	got, err := GetLabel(e, "@x")
	tassert(t, err == nil, "%v", err)
	tassert(t, got == sampleTriad("v2"), "expected the second binding to win")

	bindings, err := ListLabels(e)
	tassert(t, err == nil, "%v", err)
	tassert(t, len(bindings) == 1, "expected exactly 1 binding for @x, got %d", len(bindings))
}

func TestDelLabel(t *testing.T) {
	e := cas.NewMemory()
	tassert(t, SetLabel(e, 8, "@y", sampleTriad("y")) == nil, "setup")
	tassert(t, DelLabel(e, 8, "@y") == nil, "delete")

	_, err := GetLabel(e, "@y")
	_, ok := err.(*NoSuchLabel)
	tassert(t, ok, "expected @y to be gone after DelLabel")
}

func TestDelLabelMissing(t *testing.T) {
	e := cas.NewMemory()
	err := DelLabel(e, 8, "@ghost")
	tassert(t, err != nil, "expected error deleting a label that was never set")
}

func TestRejectsInvalidLabelName(t *testing.T) {
	e := cas.NewMemory()
	err := SetLabel(e, 8, "not-a-label", sampleTriad("z"))
	tassert(t, err != nil, "expected rejection of a label name missing '@' prefix")
}

// TestConcurrentWritersAllLiveness exercises spec.md §8 P6: K parallel
// writers to distinct names must all eventually appear, via the
// retry-with-backoff loop in Mutate.
func TestConcurrentWritersAllLiveness(t *testing.T) {
	e := cas.NewMemory()
	const writers = 8
	var wg sync.WaitGroup

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "@k" + string(rune('a'+i))
			err := SetLabel(e, 32, name, sampleTriad(name))
			tassert(t, err == nil, "writer %d: %v", i, err)
		}(i)
	}
	wg.Wait()

	bindings, err := ListLabels(e)
	tassert(t, err == nil, "%v", err)
	tassert(t, len(bindings) == writers, "expected all %d writers' bindings present, got %d", writers, len(bindings))
}
