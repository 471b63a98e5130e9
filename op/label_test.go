package op

import (
	"testing"

	"github.com/dirtabase/dirtabase/archive"
	"github.com/dirtabase/dirtabase/cas"
	"github.com/dirtabase/dirtabase/label"
)

func TestLabelBindsAndPassesThrough(t *testing.T) {
	e := cas.NewMemory()
	in := storeFor(t, e, archive.Archive{Entries: []archive.Entry{{Path: "a", Kind: archive.KindFile, Triad: fileTriad("a")}}})

	l := &Label{LabelName: "@built", Retries: 8}
	outputs, err := l.Run(nil, []Ref{in})
	tassert(t, err == nil, "%v", err)
	tassert(t, len(outputs) == 1 && outputs[0] == in, "expected Label to pass its input through unchanged")

	bound, err := label.GetLabel(e, "@built")
	tassert(t, err == nil, "%v", err)
	tassert(t, bound == in.Triad, "expected @built to be bound to the input's triad")
}

func TestLabelNotCacheable(t *testing.T) {
	tassert(t, !(&Label{}).Cacheable(), "Label must not be cacheable")
}
