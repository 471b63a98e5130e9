package op

import (
	"github.com/dirtabase/dirtabase/label"
	. "github.com/stevegt/goadapt"
)

// Label implements spec.md §9's "Label" tagged operator variant,
// backing the CLI's `--label NAME` flag group: bind NAME to each
// passing reference's triad (last one wins if more than one is
// in-flight) and pass the stream through unchanged. Not cacheable:
// it mutates the engine's root.
type Label struct {
	LabelName string
	Retries   int
}

func (o *Label) Name() string          { return "label" }
func (o *Label) Cacheable() bool       { return false }
func (o *Label) ParamEncoding() []byte { return []byte("label:" + o.LabelName) }

func (o *Label) Run(ctx *Context, inputs []Ref) (outputs []Ref, err error) {
	defer Return(&err)
	for _, in := range inputs {
		serr := label.SetLabel(in.Engine, o.Retries, o.LabelName, in.Triad)
		Ck(serr)
	}
	return inputs, nil
}
