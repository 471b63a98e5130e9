package op

import (
	"github.com/dirtabase/dirtabase/archive"
	. "github.com/stevegt/goadapt"
)

// Merge implements spec.md §4.5 "Merge": consumes the entire input
// stream, emits a single reference whose archive is the logical
// concatenation of all inputs in order, then clean'd. Cacheable:
// fingerprint is the ordered input digests (no params of its own).
type Merge struct{}

func (o *Merge) Name() string          { return "merge" }
func (o *Merge) Cacheable() bool       { return true }
func (o *Merge) ParamEncoding() []byte { return []byte("merge") }

func (o *Merge) Run(ctx *Context, inputs []Ref) (outputs []Ref, err error) {
	defer Return(&err)
	if len(inputs) == 0 {
		return nil, nil
	}

	engine := inputs[0].Engine
	var merged archive.Archive
	for _, in := range inputs {
		a, lerr := loadArchive(in)
		Ck(lerr)
		merged.Entries = append(merged.Entries, a.Entries...)
	}

	t, serr := storeArchive(engine, merged)
	Ck(serr)
	return []Ref{{Engine: engine, Triad: t, SubPath: "."}}, nil
}
