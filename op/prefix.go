package op

import (
	"fmt"
	"strings"

	"github.com/dirtabase/dirtabase/archive"
	. "github.com/stevegt/goadapt"
)

// Prefix implements spec.md §4.5 "Prefix": rewrites each entry path
// by replacing leading From with To (no-op if path doesn't start with
// From). Emits one output per input. Cacheable.
//
// spec.md §9's Open Question on --prefix semantics is resolved here
// in favor of the later README's reading: "replace leading A with B,
// no-op otherwise" (not "strip A and prepend B").
type Prefix struct {
	From, To string
}

func (o *Prefix) Name() string    { return "prefix" }
func (o *Prefix) Cacheable() bool { return true }
func (o *Prefix) ParamEncoding() []byte {
	return []byte(fmt.Sprintf("prefix:%s\x00%s", o.From, o.To))
}

func (o *Prefix) Run(ctx *Context, inputs []Ref) (outputs []Ref, err error) {
	defer Return(&err)

	for _, in := range inputs {
		a, lerr := loadArchive(in)
		Ck(lerr)

		rewritten := archive.Archive{Entries: make([]archive.Entry, len(a.Entries))}
		for i, e := range a.Entries {
			if strings.HasPrefix(e.Path, o.From) {
				e.Path = o.To + strings.TrimPrefix(e.Path, o.From)
			}
			rewritten.Entries[i] = e
		}

		t, serr := storeArchive(in.Engine, rewritten)
		Ck(serr)
		outputs = append(outputs, Ref{Engine: in.Engine, Triad: t, SubPath: "."})
	}
	return outputs, nil
}
