package op

import (
	"regexp"

	"github.com/dirtabase/dirtabase/archive"
	. "github.com/stevegt/goadapt"
)

// Filter implements spec.md §4.5 "Filter": emits, per input archive,
// a new archive containing only entries whose path matches Regex.
// Cacheable.
type Filter struct {
	Regex string

	compiled *regexp.Regexp
}

func (o *Filter) Name() string          { return "filter" }
func (o *Filter) Cacheable() bool       { return true }
func (o *Filter) ParamEncoding() []byte { return []byte("filter:" + o.Regex) }

func (o *Filter) Run(ctx *Context, inputs []Ref) (outputs []Ref, err error) {
	defer Return(&err)

	if o.compiled == nil {
		re, rerr := regexp.Compile(o.Regex)
		Ck(rerr)
		o.compiled = re
	}

	for _, in := range inputs {
		a, lerr := loadArchive(in)
		Ck(lerr)

		var kept []archive.Entry
		for _, e := range a.Entries {
			if o.compiled.MatchString(e.Path) {
				kept = append(kept, e)
			}
		}

		t, serr := storeArchive(in.Engine, archive.Archive{Entries: kept})
		Ck(serr)
		outputs = append(outputs, Ref{Engine: in.Engine, Triad: t, SubPath: "."})
	}
	return outputs, nil
}
