package op

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dirtabase/dirtabase/archive"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

// Export implements spec.md §4.5 "Export": for each input reference,
// resolve its archive and materialize it under Dir, creating parent
// directories; symlinks honored per attrs.type. Empty output stream.
// Not cacheable: side effect.
type Export struct {
	Dir string
}

func (o *Export) Name() string          { return "export" }
func (o *Export) Cacheable() bool       { return false }
func (o *Export) ParamEncoding() []byte { return []byte("export:" + o.Dir) }

func (o *Export) Run(ctx *Context, inputs []Ref) (outputs []Ref, err error) {
	defer Return(&err)

	for _, in := range inputs {
		a, lerr := loadArchive(in)
		Ck(lerr)
		for _, e := range a.Entries {
			if werr := o.writeEntry(in, e); werr != nil {
				return nil, werr
			}
		}
	}
	log.WithField("dir", o.Dir).Info("export: materialized")
	return nil, nil // Export's output stream is always empty, per spec.md §4.5
}

func (o *Export) writeEntry(in Ref, e archive.Entry) (err error) {
	defer Return(&err)

	dest := filepath.Join(o.Dir, filepath.FromSlash(e.Path))
	Ck(os.MkdirAll(filepath.Dir(dest), 0755))

	switch e.Attrs[archive.AttrType] {
	case "symlink":
		_ = os.Remove(dest)
		Ck(os.Symlink(e.Attrs[archive.AttrTarget], dest))
		return nil
	default:
		buf, gerr := in.Engine.Get(e.Triad.Digest)
		Ck(gerr)
		mode := os.FileMode(0644)
		if m := e.Attrs[archive.AttrMode]; m != "" {
			if parsed, perr := strconv.ParseUint(m, 8, 32); perr == nil {
				mode = os.FileMode(parsed)
			}
		}
		Ck(os.WriteFile(dest, buf, mode))
		if mt := e.Attrs[archive.AttrMtime]; mt != "" {
			if secs, perr := strconv.ParseInt(mt, 10, 64); perr == nil {
				t := time.Unix(secs, 0)
				_ = os.Chtimes(dest, t, t)
			}
		}
		return nil
	}
}
