package op

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dirtabase/dirtabase/archive"
	"github.com/dirtabase/dirtabase/cas"
	"github.com/dirtabase/dirtabase/triad"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

// Import implements spec.md §4.5 "Import / Ingest": for each
// filesystem path, walk the OS directory, put every file into CAS,
// construct a clean archive, and emit one output reference per input
// path. Not cacheable: it depends on mutable FS.
type Import struct {
	Paths  []string
	Engine cas.Engine
}

func (o *Import) Name() string          { return "import" }
func (o *Import) Cacheable() bool       { return false }
func (o *Import) ParamEncoding() []byte { return []byte(fmt.Sprintf("import:%v", o.Paths)) }

func (o *Import) Run(ctx *Context, inputs []Ref) (outputs []Ref, err error) {
	defer Return(&err)

	for _, root := range o.Paths {
		a, ierr := o.importOne(root)
		Ck(ierr)
		t, serr := storeArchive(o.Engine, a)
		Ck(serr)
		log.WithField("path", root).WithField("triad", t.String()).Info("import: materialized")
		outputs = append(outputs, Ref{Engine: o.Engine, Triad: t, SubPath: "."})
	}
	return outputs, nil
}

func (o *Import) importOne(root string) (a archive.Archive, err error) {
	defer Return(&err)

	info, serr := os.Stat(root)
	Ck(serr)

	if !info.IsDir() {
		// a single file imports as one entry at its basename
		e, ferr := o.importFile(root, filepath.Base(root))
		Ck(ferr)
		return archive.Archive{Entries: []archive.Entry{e}}, nil
	}

	var entries []archive.Entry
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, werr error) error {
		if werr != nil {
			return werr
		}
		if path == root {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			return nil // directories are implicit, per spec.md §4.1 clean()
		}

		entry, eerr := o.importFile(path, rel)
		if eerr != nil {
			return eerr
		}
		entries = append(entries, entry)
		return nil
	})
	Ck(walkErr)
	return archive.Archive{Entries: entries}, nil
}

func (o *Import) importFile(path, entryPath string) (e archive.Entry, err error) {
	defer Return(&err)

	info, lerr := os.Lstat(path)
	Ck(lerr)

	attrs := archive.Attrs{
		archive.AttrMode:  fmt.Sprintf("%o", info.Mode().Perm()),
		archive.AttrMtime: fmt.Sprintf("%d", info.ModTime().Unix()),
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, terr := os.Readlink(path)
		Ck(terr)
		attrs[archive.AttrType] = "symlink"
		attrs[archive.AttrTarget] = target
		t, perr := o.Engine.Put(nil, triad.FormatFile, triad.CompressionPlain)
		Ck(perr)
		return archive.Entry{Path: entryPath, Kind: archive.KindFile, Triad: t, Attrs: attrs}, nil
	}

	attrs[archive.AttrType] = "file"
	fh, oerr := os.Open(path)
	Ck(oerr)
	defer fh.Close()

	t, perr := o.Engine.PutStream(fh, triad.FormatFile, triad.CompressionPlain)
	Ck(perr)
	return archive.Entry{Path: entryPath, Kind: archive.KindFile, Triad: t, Attrs: attrs}, nil
}
