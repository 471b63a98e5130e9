package op

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/dirtabase/dirtabase/cas"
	"github.com/hlubek/readercomp"
)

func tassert(t *testing.T, cond bool, txt string, args ...interface{}) {
	t.Helper()
	if !cond {
		t.Fatalf(txt, args...)
	}
}

func tmpDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "dirtabase-op")
	tassert(t, err == nil, "%v", err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// TestImportExportRoundTrip is spec.md §8 S1: mkdir t && echo hi > t/a
// && dirtabase --import t --export out -> out/a contains "hi\n"; the
// triad of the imported archive is stable across runs.
func TestImportExportRoundTrip(t *testing.T) {
	e := cas.NewMemory()
	src := tmpDir(t)
	tassert(t, ioutil.WriteFile(filepath.Join(src, "a"), []byte("hi\n"), 0644) == nil, "setup")

	imp := &Import{Paths: []string{src}, Engine: e}
	outputs1, err := imp.Run(nil, nil)
	tassert(t, err == nil, "%v", err)
	tassert(t, len(outputs1) == 1, "expected 1 output ref for 1 import path, got %d", len(outputs1))

	outputs2, err := imp.Run(nil, nil)
	tassert(t, err == nil, "%v", err)
	tassert(t, outputs1[0].Triad == outputs2[0].Triad, "import of unchanged source tree must be stable across runs")

	outDir := tmpDir(t)
	exp := &Export{Dir: outDir}
	_, err = exp.Run(nil, outputs1)
	tassert(t, err == nil, "%v", err)

	ok, err := readercomp.FilesEqual(filepath.Join(src, "a"), filepath.Join(outDir, "a"))
	tassert(t, err == nil, "%v", err)
	tassert(t, ok, "expected exported file to byte-for-byte match the imported source file")
}

func TestExportRestoresSymlinks(t *testing.T) {
	e := cas.NewMemory()
	src := tmpDir(t)
	tassert(t, ioutil.WriteFile(filepath.Join(src, "real"), []byte("target"), 0644) == nil, "setup")
	tassert(t, os.Symlink("real", filepath.Join(src, "link")) == nil, "setup")

	imp := &Import{Paths: []string{src}, Engine: e}
	outputs, err := imp.Run(nil, nil)
	tassert(t, err == nil, "%v", err)

	outDir := tmpDir(t)
	exp := &Export{Dir: outDir}
	_, err = exp.Run(nil, outputs)
	tassert(t, err == nil, "%v", err)

	target, err := os.Readlink(filepath.Join(outDir, "link"))
	tassert(t, err == nil, "%v", err)
	tassert(t, target == "real", "expected symlink target 'real', got %s", target)
}

func TestImportNotCacheable(t *testing.T) {
	imp := &Import{}
	tassert(t, !imp.Cacheable(), "Import must not be cacheable (depends on mutable FS)")
}

func TestExportNotCacheable(t *testing.T) {
	exp := &Export{}
	tassert(t, !exp.Cacheable(), "Export must not be cacheable (side effect)")
}
