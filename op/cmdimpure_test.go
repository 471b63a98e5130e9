package op

import (
	"io/ioutil"
	"testing"

	"github.com/dirtabase/dirtabase/cas"
)

func TestCmdImpureRunsShellAndReimports(t *testing.T) {
	e := cas.NewMemory()
	src := tmpDir(t)
	tassert(t, ioutil.WriteFile(src+"/a", []byte("hi\n"), 0644) == nil, "setup")

	imp := &Import{Paths: []string{src}, Engine: e}
	inputs, err := imp.Run(nil, nil)
	tassert(t, err == nil, "%v", err)

	scratch := tmpDir(t)
	c := &CmdImpure{Shell: "sh -c 'echo there >> a; echo new > b'", ScratchBase: scratch}
	outputs, err := c.Run(nil, inputs)
	tassert(t, err == nil, "%v", err)
	tassert(t, len(outputs) == 1, "expected 1 output, got %d", len(outputs))

	out, err := loadArchive(outputs[0])
	tassert(t, err == nil, "%v", err)
	paths := map[string]bool{}
	for _, e := range out.Entries {
		paths[e.Path] = true
	}
	tassert(t, paths["a"] && paths["b"], "expected both the original and the new file in the re-imported archive, got %v", paths)
}

func TestCmdImpureFailureSurfacesExitCodeAndStderr(t *testing.T) {
	e := cas.NewMemory()
	src := tmpDir(t)
	tassert(t, ioutil.WriteFile(src+"/a", []byte("x"), 0644) == nil, "setup")
	imp := &Import{Paths: []string{src}, Engine: e}
	inputs, err := imp.Run(nil, nil)
	tassert(t, err == nil, "%v", err)

	c := &CmdImpure{Shell: "sh -c 'echo boom 1>&2; exit 3'", ScratchBase: tmpDir(t)}
	_, err = c.Run(nil, inputs)
	tassert(t, err != nil, "expected CommandFailed on non-zero exit")
	cf, ok := err.(*CommandFailed)
	tassert(t, ok, "expected *CommandFailed, got %T", err)
	tassert(t, cf.ExitCode == 3, "expected exit code 3, got %d", cf.ExitCode)
	tassert(t, cf.StderrTail != "", "expected a captured stderr tail")
}

func TestCmdImpureNotCacheable(t *testing.T) {
	tassert(t, !(&CmdImpure{}).Cacheable(), "CmdImpure must not be cacheable")
}
