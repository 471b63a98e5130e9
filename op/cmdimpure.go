package op

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/shlex"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

// stderrTailBytes bounds the captured stderr snippet attached to a
// CommandFailed error, per spec.md §7 "captured stderr tail".
const stderrTailBytes = 4096

// CmdImpure implements spec.md §4.5 "CmdImpure": for each input,
// materialize it to a fresh scratch directory, run a shell command
// with that directory as CWD, import the resulting directory back
// into CAS, emit the new reference. Not cacheable. Fails with
// CommandFailed on non-zero exit.
type CmdImpure struct {
	Shell   string
	ScratchBase string // base dir for per-invocation scratch dirs; defaults to os.TempDir()
}

func (o *CmdImpure) Name() string          { return "cmd-impure" }
func (o *CmdImpure) Cacheable() bool       { return false }
func (o *CmdImpure) ParamEncoding() []byte { return []byte("cmd-impure:" + o.Shell) }

func (o *CmdImpure) Run(ctx *Context, inputs []Ref) (outputs []Ref, err error) {
	defer Return(&err)

	args, serr := shlex.Split(o.Shell)
	Ck(serr)
	if len(args) == 0 {
		return nil, &CommandFailed{ExitCode: 2, StderrTail: "empty --cmd-impure command"}
	}

	base := o.ScratchBase
	if base == "" {
		base = os.TempDir()
	}

	for _, in := range inputs {
		scratch := filepath.Join(base, "dirtabase-"+uuid.NewString())
		Ck(os.MkdirAll(scratch, 0755))

		export := &Export{Dir: scratch}
		_, eerr := export.Run(ctx, []Ref{in})
		Ck(eerr)

		var stderr bytes.Buffer
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = scratch
		cmd.Stderr = &stderr
		runErr := cmd.Run()
		if runErr != nil {
			exitCode := 1
			if exitErr, ok := runErr.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			}
			tail := tailBytes(stderr.Bytes(), stderrTailBytes)
			return nil, &CommandFailed{ExitCode: exitCode, StderrTail: string(tail)}
		}

		imp := &Import{Paths: []string{scratch}, Engine: in.Engine}
		results, ierr := imp.Run(ctx, nil)
		Ck(ierr)
		log.WithField("shell", o.Shell).Info("cmd-impure: ran")
		outputs = append(outputs, results...)

		_ = os.RemoveAll(scratch)
	}
	return outputs, nil
}

func tailBytes(buf []byte, n int) []byte {
	if len(buf) <= n {
		return buf
	}
	return buf[len(buf)-n:]
}
