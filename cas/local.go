package cas

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/renameio"
	"github.com/google/uuid"
	resticRabin "github.com/restic/chunker"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/dirtabase/dirtabase/digest"
	"github.com/dirtabase/dirtabase/triad"
	. "github.com/stevegt/goadapt"
)

// localChunkMinSize/MaxSize bound the restic rolling-hash chunks used
// by PutStream to read large Import payloads without holding the
// whole file in memory, matching the teacher's db/chunker.go defaults.
const (
	localChunkMinSize = 512 * 1024
	localChunkMaxSize = 8 * 1024 * 1024
)

// Local is the reference CAS engine of spec.md §4.2, laid out on disk
// exactly as specified:
//
//	<root>/
//	  root                 # small file holding the triad text
//	  cas/<hex-digest>      # one file per object, contents = raw bytes
//	  tmp/<uuid>            # staging for atomic writes
type Local struct {
	Dir  string
	Poly resticRabin.Pol

	rootMu sync.Mutex // serializes this process's own root writers; cas_root remains correct across processes via flock
}

// OpenLocal opens (creating if absent) a Local engine rooted at dir.
func OpenLocal(dir string) (e *Local, err error) {
	defer Return(&err)

	for _, sub := range []string{"", "cas", "tmp"} {
		err = os.MkdirAll(filepath.Join(dir, sub), 0755)
		Ck(err)
	}

	poly, perr := resticRabin.RandomPolynomial()
	Ck(perr)
	e = &Local{Dir: dir, Poly: poly}

	rootPath := filepath.Join(dir, "root")
	if _, statErr := os.Stat(rootPath); os.IsNotExist(statErr) {
		// Stage the empty label archive's bytes so the freshly-written
		// root triad resolves, per spec.md §3 Lifecycle: "Rootdata is
		// created at engine init with an empty label archive", and
		// §9's open question nailing the initial bytes to json_plain
		// of "[]".
		emptyTriad, err := e.Put([]byte("[]"), triad.FormatJSONArchive, triad.CompressionPlain)
		Ck(err)
		line := []byte(emptyTriad.String() + "\n")
		err = renameio.WriteFile(rootPath, line, 0644)
		Ck(err)
	}

	return e, nil
}

func (e *Local) casPath(d digest.Digest) string {
	return filepath.Join(e.Dir, "cas", d.String())
}

// Put implements Engine.Put.
func (e *Local) Put(buf []byte, format triad.Format, compression triad.Compression) (t triad.Triad, err error) {
	defer Return(&err)

	d := digest.Of(buf)
	t = triad.New(format, compression, d)

	path := e.casPath(d)
	if _, statErr := os.Stat(path); statErr == nil {
		// re-put of identical bytes is a no-op, per spec.md §4.2.
		return t, nil
	}

	tmpPath := filepath.Join(e.Dir, "tmp", uuid.NewString())
	err = os.WriteFile(tmpPath, buf, 0644)
	Ck(err)
	err = os.Chmod(tmpPath, 0444)
	Ck(err)
	err = os.Rename(tmpPath, path)
	Ck(err)
	log.WithField("digest", d.String()).Debug("cas: put")
	return t, nil
}

// PutStream implements Engine.PutStream, chunking the reader through
// a content-defined rolling hash (restic's chunker, as the teacher's
// db/chunker.go wraps it) purely to bound staging-buffer memory; the
// resulting triad's digest is still sha256 of the whole stream, so
// this has no effect on identity (I1).
func (e *Local) PutStream(r io.Reader, format triad.Format, compression triad.Compression) (t triad.Triad, err error) {
	defer Return(&err)

	tmpPath := filepath.Join(e.Dir, "tmp", uuid.NewString())
	fh, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	Ck(err)
	defer fh.Close()

	h := digest.NewWriter()
	w := io.MultiWriter(fh, h)

	chunker := resticRabin.NewWithBoundaries(r, e.Poly, localChunkMinSize, localChunkMaxSize)
	buf := make([]byte, localChunkMaxSize+1)
	for {
		chunk, cerr := chunker.Next(buf)
		if cerr == io.EOF {
			break
		}
		Ck(cerr)
		_, werr := w.Write(chunk.Data)
		Ck(werr)
	}
	Ck(fh.Close())

	d := h.Digest()
	t = triad.New(format, compression, d)
	path := e.casPath(d)
	if _, statErr := os.Stat(path); statErr == nil {
		os.Remove(tmpPath)
		return t, nil
	}
	err = os.Chmod(tmpPath, 0444)
	Ck(err)
	err = os.Rename(tmpPath, path)
	Ck(err)
	return t, nil
}

// Get implements Engine.Get.
func (e *Local) Get(d digest.Digest) (buf []byte, err error) {
	buf, err = os.ReadFile(e.casPath(d))
	if os.IsNotExist(err) {
		return nil, &MissingReferent{Digest: d.String()}
	}
	if err != nil {
		return nil, &EngineError{Op: "get", Cause: err}
	}
	return buf, nil
}

// Has implements Engine.Has.
func (e *Local) Has(d digest.Digest) (bool, error) {
	_, err := os.Stat(e.casPath(d))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, &EngineError{Op: "has", Cause: err}
}

// Resolve implements archive.Resolver.
func (e *Local) Resolve(t triad.Triad) ([]byte, error) {
	return e.Get(t.Digest)
}

// List implements Engine.List.
func (e *Local) List() (digests []digest.Digest, err error) {
	defer Return(&err)
	entries, err := os.ReadDir(filepath.Join(e.Dir, "cas"))
	Ck(err)
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		d, derr := digest.Parse(ent.Name())
		if derr != nil {
			continue
		}
		digests = append(digests, d)
	}
	return digests, nil
}

// remove unlinks a CAS object file, used only by GC's non-dry-run
// sweep. Objects are otherwise immutable once written (spec.md §5).
func (e *Local) remove(d digest.Digest) error {
	err := os.Remove(e.casPath(d))
	if err != nil && !os.IsNotExist(err) {
		return &EngineError{Op: "gc-remove", Cause: err}
	}
	return nil
}

func (e *Local) rootFilePath() string { return filepath.Join(e.Dir, "root") }
func (e *Local) lockFilePath() string { return filepath.Join(e.Dir, "root.lock") }

type localToken struct{ text string }

func (t localToken) Equal(other Token) bool {
	o, ok := other.(localToken)
	return ok && o.text == t.text
}

// ReadRoot implements Engine.ReadRoot: the "root" file is exactly one
// line, the triad text followed by "\n", per spec.md §6.
func (e *Local) ReadRoot() (t triad.Triad, tok Token, err error) {
	defer Return(&err)
	buf, err := os.ReadFile(e.rootFilePath())
	Ck(err)
	line := strings.TrimSpace(string(buf))
	t, err = triad.Parse(line)
	Ck(err)
	return t, localToken{text: line}, nil
}

// CASRoot implements Engine.CASRoot using an flock-guarded
// read-compare-rename-into-place swap on the root file, per spec.md
// §4.2's "fd-level rename swap" option.
func (e *Local) CASRoot(token Token, newTriad triad.Triad) (ok bool, err error) {
	defer Return(&err)

	e.rootMu.Lock()
	defer e.rootMu.Unlock()

	lockFh, err := os.OpenFile(e.lockFilePath(), os.O_CREATE|os.O_RDWR, 0644)
	Ck(err)
	defer lockFh.Close()

	err = unix.Flock(int(lockFh.Fd()), unix.LOCK_EX)
	Ck(err)
	defer unix.Flock(int(lockFh.Fd()), unix.LOCK_UN)

	buf, err := os.ReadFile(e.rootFilePath())
	Ck(err)
	current := strings.TrimSpace(string(buf))

	want, wok := token.(localToken)
	if !wok || current != want.text {
		return false, nil
	}

	line := fmt.Sprintf("%s\n", newTriad.String())
	err = renameio.WriteFile(e.rootFilePath(), []byte(line), 0644)
	Ck(err)
	return true, nil
}
