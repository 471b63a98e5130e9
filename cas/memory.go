package cas

import (
	"io"
	"sync"

	"github.com/dirtabase/dirtabase/digest"
	"github.com/dirtabase/dirtabase/triad"
)

// Memory is the in-memory CAS engine of spec.md §4.2: two maps
// (digest -> bytes, and a single root cell with a version counter),
// promoted from "used for tests" to a first-class engine per
// SPEC_FULL.md (reachable from the CLI as db=memory://), grounded on
// original_source/engines/src/memory.rs.
type Memory struct {
	mu      sync.Mutex
	objects map[digest.Digest][]byte
	root    triad.Triad
	version uint64
}

// NewMemory returns a Memory engine whose root starts at the empty
// label archive, matching Local's init behavior.
func NewMemory() *Memory {
	m := &Memory{objects: make(map[digest.Digest][]byte)}
	t, _ := m.Put([]byte("[]"), triad.FormatJSONArchive, triad.CompressionPlain)
	m.root = t
	m.version = 1
	return m
}

func (m *Memory) Put(buf []byte, format triad.Format, compression triad.Compression) (triad.Triad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := digest.Of(buf)
	t := triad.New(format, compression, d)
	if _, ok := m.objects[d]; !ok {
		cp := make([]byte, len(buf))
		copy(cp, buf)
		m.objects[d] = cp
	}
	return t, nil
}

func (m *Memory) PutStream(r io.Reader, format triad.Format, compression triad.Compression) (triad.Triad, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return triad.Triad{}, &EngineError{Op: "putstream", Cause: err}
	}
	return m.Put(buf, format, compression)
}

func (m *Memory) Get(d digest.Digest) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, ok := m.objects[d]
	if !ok {
		return nil, &MissingReferent{Digest: d.String()}
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	return cp, nil
}

func (m *Memory) Has(d digest.Digest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[d]
	return ok, nil
}

func (m *Memory) Resolve(t triad.Triad) ([]byte, error) {
	return m.Get(t.Digest)
}

func (m *Memory) List() ([]digest.Digest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]digest.Digest, 0, len(m.objects))
	for d := range m.objects {
		out = append(out, d)
	}
	return out, nil
}

type memoryToken struct{ version uint64 }

func (t memoryToken) Equal(other Token) bool {
	o, ok := other.(memoryToken)
	return ok && o.version == t.version
}

func (m *Memory) ReadRoot() (triad.Triad, Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.root, memoryToken{version: m.version}, nil
}

func (m *Memory) CASRoot(token Token, newTriad triad.Triad) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want, ok := token.(memoryToken)
	if !ok || want.version != m.version {
		return false, nil
	}
	m.root = newTriad
	m.version++
	return true, nil
}
