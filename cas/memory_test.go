package cas

import (
	"bytes"
	"sync"
	"testing"

	"github.com/dirtabase/dirtabase/digest"
	"github.com/dirtabase/dirtabase/triad"
)

func TestMemoryPutGetRoundTrip(t *testing.T) {
	m := NewMemory()
	buf := []byte("hello memory cas")
	tr, err := m.Put(buf, triad.FormatFile, triad.CompressionPlain)
	tassert(t, err == nil, "%v", err)
	tassert(t, tr.Digest == digest.Of(buf), "P2: put(b) must return digest = sha256(b)")

	got, err := m.Get(tr.Digest)
	tassert(t, err == nil, "%v", err)
	tassert(t, bytes.Equal(got, buf), "P1: get(put(b)) must equal b")
}

func TestMemoryFreshRootIsEmptyArchive(t *testing.T) {
	m := NewMemory()
	tr, _, err := m.ReadRoot()
	tassert(t, err == nil, "%v", err)
	buf, err := m.Get(tr.Digest)
	tassert(t, err == nil, "%v", err)
	tassert(t, string(buf) == "[]", "expected fresh root to point at json_plain '[]', got %q", buf)
}

func TestMemoryCASRootVersioning(t *testing.T) {
	m := NewMemory()
	_, tok1, err := m.ReadRoot()
	tassert(t, err == nil, "%v", err)

	nt, err := m.Put([]byte("[]"), triad.FormatJSONArchive, triad.CompressionPlain)
	tassert(t, err == nil, "%v", err)

	ok, err := m.CASRoot(tok1, nt)
	tassert(t, err == nil && ok, "expected first CAS to succeed")

	ok, err = m.CASRoot(tok1, nt)
	tassert(t, err == nil && !ok, "expected stale-token CAS to report Conflict")
}

func TestMemoryHasMissingReferent(t *testing.T) {
	m := NewMemory()
	has, err := m.Has(digest.Of([]byte("nope")))
	tassert(t, err == nil && !has, "expected Has false for unstored digest")

	_, err = m.Get(digest.Of([]byte("nope")))
	_, ok := err.(*MissingReferent)
	tassert(t, ok, "expected *MissingReferent, got %T", err)
}

func TestMemoryCASRootConcurrentWriters(t *testing.T) {
	m := NewMemory()
	const writers = 8
	var wg sync.WaitGroup
	results := make([]bool, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for attempt := 0; attempt < 64; attempt++ {
				_, tok, err := m.ReadRoot()
				if err != nil {
					return
				}
				nt, perr := m.Put([]byte{byte(i)}, triad.FormatFile, triad.CompressionPlain)
				if perr != nil {
					return
				}
				ok, caserr := m.CASRoot(tok, nt)
				if caserr != nil {
					return
				}
				if ok {
					results[i] = true
					return
				}
			}
		}(i)
	}
	wg.Wait()

	for i, ok := range results {
		tassert(t, ok, "writer %d never won a CASRoot race within its retry budget", i)
	}
}
