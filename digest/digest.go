// Package digest implements the fixed-size cryptographic hash that
// is the sole identity of CAS-resident content.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"

	. "github.com/stevegt/goadapt"
)

// Size is the length of a Digest in bytes (SHA-256).
const Size = sha256.Size

// Digest is a SHA-256 hash of an exact byte buffer.
type Digest [Size]byte

// Of computes the Digest of buf.
func Of(buf []byte) Digest {
	return Digest(sha256.Sum256(buf))
}

// String hex-renders the digest as 64 characters, per spec.md §3.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether d is the zero digest (never a valid hash of
// any buffer with overwhelming probability, used as a sentinel for
// "no object").
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Writer incrementally hashes written bytes, for streaming callers
// that cannot buffer an entire object before computing its digest
// (e.g. cas.Local.PutStream).
type Writer struct {
	h hash.Hash
}

// NewWriter returns a Writer ready to accept Write calls.
func NewWriter() *Writer {
	return &Writer{h: sha256.New()}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	return w.h.Write(p)
}

// Digest returns the Digest of every byte written so far.
func (w *Writer) Digest() Digest {
	var d Digest
	copy(d[:], w.h.Sum(nil))
	return d
}

// Parse decodes a 64-character hex string into a Digest.
func Parse(s string) (d Digest, err error) {
	defer Return(&err)
	if len(s) != Size*2 {
		return d, fmt.Errorf("malformed digest %q: want %d hex chars, got %d", s, Size*2, len(s))
	}
	buf, err := hex.DecodeString(s)
	Ck(err)
	copy(d[:], buf)
	return d, nil
}
