// Package triad implements the fully qualified identity of a CAS
// object: (format, compression, digest), per spec.md §3 Triad.
package triad

import (
	"fmt"
	"strings"

	"github.com/dirtabase/dirtabase/digest"
	. "github.com/stevegt/goadapt"
)

// Format names the shape of the bytes a Triad points at.
type Format string

const (
	// FormatFile denotes an opaque byte buffer.
	FormatFile Format = "file"
	// FormatJSONArchive denotes a buffer that decodes as an archive
	// under the json_plain codec.
	FormatJSONArchive Format = "json_archive"
	// FormatProtobufArchive denotes a buffer that decodes as an
	// archive under the protobuf_plain codec.
	FormatProtobufArchive Format = "protobuf_archive"
)

// Compression names the byte-level transform applied on top of Format.
type Compression string

const (
	// CompressionPlain is the identity transform: no compression.
	CompressionPlain Compression = "plain"
)

// Triad is the textual identity "format-compression-hexdigest" of
// spec.md §3.
type Triad struct {
	Format      Format
	Compression Compression
	Digest      digest.Digest
}

// IsArchive reports whether the triad's format denotes an archive
// rather than an opaque file.
func (t Triad) IsArchive() bool {
	return t.Format == FormatJSONArchive || t.Format == FormatProtobufArchive
}

// String renders the triad as "format-compression-hexdigest".
func (t Triad) String() string {
	return fmt.Sprintf("%s-%s-%s", t.Format, t.Compression, t.Digest)
}

// IsZero reports whether t names no object.
func (t Triad) IsZero() bool {
	return t.Format == "" && t.Compression == "" && t.Digest.IsZero()
}

// Parse decodes "format-compression-hexdigest" into a Triad.
func Parse(s string) (t Triad, err error) {
	defer Return(&err)
	parts := strings.SplitN(s, "-", 3)
	if len(parts) != 3 {
		return t, fmt.Errorf("malformed triad %q: want format-compression-hexdigest", s)
	}
	d, err := digest.Parse(parts[2])
	Ck(err)
	t = Triad{Format: Format(parts[0]), Compression: Compression(parts[1]), Digest: d}
	return t, nil
}

// New builds a Triad for bytes already known to hash to d, using the
// engine's chosen format/compression labels. Engines call this after
// computing the digest themselves so the format/compression choice
// stays a local policy, per spec.md §4.2 put().
func New(format Format, compression Compression, d digest.Digest) Triad {
	return Triad{Format: format, Compression: compression, Digest: d}
}
