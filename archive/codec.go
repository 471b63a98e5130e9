package archive

import (
	"fmt"

	"github.com/dirtabase/dirtabase/triad"
)

// Encode serializes a under the named format, per spec.md §4.1.
// Implementers MUST produce byte-identical output for byte-identical
// entry sequences; both codecs below satisfy that by construction
// (no map iteration, no wall-clock, no random IDs).
func Encode(format triad.Format, a Archive) (buf []byte, err error) {
	switch format {
	case triad.FormatJSONArchive:
		return encodeJSON(a)
	case triad.FormatProtobufArchive:
		return encodeProtobuf(a)
	default:
		return nil, &MalformedArchive{Format: string(format), Cause: fmt.Errorf("unknown archive format")}
	}
}

// Decode parses buf as an archive under the named format.
func Decode(format triad.Format, buf []byte) (a Archive, err error) {
	switch format {
	case triad.FormatJSONArchive:
		return decodeJSON(buf)
	case triad.FormatProtobufArchive:
		return decodeProtobuf(buf)
	default:
		return a, &MalformedArchive{Format: string(format), Cause: fmt.Errorf("unknown archive format")}
	}
}
