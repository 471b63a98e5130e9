package archive

import (
	"fmt"

	"github.com/dirtabase/dirtabase/triad"
	"google.golang.org/protobuf/encoding/protowire"
)

// protobuf_plain is a hand-rolled tag-by-tag wire encoding, using the
// protobuf wire primitives directly rather than generated .proto code
// (there is no generator available in this module). Field numbers:
//
//	Archive    { 1: repeated Entry entries }
//	Entry      { 1: string path, 2: varint kind, 3: string triad, 4: repeated AttrKV attrs }
//	AttrKV     { 1: string key, 2: string value }
//
// "required fields present even when default" (spec.md §4.1) means
// every Entry always writes its path/kind/triad tags, even when kind
// is the zero value (kindFileWire below), rather than relying on
// protobuf's usual default-value elision.
const (
	fieldArchiveEntries = protowire.Number(1)

	fieldEntryPath  = protowire.Number(1)
	fieldEntryKind  = protowire.Number(2)
	fieldEntryTriad = protowire.Number(3)
	fieldEntryAttrs = protowire.Number(4)

	fieldAttrKey = protowire.Number(1)
	fieldAttrVal = protowire.Number(2)
)

const (
	kindFileWire    = 0
	kindIncludeWire = 1
)

func kindToWire(k Kind) uint64 {
	if k == KindInclude {
		return kindIncludeWire
	}
	return kindFileWire
}

func wireToKind(v uint64) (Kind, error) {
	switch v {
	case kindFileWire:
		return KindFile, nil
	case kindIncludeWire:
		return KindInclude, nil
	default:
		return "", fmt.Errorf("unknown entry kind tag %d", v)
	}
}

func encodeProtobuf(a Archive) ([]byte, error) {
	var out []byte
	for _, e := range a.Entries {
		entryBuf := encodeProtobufEntry(e)
		out = protowire.AppendTag(out, fieldArchiveEntries, protowire.BytesType)
		out = protowire.AppendBytes(out, entryBuf)
	}
	return out, nil
}

func encodeProtobufEntry(e Entry) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldEntryPath, protowire.BytesType)
	buf = protowire.AppendString(buf, e.Path)

	buf = protowire.AppendTag(buf, fieldEntryKind, protowire.VarintType)
	buf = protowire.AppendVarint(buf, kindToWire(e.Kind))

	buf = protowire.AppendTag(buf, fieldEntryTriad, protowire.BytesType)
	buf = protowire.AppendString(buf, e.Triad.String())

	for _, k := range e.Attrs.SortedKeys() {
		var kv []byte
		kv = protowire.AppendTag(kv, fieldAttrKey, protowire.BytesType)
		kv = protowire.AppendString(kv, k)
		kv = protowire.AppendTag(kv, fieldAttrVal, protowire.BytesType)
		kv = protowire.AppendString(kv, e.Attrs[k])

		buf = protowire.AppendTag(buf, fieldEntryAttrs, protowire.BytesType)
		buf = protowire.AppendBytes(buf, kv)
	}
	return buf
}

func decodeProtobuf(buf []byte) (a Archive, err error) {
	malformed := func(cause error) (Archive, error) {
		return Archive{}, &MalformedArchive{Format: string(triad.FormatProtobufArchive), Cause: cause}
	}

	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return malformed(protowire.ParseError(n))
		}
		buf = buf[n:]
		if num != fieldArchiveEntries || typ != protowire.BytesType {
			return malformed(fmt.Errorf("unexpected top-level field %d", num))
		}
		entryBuf, n := protowire.ConsumeBytes(buf)
		if n < 0 {
			return malformed(protowire.ParseError(n))
		}
		buf = buf[n:]

		entry, err := decodeProtobufEntry(entryBuf)
		if err != nil {
			return malformed(err)
		}
		a.Entries = append(a.Entries, entry)
	}
	return a, nil
}

func decodeProtobufEntry(buf []byte) (e Entry, err error) {
	var haveKind bool
	var wireKind uint64
	var triadText string
	var pathText string
	attrs := Attrs{}

	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return e, protowire.ParseError(n)
		}
		buf = buf[n:]
		switch {
		case num == fieldEntryPath && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(buf)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			pathText = s
			buf = buf[n:]
		case num == fieldEntryKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			wireKind, haveKind = v, true
			buf = buf[n:]
		case num == fieldEntryTriad && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(buf)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			triadText = s
			buf = buf[n:]
		case num == fieldEntryAttrs && typ == protowire.BytesType:
			kvBuf, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			buf = buf[n:]
			k, v, err := decodeProtobufAttr(kvBuf)
			if err != nil {
				return e, err
			}
			attrs[k] = v
		default:
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			buf = buf[n:]
		}
	}

	if !haveKind {
		return e, fmt.Errorf("entry missing required kind field")
	}
	kind, err := wireToKind(wireKind)
	if err != nil {
		return e, err
	}
	path, perr := NormalizePath(pathText)
	if perr != nil {
		return e, perr
	}
	t, terr := triad.Parse(triadText)
	if terr != nil {
		return e, terr
	}
	if len(attrs) == 0 {
		attrs = nil
	}
	e = Entry{Path: path, Kind: kind, Triad: t, Attrs: attrs}
	return e, nil
}

func decodeProtobufAttr(buf []byte) (key, val string, err error) {
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return "", "", protowire.ParseError(n)
		}
		buf = buf[n:]
		switch {
		case num == fieldAttrKey && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(buf)
			if n < 0 {
				return "", "", protowire.ParseError(n)
			}
			key = s
			buf = buf[n:]
		case num == fieldAttrVal && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(buf)
			if n < 0 {
				return "", "", protowire.ParseError(n)
			}
			val = s
			buf = buf[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return "", "", protowire.ParseError(n)
			}
			buf = buf[n:]
		}
	}
	return key, val, nil
}
