package archive

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dirtabase/dirtabase/digest"
	"github.com/dirtabase/dirtabase/triad"
)

func tassert(t *testing.T, cond bool, txt string, args ...interface{}) {
	t.Helper()
	if !cond {
		t.Fatalf(txt, args...)
	}
}

func sampleArchive() Archive {
	t1 := triad.New(triad.FormatFile, triad.CompressionPlain, digest.Of([]byte("one")))
	t2 := triad.New(triad.FormatFile, triad.CompressionPlain, digest.Of([]byte("two")))
	return Archive{Entries: []Entry{
		{Path: "a", Kind: KindFile, Triad: t1, Attrs: Attrs{AttrMode: "644", AttrType: "file"}},
		{Path: "b/c", Kind: KindFile, Triad: t2, Attrs: Attrs{AttrType: "file"}},
	}}
}

func TestJSONRoundTrip(t *testing.T) {
	a := sampleArchive()
	buf, err := Encode(triad.FormatJSONArchive, a)
	tassert(t, err == nil, "%v", err)

	got, err := Decode(triad.FormatJSONArchive, buf)
	tassert(t, err == nil, "%v", err)
	tassert(t, cmp.Equal(a, got), "round trip mismatch:\n%s", cmp.Diff(a, got))
}

func TestProtobufRoundTrip(t *testing.T) {
	a := sampleArchive()
	buf, err := Encode(triad.FormatProtobufArchive, a)
	tassert(t, err == nil, "%v", err)

	got, err := Decode(triad.FormatProtobufArchive, buf)
	tassert(t, err == nil, "%v", err)
	tassert(t, cmp.Equal(a, got), "round trip mismatch:\n%s", cmp.Diff(a, got))
}

func TestJSONEncodeDeterministic(t *testing.T) {
	a := sampleArchive()
	buf1, err := Encode(triad.FormatJSONArchive, a)
	tassert(t, err == nil, "%v", err)
	buf2, err := Encode(triad.FormatJSONArchive, a)
	tassert(t, err == nil, "%v", err)
	tassert(t, string(buf1) == string(buf2), "encode(A) must be byte-identical across calls")
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, err := Decode(triad.FormatJSONArchive, []byte("not json"))
	tassert(t, err != nil, "expected MalformedArchive")
	_, ok := err.(*MalformedArchive)
	tassert(t, ok, "expected *MalformedArchive, got %T", err)
}

func TestDecodeUnknownFormat(t *testing.T) {
	_, err := Decode(triad.Format("mystery"), []byte("x"))
	tassert(t, err != nil, "expected error for unknown format")
}
