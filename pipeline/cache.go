package pipeline

import (
	"crypto/sha256"
	"fmt"

	"github.com/dirtabase/dirtabase/archive"
	"github.com/dirtabase/dirtabase/cas"
	"github.com/dirtabase/dirtabase/digest"
	"github.com/dirtabase/dirtabase/label"
	"github.com/dirtabase/dirtabase/op"
	"github.com/dirtabase/dirtabase/triad"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

// BuildCacheLabel is the well-known label under which the build cache
// archive is kept, per spec.md §4.6.
const BuildCacheLabel = "@buildcache"

// Fingerprint computes fp = hash(operator_name || canonical_param_encoding
// || concat(input_triads)), per spec.md §4.6.
func Fingerprint(opName string, params []byte, inputs []op.Ref) digest.Digest {
	h := sha256.New()
	h.Write([]byte(opName))
	h.Write([]byte{0})
	h.Write(params)
	for _, in := range inputs {
		h.Write([]byte(in.Triad.String()))
		h.Write([]byte(in.SubPath))
	}
	var d digest.Digest
	copy(d[:], h.Sum(nil))
	return d
}

// cachedOutputEntry's Attrs carry the sub-path alongside the triad,
// since an op.Ref is (engine, triad, subpath) and the cache archive
// only needs to remember the latter two — the engine is implied by
// whichever engine the cache archive itself lives in.
const attrSubPath = "subpath"

// lookupCache returns the cached outputs for fp, if present, resolved
// against e (the same engine the cache lives in — cached outputs
// always name triads in that engine).
func lookupCache(e cas.Engine, fp digest.Digest) (outputs []op.Ref, found bool, err error) {
	defer Return(&err)

	t, lerr := label.GetLabel(e, BuildCacheLabel)
	if _, ok := lerr.(*label.NoSuchLabel); ok {
		return nil, false, nil
	}
	Ck(lerr)

	entry, found, ferr := findCacheEntry(e, t, fp)
	Ck(ferr)
	if !found {
		return nil, false, nil
	}

	buf, gerr := e.Get(entry.Digest)
	Ck(gerr)
	a, derr := archive.Decode(entry.Format, buf)
	Ck(derr)

	outputs = make([]op.Ref, len(a.Entries))
	for i, ent := range a.Entries {
		outputs[i] = op.Ref{Engine: e, Triad: ent.Triad, SubPath: ent.Attrs[attrSubPath]}
	}
	return outputs, true, nil
}

func findCacheEntry(e cas.Engine, cacheRootTriad triad.Triad, fp digest.Digest) (t triad.Triad, found bool, err error) {
	defer Return(&err)
	buf, gerr := e.Get(cacheRootTriad.Digest)
	Ck(gerr)
	a, derr := archive.Decode(cacheRootTriad.Format, buf)
	Ck(derr)
	cleaned, cerr := archive.Clean(a, e)
	Ck(cerr)
	key := fmt.Sprintf("%x", fp)
	for _, ent := range cleaned.Entries {
		if ent.Path == key {
			return ent.Triad, true, nil
		}
	}
	return t, false, nil
}

// storeCache records fp -> outputs in the build cache archive, under
// the same root-CAS protocol as labels (spec.md §4.3), since the
// build cache is itself just a dedicated label.
func storeCache(e cas.Engine, retries int, fp digest.Digest, outputs []op.Ref) (err error) {
	defer Return(&err)

	entries := make([]archive.Entry, len(outputs))
	for i, out := range outputs {
		entries[i] = archive.Entry{
			Path:  fmt.Sprintf("%d", i),
			Kind:  archive.KindFile,
			Triad: out.Triad,
			Attrs: archive.Attrs{attrSubPath: out.SubPath},
		}
	}
	bundle := archive.Archive{Entries: entries}
	buf, eerr := archive.Encode(triad.FormatJSONArchive, bundle)
	Ck(eerr)
	bundleTriad, perr := e.Put(buf, triad.FormatJSONArchive, triad.CompressionPlain)
	Ck(perr)

	key := fmt.Sprintf("%x", fp)
	err = label.Mutate(e, retries, func(cur archive.Archive) archive.Archive {
		cacheRootPath := BuildCacheLabel
		var cacheTriad triad.Triad
		var rest []archive.Entry
		for _, ent := range cur.Entries {
			if ent.Path == cacheRootPath {
				cacheTriad = ent.Triad
			} else {
				rest = append(rest, ent)
			}
		}
		newCacheArchive := archive.Archive{}
		if !cacheTriad.IsZero() {
			newCacheArchive.Entries = append(newCacheArchive.Entries, archive.Entry{
				Path: ".", Kind: archive.KindInclude, Triad: cacheTriad,
			})
		}
		newCacheArchive.Entries = append(newCacheArchive.Entries, archive.Entry{
			Path: key, Kind: archive.KindFile, Triad: bundleTriad,
		})
		newCacheTriad, serr := storeArchiveForCache(e, newCacheArchive)
		Ck(serr)
		rest = append(rest, archive.Entry{Path: cacheRootPath, Kind: archive.KindFile, Triad: newCacheTriad})
		return archive.Archive{Entries: rest}
	})
	Ck(err)
	log.WithField("fingerprint", key).Debug("cache: stored")
	return nil
}

func storeArchiveForCache(e cas.Engine, a archive.Archive) (t triad.Triad, err error) {
	defer Return(&err)
	cleaned, cerr := archive.Clean(a, e)
	Ck(cerr)
	buf, eerr := archive.Encode(triad.FormatJSONArchive, cleaned)
	Ck(eerr)
	t, err = e.Put(buf, triad.FormatJSONArchive, triad.CompressionPlain)
	Ck(err)
	return t, nil
}
