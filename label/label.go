// Package label implements the label archive and root CAS protocol
// of spec.md §4.3: every root-archive mutation reads the current
// root, decodes the label archive, applies a pure mutation, cleans
// and re-encodes, puts the new bytes, and retries the root
// compare-and-swap under exponential backoff until it succeeds or the
// retry budget (spec.md §5, default 32) is exhausted.
package label

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/dirtabase/dirtabase/archive"
	"github.com/dirtabase/dirtabase/cas"
	"github.com/dirtabase/dirtabase/triad"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

// NoSuchLabel reports a GetLabel/DelLabel miss, per spec.md §4.3.
type NoSuchLabel struct {
	Name string
}

func (e *NoSuchLabel) Error() string { return fmt.Sprintf("no such label: %s", e.Name) }

const (
	backoffStart = time.Millisecond
	backoffCap   = 100 * time.Millisecond
)

// Mutate applies m to the current label archive and retries the
// root-CAS loop of spec.md §4.3 until it commits or the retry budget
// is exhausted, surfacing cas.RootContention. m must be pure: it may
// be invoked more than once per call if another writer wins a race.
func Mutate(e cas.Engine, retries int, m func(archive.Archive) archive.Archive) (err error) {
	defer Return(&err)

	for attempt := 0; attempt < retries; attempt++ {
		curTriad, token, rerr := e.ReadRoot()
		Ck(rerr)

		curBuf, gerr := e.Get(curTriad.Digest)
		Ck(gerr)
		cur, derr := archive.Decode(curTriad.Format, curBuf)
		Ck(derr)

		cand := m(cur)
		cleaned, cerr := archive.Clean(cand, e)
		Ck(cerr)

		newBuf, eerr := archive.Encode(triad.FormatJSONArchive, cleaned)
		Ck(eerr)
		newTriad, perr := e.Put(newBuf, triad.FormatJSONArchive, triad.CompressionPlain)
		Ck(perr)

		ok, caserr := e.CASRoot(token, newTriad)
		Ck(caserr)
		if ok {
			log.WithField("attempt", attempt).Debug("label: root cas committed")
			return nil
		}

		log.WithField("attempt", attempt).Warn("label: root cas conflict, retrying")
		sleepBackoff(attempt)
	}
	return &cas.RootContention{Attempts: retries}
}

func sleepBackoff(attempt int) {
	d := backoffStart << attempt
	if d > backoffCap || d <= 0 {
		d = backoffCap
	}
	// jitter to avoid thundering-herd retries among concurrent writers
	jitter := time.Duration(rand.Int63n(int64(d) + 1))
	time.Sleep(jitter)
}

// Current decodes the engine's current label archive without
// entering the mutation protocol — readers read-root-once, decode,
// look up, per spec.md §4.3 "no locking" for readers.
func Current(e cas.Engine) (a archive.Archive, err error) {
	defer Return(&err)
	t, _, err := e.ReadRoot()
	Ck(err)
	buf, err := e.Get(t.Digest)
	Ck(err)
	a, err = archive.Decode(t.Format, buf)
	Ck(err)
	return a, nil
}

// SetLabel binds name to t, per spec.md §4.3 set_label.
func SetLabel(e cas.Engine, retries int, name string, t triad.Triad) (err error) {
	defer Return(&err)
	if verr := archive.ValidateLabelName(name); verr != nil {
		return verr
	}
	return Mutate(e, retries, func(cur archive.Archive) archive.Archive {
		entries := removeLabel(cur.Entries, name)
		entries = append(entries, archive.Entry{Path: name, Kind: archive.KindFile, Triad: t})
		return archive.Archive{Entries: entries}
	})
}

// GetLabel looks up name, or NoSuchLabel, per spec.md §4.3 get_label.
func GetLabel(e cas.Engine, name string) (t triad.Triad, err error) {
	defer Return(&err)
	a, err := Current(e)
	Ck(err)
	for _, ent := range a.Entries {
		if ent.Path == name {
			return ent.Triad, nil
		}
	}
	return t, &NoSuchLabel{Name: name}
}

// DelLabel removes name, per spec.md §4.3 del_label.
func DelLabel(e cas.Engine, retries int, name string) (err error) {
	defer Return(&err)
	if _, gerr := GetLabel(e, name); gerr != nil {
		return gerr
	}
	return Mutate(e, retries, func(cur archive.Archive) archive.Archive {
		return archive.Archive{Entries: removeLabel(cur.Entries, name)}
	})
}

// Binding is one (name, triad) pair from the label archive.
type Binding struct {
	Name  string
	Triad triad.Triad
}

// ListLabels returns every binding sorted by name, per spec.md §4.3
// list_labels.
func ListLabels(e cas.Engine) (out []Binding, err error) {
	defer Return(&err)
	a, err := Current(e)
	Ck(err)
	for _, ent := range a.Entries {
		out = append(out, Binding{Name: ent.Path, Triad: ent.Triad})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func removeLabel(entries []archive.Entry, name string) []archive.Entry {
	out := make([]archive.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Path != name {
			out = append(out, e)
		}
	}
	return out
}
