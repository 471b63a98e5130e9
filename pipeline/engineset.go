package pipeline

import (
	"fmt"
	"sync"

	"github.com/dirtabase/dirtabase/cas"
	"github.com/dirtabase/dirtabase/ref"
)

// EngineSet resolves a Ref's scheme+fullpath to a concrete cas.Engine,
// caching by fullpath within one pipeline run. Per spec.md §9's
// design note, engine handles are threaded explicitly through the
// driver rather than kept in a global registry; EngineSet is owned by
// one Driver and dies with it.
type EngineSet struct {
	mu  sync.Mutex
	byKey map[string]cas.Engine
}

// NewEngineSet returns an empty EngineSet.
func NewEngineSet() *EngineSet {
	return &EngineSet{byKey: make(map[string]cas.Engine)}
}

// Resolve opens (or returns the cached) engine for r.Scheme/r.Fullpath.
func (s *EngineSet) Resolve(r ref.Ref) (cas.Engine, error) {
	key := r.Scheme + "://" + r.Fullpath
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.byKey[key]; ok {
		return e, nil
	}

	var e cas.Engine
	var err error
	switch r.Scheme {
	case "file":
		e, err = cas.OpenLocal(r.Fullpath)
	case "memory":
		e = cas.NewMemory()
	default:
		return nil, &ref.InvalidReference{Input: key, Reason: fmt.Sprintf("unknown scheme %q", r.Scheme)}
	}
	if err != nil {
		return nil, err
	}
	s.byKey[key] = e
	return e, nil
}
