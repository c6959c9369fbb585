package engine

import (
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// Store holds keyed Memories. Distinct ids never contend — it is a thin
// wrapper over a sharded concurrent map.
type Store struct {
	memories *xsync.Map[string, *Memory]
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{memories: xsync.NewMap[string, *Memory]()}
}

// Get returns a clone of the memory, or nil if absent.
func (s *Store) Get(id string) *Memory {
	m, ok := s.memories.Load(id)
	if !ok {
		return nil
	}
	return m.Clone()
}

// getRef returns the live, unlocked-for-read pointer for internal use only.
// Callers must not mutate the returned value's slice/map fields in place
// without replacing them atomically via Put.
func (s *Store) getRef(id string) (*Memory, bool) {
	return s.memories.Load(id)
}

// Put inserts or overwrites a memory.
func (s *Store) Put(m *Memory) {
	s.memories.Store(m.ID, m)
}

// Delete removes a memory, returning its last known cues (for index cleanup).
func (s *Store) Delete(id string) ([]string, bool) {
	m, ok := s.memories.LoadAndDelete(id)
	if !ok {
		return nil, false
	}
	return m.Cues, true
}

// Len returns the number of memories.
func (s *Store) Len() int {
	return s.memories.Size()
}

// Touch updates LastAccessed and increments ReinforcementCount for id.
// Returns false if absent.
func (s *Store) Touch(id string, at time.Time) bool {
	_, ok := s.memories.Compute(id, func(old *Memory, loaded bool) (*Memory, xsync.ComputeOp) {
		if !loaded || old == nil {
			return old, xsync.CancelOp
		}
		cp := old.Clone()
		cp.LastAccessed = at
		cp.ReinforcementCount++
		return cp, xsync.UpdateOp
	})
	return ok
}

// AddCues merges newCues into the memory's cue list (deduplicated), if id exists.
// Returns the set of cues actually added (i.e. not already present) and whether
// the memory existed at all.
func (s *Store) AddCues(id string, newCues []string) ([]string, bool) {
	if _, exists := s.memories.Load(id); !exists {
		return nil, false
	}
	var added []string
	s.memories.Compute(id, func(old *Memory, loaded bool) (*Memory, xsync.ComputeOp) {
		if !loaded || old == nil {
			return old, xsync.CancelOp
		}
		cp := old.Clone()
		existing := make(map[string]struct{}, len(cp.Cues))
		for _, c := range cp.Cues {
			existing[c] = struct{}{}
		}
		for _, c := range newCues {
			if c == "" {
				continue
			}
			if _, ok := existing[c]; ok {
				continue
			}
			existing[c] = struct{}{}
			cp.Cues = append(cp.Cues, c)
			added = append(added, c)
		}
		if len(added) == 0 {
			return old, xsync.CancelOp
		}
		return cp, xsync.UpdateOp
	})
	return added, true
}

// Range iterates every memory. The callback must not mutate the store.
func (s *Store) Range(f func(id string, m *Memory) bool) {
	s.memories.Range(func(id string, m *Memory) bool {
		return f(id, m)
	})
}
