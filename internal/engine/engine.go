package engine

import (
	"time"

	"github.com/google/uuid"
)

// Engine bundles a Store and its CueIndex into the single addressable unit
// reused for the memory store proper, the alias registry, and the lexicon.
type Engine struct {
	Store *Store
	Index *CueIndex
}

// New returns an empty Engine.
func New() *Engine {
	return &Engine{Store: NewStore(), Index: NewCueIndex()}
}

// Add mints a new id and inserts a memory under the given canonical cues.
// Empty cues are dropped silently.
func (e *Engine) Add(content string, cues []string, metadata map[string]any) string {
	return e.AddWithID(uuid.NewString(), content, cues, metadata)
}

// AddWithID inserts a memory under a caller-supplied id, overwriting any
// existing memory and its prior index entries.
func (e *Engine) AddWithID(id, content string, cues []string, metadata map[string]any) string {
	cues = dedupeCues(cues)
	now := time.Now()

	if old, ok := e.Store.getRef(id); ok {
		for _, c := range old.Cues {
			e.Index.Remove(c, id)
		}
	}

	m := &Memory{
		ID:           id,
		Content:      content,
		Cues:         cues,
		Metadata:     metadata,
		CreatedAt:    now,
		LastAccessed: now,
	}
	e.Store.Put(m)
	for _, c := range cues {
		e.Index.Append(c, id)
	}
	return id
}

// Upsert inserts a new memory under id if absent; otherwise attaches cues
// (and optionally reinforces) the existing memory.
func (e *Engine) Upsert(id, content string, cues []string, metadata map[string]any, reinforce bool) string {
	if _, ok := e.Store.getRef(id); !ok {
		return e.AddWithID(id, content, cues, metadata)
	}
	e.AttachCues(id, cues)
	if reinforce {
		e.Reinforce(id, cues)
	}
	return id
}

// AttachCues adds the set-difference cues \ memory.cues to both the memory
// and the cue index. Returns false if id is absent or no cue was added.
func (e *Engine) AttachCues(id string, cues []string) bool {
	added, ok := e.Store.AddCues(id, dedupeCues(cues))
	if !ok {
		return false
	}
	for _, c := range added {
		e.Index.Append(c, id)
	}
	return len(added) > 0
}

// Reinforce touches the memory's last-accessed time and reinforcement
// counter, and moves it to the tail of every given cue's OrderedSet.
// Returns false if the memory is absent.
func (e *Engine) Reinforce(id string, cues []string) bool {
	if !e.Store.Touch(id, time.Now()) {
		return false
	}
	for _, c := range cues {
		if c == "" {
			continue
		}
		e.Index.MoveToEnd(c, id)
	}
	return true
}

// Delete removes the memory and every index entry referencing it.
func (e *Engine) Delete(id string) bool {
	cues, ok := e.Store.Delete(id)
	if !ok {
		return false
	}
	for _, c := range cues {
		e.Index.Remove(c, id)
	}
	return true
}

// Get returns a clone of the memory, or nil if absent.
func (e *Engine) Get(id string) *Memory {
	return e.Store.Get(id)
}

// Stats summarizes the engine's size.
type Stats struct {
	TotalMemories int      `json:"total_memories"`
	TotalCues     int      `json:"total_cues"`
	Cues          []string `json:"cues,omitempty"`
}

// Stats returns aggregate counts. includeCueNames controls whether the full
// cue list is populated (expensive on large indexes, so callers opt in).
func (e *Engine) Stats(includeCueNames bool) Stats {
	s := Stats{
		TotalMemories: e.Store.Len(),
		TotalCues:     e.Index.Len(),
	}
	if includeCueNames {
		s.Cues = make([]string, 0, s.TotalCues)
		e.Index.Range(func(cue string, _ *OrderedSet) bool {
			s.Cues = append(s.Cues, cue)
			return true
		})
	}
	return s
}
