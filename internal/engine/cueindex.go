package engine

import "github.com/puzpuzpuz/xsync/v4"

// CueIndex maps a canonical cue to the OrderedSet of memory ids indexed
// under it. Distinct cues never contend.
type CueIndex struct {
	cues *xsync.Map[string, *OrderedSet]
}

// NewCueIndex returns an empty CueIndex.
func NewCueIndex() *CueIndex {
	return &CueIndex{cues: xsync.NewMap[string, *OrderedSet]()}
}

// setFor returns the OrderedSet for cue, creating it if absent.
func (idx *CueIndex) setFor(cue string) *OrderedSet {
	set, _ := idx.cues.LoadOrCompute(cue, func() (*OrderedSet, bool) {
		return NewOrderedSet(), false
	})
	return set
}

// Get returns the OrderedSet for cue, or nil if the cue has never been used.
func (idx *CueIndex) Get(cue string) *OrderedSet {
	set, _ := idx.cues.Load(cue)
	return set
}

// Append adds id to cue's set, creating the set if needed.
func (idx *CueIndex) Append(cue, id string) {
	idx.setFor(cue).Append(id)
}

// MoveToEnd reinforces id within cue's set. A cue the index has never seen,
// or a set that doesn't hold id, is left untouched: reinforcement repositions
// existing entries, it never creates them (AttachCues does that).
func (idx *CueIndex) MoveToEnd(cue, id string) {
	if set := idx.Get(cue); set != nil {
		set.MoveToEnd(id)
	}
}

// Remove removes id from cue's set. The (possibly now-empty) set is kept in
// the index — an intentional, documented benign leak (see design notes).
func (idx *CueIndex) Remove(cue, id string) {
	if set := idx.Get(cue); set != nil {
		set.Remove(id)
	}
}

// Has reports whether the cue is known to the index at all.
func (idx *CueIndex) Has(cue string) bool {
	_, ok := idx.cues.Load(cue)
	return ok
}

// Len returns the number of distinct cues ever recorded.
func (idx *CueIndex) Len() int {
	return idx.cues.Size()
}

// Range iterates every (cue, set) pair.
func (idx *CueIndex) Range(f func(cue string, set *OrderedSet) bool) {
	idx.cues.Range(func(cue string, set *OrderedSet) bool {
		return f(cue, set)
	})
}
