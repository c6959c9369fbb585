// Package engine implements the concurrent indexed store that backs every
// cue-addressable collection in the service: the memory store itself, the
// alias registry, and the lexicon are all instances of Engine.
package engine

import (
	"strings"
	"time"
)

// Memory is a single content item retrievable by its canonical cues.
type Memory struct {
	ID                 string         `json:"id"`
	Content            string         `json:"content"`
	Cues               []string       `json:"cues"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	LastAccessed       time.Time      `json:"last_accessed"`
	ReinforcementCount int            `json:"reinforcement_count"`
}

// Clone returns a deep-enough copy safe to hand to a caller outside the lock.
func (m *Memory) Clone() *Memory {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Cues = append([]string(nil), m.Cues...)
	if m.Metadata != nil {
		cp.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// HasCue reports whether the memory already carries the given canonical cue.
func (m *Memory) HasCue(cue string) bool {
	for _, c := range m.Cues {
		if c == cue {
			return true
		}
	}
	return false
}

// IsCanonicalCue reports whether s is a well-formed "key:value" cue: both
// halves non-empty after trimming whitespace. Letter case is not checked.
func IsCanonicalCue(s string) bool {
	idx := strings.IndexByte(s, ':')
	if idx <= 0 || idx == len(s)-1 {
		return false
	}
	return strings.TrimSpace(s[:idx]) != "" && strings.TrimSpace(s[idx+1:]) != ""
}

// CueKey returns the "key" half of a canonical "key:value" cue, or "" if
// the cue has no colon.
func CueKey(cue string) string {
	idx := strings.IndexByte(cue, ':')
	if idx < 0 {
		return ""
	}
	return cue[:idx]
}

// CueValue returns the "value" half of a canonical "key:value" cue.
func CueValue(cue string) string {
	idx := strings.IndexByte(cue, ':')
	if idx < 0 {
		return ""
	}
	return cue[idx+1:]
}

// dedupeCues removes duplicates and empty entries while preserving order.
func dedupeCues(cues []string) []string {
	seen := make(map[string]struct{}, len(cues))
	out := make([]string, 0, len(cues))
	for _, c := range cues {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
