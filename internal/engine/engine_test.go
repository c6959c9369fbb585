package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEngine_AddAttachDelete(t *testing.T) {
	e := New()
	id := e.Add("hello world", []string{"topic:x"}, nil)

	// The index holds the new id under each of its cues.
	require.True(t, e.Index.Get("topic:x").Contains(id))

	require.True(t, e.AttachCues(id, []string{"b", "c"}))
	results := e.Recall([]WeightedCue{{Cue: "b", Weight: 1}}, RecallOptions{Limit: 10})
	require.Len(t, results, 1)
	require.Equal(t, id, results[0].ID)

	require.False(t, e.AttachCues(id, []string{"topic:x", "b"}), "no new cues added")

	require.True(t, e.Delete(id))
	// The cue's OrderedSet is left behind empty rather than removed from the
	// index — a documented benign leak, not a bug.
	require.NotNil(t, e.Index.Get("topic:x"))
	require.Equal(t, 0, e.Index.Get("topic:x").Len())
	require.False(t, e.Index.Get("b").Contains(id))
}

func TestEngine_ReinforceMoveToEndIdempotent(t *testing.T) {
	e := New()
	id1 := e.Add("one", []string{"cue"}, nil)
	id2 := e.Add("two", []string{"cue"}, nil)

	// Reinforcing twice is indistinguishable from once.
	e.Reinforce(id1, []string{"cue"})
	e.Reinforce(id1, []string{"cue"})

	p1, ok := e.Index.Get("cue").IndexOf(id1)
	require.True(t, ok)
	require.Equal(t, 0, p1, "id1 sits at the tail either way")

	p2, ok := e.Index.Get("cue").IndexOf(id2)
	require.True(t, ok)
	require.Equal(t, 1, p2)
}

func TestEngine_ReinforceDoesNotIndexForeignCues(t *testing.T) {
	// Reinforcing with a cue the memory doesn't carry (an alias-expanded
	// query cue, say) must not index the memory under it.
	e := New()
	other := e.Add("other", []string{"service:payments"}, nil)
	id := e.Add("target", []string{"pay"}, nil)

	require.True(t, e.Reinforce(id, []string{"pay", "service:payments", "never:seen"}))
	require.False(t, e.Index.Get("service:payments").Contains(id))
	require.True(t, e.Index.Get("service:payments").Contains(other))
	require.Nil(t, e.Index.Get("never:seen"))
}

func TestEngine_ReinforceMissingID(t *testing.T) {
	e := New()
	require.False(t, e.Reinforce("nope", []string{"cue"}))
}

func TestEngine_Stats(t *testing.T) {
	e := New()
	e.Add("a", []string{"x:1", "y:2"}, nil)
	e.Add("b", []string{"x:1"}, nil)

	stats := e.Stats(true)
	require.Equal(t, 2, stats.TotalMemories)
	require.Equal(t, 2, stats.TotalCues)
	require.ElementsMatch(t, []string{"x:1", "y:2"}, stats.Cues)
}
