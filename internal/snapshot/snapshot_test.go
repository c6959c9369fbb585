package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuemap/cuemap/internal/project"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	p := project.New("proj-a")
	id := p.Memories.Add("hello world", []string{"topic:golang", "topic:testing"}, map[string]any{"n": 1.5})
	p.Memories.Reinforce(id, []string{"topic:golang"})

	path := filepath.Join(t.TempDir(), "cuemap.bin")
	require.NoError(t, Save(path, p, 1234))

	snap, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Equal(t, CurrentVersion, snap.Version)
	require.Equal(t, int64(1234), snap.SavedAt)

	restored := snap.Restore("proj-a")
	mem := restored.Memories.Get(id)
	require.NotNil(t, mem)
	require.Equal(t, "hello world", mem.Content)
	require.ElementsMatch(t, []string{"topic:golang", "topic:testing"}, mem.Cues)
	require.Equal(t, 1, mem.ReinforcementCount)

	set := restored.Memories.Index.Get("topic:golang")
	require.NotNil(t, set)
	require.True(t, set.Contains(id))
}

func TestLoadMissingFileReturnsNilNil(t *testing.T) {
	snap, err := Load(filepath.Join(t.TempDir(), "does-not-exist.bin"))
	require.NoError(t, err)
	require.Nil(t, snap)
}

func TestLoadVersionMismatch(t *testing.T) {
	p := project.New("proj-b")
	path := filepath.Join(t.TempDir(), "cuemap.bin")

	bumped := Encode(p, 1)
	bumped.Version = CurrentVersion + 1
	require.NoError(t, writeFile(path, bumped))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestOrderedSetOrderSurvivesRoundTrip(t *testing.T) {
	p := project.New("proj-c")
	a := p.Memories.Add("a", []string{"topic:x"}, nil)
	b := p.Memories.Add("b", []string{"topic:x"}, nil)
	c := p.Memories.Add("c", []string{"topic:x"}, nil)
	p.Memories.Reinforce(a, []string{"topic:x"}) // a now most recent

	path := filepath.Join(t.TempDir(), "cuemap.bin")
	require.NoError(t, Save(path, p, 1))
	snap, err := Load(path)
	require.NoError(t, err)

	restored := snap.Restore("proj-c")
	recent := restored.Memories.Index.Get("topic:x").Recent(0)
	// a was just reinforced so it leads; the swap-remove underlying
	// MoveToEnd does not preserve relative order among the rest.
	require.Equal(t, a, recent[0])
	require.ElementsMatch(t, []string{b, c}, recent[1:])
}

func TestValidProjectID(t *testing.T) {
	require.True(t, ValidProjectID("abc"))
	require.True(t, ValidProjectID("team-1_alpha"))
	require.False(t, ValidProjectID("ab"))
	require.False(t, ValidProjectID("has a space"))
	require.False(t, ValidProjectID(""))
}

func TestPathFor(t *testing.T) {
	require.Equal(t, filepath.Join("/data", "cuemap.bin"), PathFor("/data", "ignored", false))
	require.Equal(t, filepath.Join("/data", "snapshots", "team1.bin"), PathFor("/data", "team1", true))
}
