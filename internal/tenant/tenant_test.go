package tenant

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetOrCreate_CreatesOnFirstUse(t *testing.T) {
	d := New(t.TempDir(), true)
	p, err := d.GetOrCreate("team-a")
	require.NoError(t, err)
	require.Equal(t, "team-a", p.ID)

	again, err := d.GetOrCreate("team-a")
	require.NoError(t, err)
	require.Same(t, p, again)
}

func TestGetOrCreate_RejectsInvalidIDInMultiTenantMode(t *testing.T) {
	d := New(t.TempDir(), true)
	_, err := d.GetOrCreate("ab")
	require.Error(t, err)
}

func TestSingleTenantMode_IgnoresRequestedID(t *testing.T) {
	d := New(t.TempDir(), false)
	a, err := d.GetOrCreate("anything")
	require.NoError(t, err)
	b, err := d.GetOrCreate("something-else")
	require.NoError(t, err)
	require.Same(t, a, b)
	require.Equal(t, DefaultProjectID, a.ID)
}

func TestIsolationBetweenProjects(t *testing.T) {
	d := New(t.TempDir(), true)
	a, _ := d.GetOrCreate("team-a")
	b, _ := d.GetOrCreate("team-b")

	id := a.Memories.Add("only in a", []string{"topic:x"}, nil)
	require.NotNil(t, a.Memories.Get(id))
	require.Nil(t, b.Memories.Get(id))
}

func TestSaveAllThenLoadAllRoundTrip(t *testing.T) {
	dir := t.TempDir()
	d1 := New(dir, true)
	p, err := d1.GetOrCreate("team-a")
	require.NoError(t, err)
	id := p.Memories.Add("hello", []string{"topic:x"}, nil)
	require.NoError(t, d1.SaveAll())

	d2 := New(dir, true)
	require.NoError(t, d2.LoadAll())
	restored, ok := d2.GetProject("team-a")
	require.True(t, ok)
	require.NotNil(t, restored.Memories.Get(id))
}

func TestDeleteRemovesFromMemoryAndDisk(t *testing.T) {
	dir := t.TempDir()
	d := New(dir, true)
	_, err := d.GetOrCreate("team-a")
	require.NoError(t, err)
	require.NoError(t, d.Save("team-a"))

	require.True(t, d.Delete("team-a"))
	_, ok := d.GetProject("team-a")
	require.False(t, ok)

	d2 := New(dir, true)
	require.NoError(t, d2.LoadAll())
	require.Empty(t, d2.List())
}

func TestListIsSorted(t *testing.T) {
	d := New(t.TempDir(), true)
	_, _ = d.GetOrCreate("zeta")
	_, _ = d.GetOrCreate("alpha")
	_, _ = d.GetOrCreate("mid")
	require.Equal(t, []string{"alpha", "mid", "zeta"}, d.List())
}
