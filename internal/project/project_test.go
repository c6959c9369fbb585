package project

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProject_Stats(t *testing.T) {
	p := New("p1")
	p.Memories.Add("hello", []string{"topic:golang"}, nil)

	stats := p.Stats()
	require.Equal(t, 1, stats.Memories.TotalMemories)
	require.Equal(t, 1, stats.Memories.TotalCues)
}

func TestProject_Isolation(t *testing.T) {
	// Writes to one Project are invisible to another.
	a := New("a")
	b := New("b")
	a.Memories.Add("secret", []string{"topic:golang"}, nil)

	require.Equal(t, 1, a.Memories.Store.Len())
	require.Equal(t, 0, b.Memories.Store.Len())
}
