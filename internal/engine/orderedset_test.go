package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderedSet_AppendAndIndexOf(t *testing.T) {
	s := NewOrderedSet()
	s.Append("a")
	s.Append("b")
	s.Append("c")
	require.Equal(t, 3, s.Len())

	p, ok := s.IndexOf("c")
	require.True(t, ok)
	require.Equal(t, 0, p, "tail element has reverse-rank 0")

	p, ok = s.IndexOf("a")
	require.True(t, ok)
	require.Equal(t, 2, p)
}

func TestOrderedSet_AppendDeduplicates(t *testing.T) {
	s := NewOrderedSet()
	s.Append("a")
	s.Append("a")
	require.Equal(t, 1, s.Len())
}

func TestOrderedSet_MoveToEnd(t *testing.T) {
	s := NewOrderedSet()
	s.Append("a")
	s.Append("b")
	s.Append("c")
	s.MoveToEnd("a")

	p, ok := s.IndexOf("a")
	require.True(t, ok)
	require.Equal(t, 0, p)
	require.Equal(t, 3, s.Len(), "move-to-end does not change membership")
}

func TestOrderedSet_MoveToEndIdempotent(t *testing.T) {
	s := NewOrderedSet()
	s.Append("a")
	s.Append("b")
	s.MoveToEnd("a")
	s.MoveToEnd("a")

	p, ok := s.IndexOf("a")
	require.True(t, ok)
	require.Equal(t, 0, p)
	require.Equal(t, 2, s.Len())
}

func TestOrderedSet_Remove(t *testing.T) {
	s := NewOrderedSet()
	s.Append("a")
	s.Append("b")
	require.True(t, s.Remove("a"))
	require.False(t, s.Contains("a"))
	require.False(t, s.Remove("a"))
}

func TestOrderedSet_Recent(t *testing.T) {
	s := NewOrderedSet()
	s.Append("a")
	s.Append("b")
	s.Append("c")
	require.Equal(t, []string{"c", "b", "a"}, s.Recent(0))
	require.Equal(t, []string{"c", "b"}, s.Recent(2))
}
