package project

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuemap/cuemap/internal/engine"
)

func TestGround_SelectsWithinTokenBudget(t *testing.T) {
	// The sum of selected items' estimated tokens stays within budget.
	p := New("p1")
	results := []engine.Result{
		{ID: "a", Content: strings.Repeat("x", 40)}, // 10 tokens
		{ID: "b", Content: strings.Repeat("y", 40)}, // 10 tokens
		{ID: "c", Content: strings.Repeat("z", 40)}, // 10 tokens
	}
	g := p.Ground(results, "q", "q", nil, 20)

	require.Len(t, g.Proof.Selected, 2)
	total := 0
	for _, s := range g.Proof.Selected {
		total += s.EstimatedTokens
	}
	require.LessOrEqual(t, total, 20)
	require.Len(t, g.Proof.ExcludedTop, 1)
	require.Equal(t, "c", g.Proof.ExcludedTop[0].ID)
}

func TestGround_DefaultsTokenBudget(t *testing.T) {
	p := New("p1")
	g := p.Ground(nil, "q", "q", nil, 0)
	require.Equal(t, defaultTokenBudget, g.Proof.TokenBudget)
}

func TestGround_VerifiedContextCitesSourceAndScore(t *testing.T) {
	p := New("p1")
	results := []engine.Result{{ID: "m1", Content: "hello", Score: 12.5}}
	g := p.Ground(results, "q", "q", nil, 500)

	require.Contains(t, g.VerifiedContext, "hello")
	require.Contains(t, g.VerifiedContext, "source=m1")
	require.Contains(t, g.VerifiedContext, "score=12.5000")
	require.Contains(t, g.VerifiedContext, "Cite by memory id")
}

func TestRecallGrounded_CacheMissOnDeletedMemory(t *testing.T) {
	p := New("p1")
	id := p.Memories.Add("hello world", []string{"tok:hello"}, nil)
	p.Lexicon.AddWithID("cue:tok:hello", "tok:hello", []string{"tok:hello"}, nil)

	first := p.RecallGrounded("hello", 500, 10)
	require.Len(t, first.Proof.Selected, 1)
	require.Equal(t, id, first.Proof.Selected[0].ID)

	p.Memories.Delete(id)

	second := p.RecallGrounded("hello", 500, 10)
	require.Empty(t, second.Proof.Selected, "stale cache entry referencing a deleted memory must be treated as a miss")
}
