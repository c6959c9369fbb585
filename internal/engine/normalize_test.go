package engine

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_TrimAndLowercase(t *testing.T) {
	cfg := DefaultNormalizationConfig()
	out, trace := cfg.Normalize("  Topic:Golang  ")
	require.Equal(t, "topic:golang", out)
	require.Equal(t, "  Topic:Golang  ", trace.Raw)
	require.Empty(t, trace.AppliedRules)
}

func TestNormalize_Idempotent(t *testing.T) {
	// Normalizing an already-normalized cue is a no-op.
	cfg := DefaultNormalizationConfig()
	once, _ := cfg.Normalize("topic:golang")
	twice, _ := cfg.Normalize(once)
	require.Equal(t, once, twice)
}

func TestNormalize_DedupePrefix(t *testing.T) {
	cfg := DefaultNormalizationConfig()
	out, trace := cfg.Normalize("topic:golang:golang")
	require.Equal(t, "topic:golang", out)
	require.Contains(t, trace.AppliedRules, "dedupe_prefix")
}

func TestNormalize_DedupePrefixLeavesTrailingParts(t *testing.T) {
	out, _ := dedupePrefix("topic:golang:golang:extra")
	require.Equal(t, "topic:golang:extra", out)
}

func TestNormalize_DedupePrefixNoMatch(t *testing.T) {
	out, matched := dedupePrefix("topic:golang:rust")
	require.False(t, matched)
	require.Equal(t, "topic:golang:rust", out)
}

func TestNormalize_RewriteRuleApplied(t *testing.T) {
	// A rewrite rule folds a synonym into its canonical form.
	cfg := NormalizationConfig{
		Lowercase: true,
		Trim:      true,
		RewriteRules: []RewriteRule{
			{Name: "lang_alias", Pattern: regexp.MustCompile(`^topic:golang$`), Replace: "topic:go"},
		},
	}
	out, trace := cfg.Normalize("Topic:Golang")
	require.Equal(t, "topic:go", out)
	require.Contains(t, trace.AppliedRules, "lang_alias")
}

func TestNormalize_RewriteRulesAppliedInOrder(t *testing.T) {
	cfg := NormalizationConfig{
		RewriteRules: []RewriteRule{
			{Name: "first", Pattern: regexp.MustCompile(`^a$`), Replace: "b"},
			{Name: "second", Pattern: regexp.MustCompile(`^b$`), Replace: "c"},
		},
	}
	out, trace := cfg.Normalize("a")
	require.Equal(t, "c", out)
	require.Equal(t, []string{"first", "second"}, trace.AppliedRules)
}
