package project

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/cuemap/cuemap/internal/engine"
)

const (
	defaultTokenBudget        = 500
	maxExcludedTracked        = 5
	defaultGroundingTimestamp = "unknown"
)

// GroundedItem is one selected recall result plus its estimated token cost.
type GroundedItem struct {
	engine.Result
	EstimatedTokens int `json:"estimated_tokens"`
}

// ExcludedItem records a result that didn't make the token budget.
type ExcludedItem struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// GroundingProof is the reproducibility record for one grounded recall.
type GroundingProof struct {
	TraceID         string               `json:"trace_id"`
	QueryText       string               `json:"query_text"`
	NormalizedQuery string               `json:"normalized_query"`
	ExpandedCues    []engine.WeightedCue `json:"expanded_cues"`
	TokenBudget     int                  `json:"token_budget"`
	Selected        []GroundedItem       `json:"selected"`
	ExcludedTop     []ExcludedItem       `json:"excluded_top"`
}

// GroundingResult is the full output of a grounded recall: the assembled
// context block plus its proof.
type GroundingResult struct {
	VerifiedContext string         `json:"verified_context"`
	Proof           GroundingProof `json:"proof"`
}

// estimateTokens approximates token count as one token per four characters.
func estimateTokens(content string) int {
	return int(math.Ceil(float64(len(content)) / 4))
}

// metadataString reads a string metadata field, falling back to def.
func metadataString(meta map[string]any, key, def string) string {
	if meta == nil {
		return def
	}
	if v, ok := meta[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

// Ground greedily selects from a ranked result list within a token budget
// and assembles the citeable context block plus its proof.
func (p *Project) Ground(results []engine.Result, queryText, normalizedQuery string, expandedCues []engine.WeightedCue, tokenBudget int) GroundingResult {
	if tokenBudget <= 0 {
		tokenBudget = defaultTokenBudget
	}

	var selected []GroundedItem
	var excluded []ExcludedItem
	total := 0
	for _, r := range results {
		est := estimateTokens(r.Content)
		if total+est <= tokenBudget {
			selected = append(selected, GroundedItem{Result: r, EstimatedTokens: est})
			total += est
			continue
		}
		if len(excluded) < maxExcludedTracked {
			excluded = append(excluded, ExcludedItem{
				ID:     r.ID,
				Reason: fmt.Sprintf("Exceeds remaining token budget (needs %d, has %d)", est, tokenBudget-total),
			})
		}
	}

	var sb strings.Builder
	sb.WriteString("VERIFIED CONTEXT\n")
	for i, item := range selected {
		source := metadataString(item.Metadata, "source", item.ID)
		ts := metadataString(item.Metadata, "timestamp", defaultGroundingTimestamp)
		fmt.Fprintf(&sb, "(%d) %s (source=%s, score=%.4f, ts=%s)\n", i+1, item.Content, source, item.Score, ts)
	}
	sb.WriteString("\nUse only VERIFIED CONTEXT above to answer.\n")
	sb.WriteString("Respond 'Unknown' if the answer is not present above.\n")
	sb.WriteString("Cite by memory id.\n")

	return GroundingResult{
		VerifiedContext: sb.String(),
		Proof: GroundingProof{
			TraceID:         uuid.NewString(),
			QueryText:       queryText,
			NormalizedQuery: normalizedQuery,
			ExpandedCues:    expandedCues,
			TokenBudget:     tokenBudget,
			Selected:        selected,
			ExcludedTop:     excluded,
		},
	}
}

// proofStillValid reports whether every memory a cached proof selected
// still resolves; used to invalidate a stale cache hit.
func (p *Project) proofStillValid(g GroundingResult) bool {
	for _, item := range g.Proof.Selected {
		if p.Memories.Get(item.ID) == nil {
			return false
		}
	}
	return true
}

// RecallGrounded runs lexicon resolution, alias expansion, and ranking for
// free-text query, then assembles a token-budgeted grounded answer. Proofs
// are memoized by (normalized query, token budget); a cache hit is only
// honored if every memory it selected still exists.
func (p *Project) RecallGrounded(queryText string, tokenBudget, limit int) GroundingResult {
	if tokenBudget <= 0 {
		tokenBudget = defaultTokenBudget
	}
	if limit <= 0 {
		limit = 10
	}
	normalizedQuery := strings.ToLower(strings.TrimSpace(queryText))
	key := fmt.Sprintf("ground:%s:%d", normalizedQuery, tokenBudget)

	if cached, ok := p.cacheGetGrounding(key); ok && p.proofStillValid(cached) {
		return cached
	}

	cues := p.ResolveText(queryText)
	expanded := p.ExpandQuery(cues)
	results := p.Memories.Recall(expanded, engine.RecallOptions{Limit: limit})

	result := p.Ground(results, queryText, normalizedQuery, expanded, tokenBudget)
	p.cacheSetGrounding(key, result)
	return result
}
