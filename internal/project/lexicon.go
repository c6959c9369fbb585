package project

import (
	"regexp"
	"strings"

	"github.com/cuemap/cuemap/internal/engine"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

var stopwords = map[string]struct{}{
	"the": {}, "is": {}, "at": {}, "which": {}, "on": {}, "in": {}, "a": {},
	"an": {}, "and": {}, "or": {}, "for": {}, "to": {}, "of": {}, "it": {},
	"this": {}, "that": {},
}

// tokenize lowercases text, extracts maximal alphanumeric runs, and drops
// stopwords and single-character tokens.
func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if len(t) <= 1 {
			continue
		}
		if _, stop := stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Tokenize exposes the same lowercase/stopword-filtered tokenization used
// for query-side lexicon resolution, for lexicon-training callers that build
// their own tok:/phr: entry cues from the raw token list.
func Tokenize(text string) []string {
	return tokenize(text)
}

// lexiconCues derives the tok:/phr: query cues used to probe the Lexicon
// for a piece of free text.
func lexiconCues(text string) []string {
	tokens := tokenize(text)
	cues := make([]string, 0, 2*len(tokens))
	for _, t := range tokens {
		cues = append(cues, "tok:"+t)
	}
	for i := 0; i+1 < len(tokens); i++ {
		cues = append(cues, "phr:"+tokens[i]+"_"+tokens[i+1])
	}
	return cues
}

// ResolveText maps free text to the canonical cues the Lexicon believes it
// implies: tokenize, probe the Lexicon, normalize and validate each hit
// against the Project's taxonomy, and keep what's accepted. Memoized by the
// lowercased, trimmed query text.
func (p *Project) ResolveText(text string) []string {
	key := "lex:" + strings.ToLower(strings.TrimSpace(text))
	if cached, ok := p.cacheGetStrings(key); ok {
		return cached
	}

	cues := lexiconCues(text)
	if len(cues) == 0 {
		return nil
	}
	query := make([]engine.WeightedCue, len(cues))
	for i, c := range cues {
		query[i] = engine.WeightedCue{Cue: c, Weight: 1}
	}

	hits := p.Lexicon.Recall(query, engine.RecallOptions{Limit: 8, AutoReinforce: true})

	var accepted []string
	for _, h := range hits {
		normalized, _ := p.Normalization.Normalize(h.Content)
		report := p.Taxonomy.Validate([]string{normalized})
		accepted = append(accepted, report.Accepted...)
	}

	p.cacheSetStrings(key, accepted)
	return accepted
}
