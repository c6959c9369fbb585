package project

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenize_DropsStopwordsAndSingleChars(t *testing.T) {
	tokens := tokenize("The quick fox is a friend, a pal, at 9am")
	require.Equal(t, []string{"quick", "fox", "friend", "pal", "9am"}, tokens)
}

func TestLexiconCues_EmitsTokensAndBigrams(t *testing.T) {
	cues := lexiconCues("quick fox jumps")
	require.Equal(t, []string{"tok:quick", "tok:fox", "tok:jumps", "phr:quick_fox", "phr:fox_jumps"}, cues)
}

func TestResolveText_TrainedThenResolved(t *testing.T) {
	p := New("p1")
	p.Lexicon.AddWithID("cue:topic:golang", "topic:golang", []string{"tok:golang", "tok:go"}, nil)

	cues := p.ResolveText("tell me about golang")
	require.Equal(t, []string{"topic:golang"}, cues)
}

func TestResolveText_MemoizesByNormalizedText(t *testing.T) {
	p := New("p1")
	p.Lexicon.AddWithID("cue:topic:golang", "topic:golang", []string{"tok:golang"}, nil)

	first := p.ResolveText("  GOLANG  ")
	p.Lexicon.Delete("cue:topic:golang")
	second := p.ResolveText("golang")

	require.Equal(t, first, second, "second call hits the memoized result, not the now-empty lexicon")
}

func TestResolveText_NoTokensReturnsNil(t *testing.T) {
	p := New("p1")
	require.Empty(t, p.ResolveText("a is the"))
}
