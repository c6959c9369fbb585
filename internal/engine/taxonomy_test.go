package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaxonomy_UnrestrictedAcceptsAnyCanonicalCue(t *testing.T) {
	tx := NewTaxonomy()
	report := tx.Validate([]string{"topic:golang", "not-a-cue", "mood: "})
	require.Equal(t, []string{"topic:golang"}, report.Accepted)
	require.Len(t, report.Rejected, 2)
	require.Equal(t, RejectBadFormat, report.Rejected[0].Reason)
	require.Equal(t, RejectBadFormat, report.Rejected[1].Reason)
}

func TestTaxonomy_UnknownKeyRejected(t *testing.T) {
	tx := NewTaxonomy()
	tx.AllowedKeys = map[string]struct{}{"topic": {}}

	report := tx.Validate([]string{"topic:golang", "mood:happy"})
	require.Equal(t, []string{"topic:golang"}, report.Accepted)
	require.Len(t, report.Rejected, 1)
	require.Equal(t, "mood:happy", report.Rejected[0].Cue)
	require.Equal(t, RejectUnknownKey, report.Rejected[0].Reason)
}

func TestTaxonomy_UnknownValueRejected(t *testing.T) {
	tx := NewTaxonomy()
	tx.AllowedKeys = map[string]struct{}{"topic": {}}
	tx.AllowedValues = map[string]map[string]struct{}{
		"topic": {"golang": {}},
	}

	report := tx.Validate([]string{"topic:golang", "topic:rust"})
	require.Equal(t, []string{"topic:golang"}, report.Accepted)
	require.Len(t, report.Rejected, 1)
	require.Equal(t, RejectUnknownValue, report.Rejected[0].Reason)
}

func TestTaxonomy_ValuePrefixAllowed(t *testing.T) {
	tx := NewTaxonomy()
	tx.AllowedKeys = map[string]struct{}{"path": {}}
	tx.AllowedValuePrefixes = map[string][]string{
		"path": {"src/"},
	}

	report := tx.Validate([]string{"path:src/main.go", "path:docs/readme.md"})
	require.Equal(t, []string{"path:src/main.go"}, report.Accepted)
	require.Len(t, report.Rejected, 1)
	require.Equal(t, "path:docs/readme.md", report.Rejected[0].Cue)
}

func TestTaxonomy_KeyWithNoValueConstraintAllowsAnyValue(t *testing.T) {
	tx := NewTaxonomy()
	tx.AllowedKeys = map[string]struct{}{"topic": {}, "mood": {}}
	tx.AllowedValues = map[string]map[string]struct{}{
		"topic": {"golang": {}},
	}

	report := tx.Validate([]string{"mood:anything"})
	require.Equal(t, []string{"mood:anything"}, report.Accepted)
	require.Empty(t, report.Rejected)
}
