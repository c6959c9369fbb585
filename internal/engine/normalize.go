package engine

import (
	"regexp"
	"strings"
)

// RewriteRule rewrites any cue matching Pattern to Replace (regexp.ReplaceAll
// semantics, so Replace may reference capture groups as $1 etc).
type RewriteRule struct {
	Name    string
	Pattern *regexp.Regexp
	Replace string
}

// NormalizationConfig is an ordered pipeline of rewrite rules applied after
// trimming and lowercasing, followed by duplicate-prefix collapsing.
type NormalizationConfig struct {
	Lowercase    bool
	Trim         bool
	RewriteRules []RewriteRule
}

// DefaultNormalizationConfig trims and lowercases with no rewrite rules.
func DefaultNormalizationConfig() NormalizationConfig {
	return NormalizationConfig{Lowercase: true, Trim: true}
}

// NormalizeTrace records what normalization did to a single raw cue.
type NormalizeTrace struct {
	Raw          string   `json:"raw"`
	Normalized   string   `json:"normalized"`
	AppliedRules []string `json:"applied_rules,omitempty"`
}

// Normalize applies trim, lowercase, each matching rewrite rule in order,
// and finally duplicate-prefix collapsing ("k:v:v" -> "k:v").
func (cfg NormalizationConfig) Normalize(raw string) (string, NormalizeTrace) {
	trace := NormalizeTrace{Raw: raw}
	s := raw
	if cfg.Trim {
		s = strings.TrimSpace(s)
	}
	if cfg.Lowercase {
		s = strings.ToLower(s)
	}
	for _, rule := range cfg.RewriteRules {
		if rule.Pattern == nil {
			continue
		}
		if rule.Pattern.MatchString(s) {
			s = rule.Pattern.ReplaceAllString(s, rule.Replace)
			trace.AppliedRules = append(trace.AppliedRules, rule.Name)
		}
	}
	if deduped, ok := dedupePrefix(s); ok {
		s = deduped
		trace.AppliedRules = append(trace.AppliedRules, "dedupe_prefix")
	}
	trace.Normalized = s
	return s, trace
}

// dedupePrefix collapses "a:b:b:..." to "a:b:...": if the 2nd and 3rd
// colon-separated parts are equal and non-empty, drop the 3rd.
func dedupePrefix(s string) (string, bool) {
	parts := strings.Split(s, ":")
	if len(parts) >= 3 && parts[1] == parts[2] && parts[1] != "" {
		out := append([]string{}, parts[:2]...)
		out = append(out, parts[3:]...)
		return strings.Join(out, ":"), true
	}
	return s, false
}
