package project

import (
	"encoding/json"

	"github.com/cuemap/cuemap/internal/engine"
)

// defaultDownweight is applied when an alias record's content omits (or
// zeroes) the downweight field.
const defaultDownweight = 0.85

// AliasRecord is the JSON document stored as an Alias Memory's content.
type AliasRecord struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Downweight float64 `json:"downweight"`
	Status     string  `json:"status"`
	Reason     string  `json:"reason"`
}

// ExpandQuery rewrites a list of normalized canonical query cues into a
// weighted cue list: each input cue passes through at weight 1.0, plus one
// entry per active alias registered against it at the alias's downweight.
func (p *Project) ExpandQuery(cues []string) []engine.WeightedCue {
	out := make([]engine.WeightedCue, 0, len(cues))
	for _, c := range cues {
		if c == "" {
			continue
		}
		out = append(out, engine.WeightedCue{Cue: c, Weight: 1.0})

		query := []engine.WeightedCue{
			{Cue: "type:alias", Weight: 1},
			{Cue: "from:" + c, Weight: 1},
			{Cue: "status:active", Weight: 1},
		}
		hits := p.Aliases.Recall(query, engine.RecallOptions{
			Limit:           8,
			MinIntersection: 3,
			AutoReinforce:   true,
		})
		for _, h := range hits {
			var rec AliasRecord
			if err := json.Unmarshal([]byte(h.Content), &rec); err != nil {
				continue
			}
			if rec.To == "" {
				continue
			}
			downweight := rec.Downweight
			if downweight <= 0 || downweight > 1 {
				downweight = defaultDownweight
			}
			out = append(out, engine.WeightedCue{Cue: rec.To, Weight: downweight})
		}
	}
	return out
}
