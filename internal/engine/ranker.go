package engine

import (
	"math"
	"sort"
)

const (
	// MaxRec bounds the recency weight contribution.
	MaxRec = 20.0
	// MaxFreq bounds the frequency weight contribution.
	MaxFreq = 5.0
)

// WeightedCue is a single query cue with its multiplicative weight (1.0 for
// a literal query cue, < 1.0 for an alias-expanded one).
type WeightedCue struct {
	Cue    string
	Weight float64
}

// RecallOptions controls a single ranked-recall call.
type RecallOptions struct {
	Limit           int
	MinIntersection int
	AutoReinforce   bool
	Explain         bool
}

// MatchExplain describes one matched cue's contribution to a result, present
// only when RecallOptions.Explain is set.
type MatchExplain struct {
	Cue            string  `json:"cue"`
	Weight         float64 `json:"weight"`
	ReverseRank    int     `json:"reverse_rank"`
	CueSetSize     int     `json:"cue_set_size"`
	RecencyComp    float64 `json:"recency_component"`
	WeightRecency  float64 `json:"weight_recency"`
	WeightFrequency float64 `json:"weight_frequency"`
}

// Result is one ranked recall hit.
type Result struct {
	ID                   string         `json:"id"`
	Content              string         `json:"content"`
	Metadata             map[string]any `json:"metadata,omitempty"`
	Cues                 []string       `json:"cues"`
	Score                float64        `json:"score"`
	IntersectionWeighted float64        `json:"intersection_weighted"`
	RecencyScore         float64        `json:"recency_score"`
	ReinforcementScore   float64        `json:"reinforcement_score"`
	AvgWeightRecency     float64        `json:"avg_w_rec"`
	AvgWeightFrequency   float64        `json:"avg_w_freq"`
	MatchCount           int            `json:"match_count"`
	Explain              []MatchExplain `json:"explain,omitempty"`
}

type candidate struct {
	matches []MatchExplain
	weight  float64 // sum of matched cue weights
}

// Recall scores every memory reachable from query against the weighted cue
// set and returns the top Limit results. Absent cues are silently ignored;
// if none of the query cues exist in the index, the result is empty.
func (e *Engine) Recall(query []WeightedCue, opts RecallOptions) []Result {
	type activeCue struct {
		cue    string
		weight float64
		set    *OrderedSet
	}

	active := make([]activeCue, 0, len(query))
	for _, q := range query {
		if set := e.Index.Get(q.Cue); set != nil {
			active = append(active, activeCue{cue: q.Cue, weight: q.Weight, set: set})
		}
	}
	if len(active) == 0 {
		return nil
	}

	candidates := make(map[string]*candidate)
	seen := make(map[string]struct{})

	for _, driver := range active {
		for p, id := range driver.set.Recent(MaxDriverScan) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}

			c := &candidate{}
			for _, probe := range active {
				var pj int
				var lenJ int
				var ok bool
				if probe.cue == driver.cue {
					pj, lenJ, ok = p, driver.set.Len(), true
				} else {
					pj, ok = probe.set.IndexOf(id)
					lenJ = probe.set.Len()
				}
				if !ok {
					continue
				}
				sigma := math.Sqrt(float64(lenJ))
				if sigma == 0 {
					sigma = 1
				}
				r := float64(pj) / sigma
				wRec := MaxRec / (r + 1)
				wFreq := 1 + MaxFreq*(1-1/(r+1))
				recComp := 1 / (float64(pj) + 1)
				if pj == 0 {
					recComp += 1
				}
				c.matches = append(c.matches, MatchExplain{
					Cue:             probe.cue,
					Weight:          probe.weight,
					ReverseRank:     pj,
					CueSetSize:      lenJ,
					RecencyComp:     recComp,
					WeightRecency:   wRec,
					WeightFrequency: wFreq,
				})
				c.weight += probe.weight
			}
			if len(c.matches) > 0 {
				candidates[id] = c
			}
		}
	}

	results := make([]Result, 0, len(candidates))
	for id, c := range candidates {
		k := float64(len(c.matches))
		if opts.MinIntersection > 0 && len(c.matches) < opts.MinIntersection {
			continue
		}
		var sumRecComp, sumWRec, sumWFreq float64
		for _, m := range c.matches {
			sumRecComp += m.RecencyComp * m.Weight
			sumWRec += m.WeightRecency
			sumWFreq += m.WeightFrequency
		}
		recency := sumRecComp / k
		avgWRec := sumWRec / k
		avgWFreq := sumWFreq / k

		mem, ok := e.Store.getRef(id)
		if !ok {
			continue
		}
		freq := 0.0
		if mem.ReinforcementCount > 0 {
			freq = math.Log10(float64(mem.ReinforcementCount))
		}

		inter := 100 * c.weight
		score := inter + recency*avgWRec + freq*avgWFreq

		r := Result{
			ID:                   id,
			Content:              mem.Content,
			Metadata:             mem.Metadata,
			Cues:                 mem.Cues,
			Score:                score,
			IntersectionWeighted: c.weight,
			RecencyScore:         recency,
			ReinforcementScore:   freq,
			AvgWeightRecency:     avgWRec,
			AvgWeightFrequency:   avgWFreq,
			MatchCount:           len(c.matches),
		}
		if opts.Explain {
			r.Explain = c.matches
		}
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if opts.AutoReinforce {
		cues := make([]string, len(query))
		for i, q := range query {
			cues[i] = q.Cue
		}
		for _, r := range results {
			e.Reinforce(r.ID, cues)
		}
	}

	limit := opts.Limit
	if limit <= 0 || limit > len(results) {
		limit = len(results)
	}
	return results[:limit]
}
