package jobs

import (
	"encoding/json"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cuemap/cuemap/internal/engine"
	"github.com/cuemap/cuemap/internal/project"
)

const (
	aliasMinCueMemories         = 20
	aliasMaxCueMemories         = 50_000
	aliasMaxCandidates          = 1500
	aliasSampleSize             = 512
	aliasSizeSimilarityMaxRatio = 0.10
	aliasOverlapThreshold       = 0.90
	aliasSampleOverlapThreshold = aliasOverlapThreshold - 0.15
	aliasTopGenericDropFraction = 0.01
)

type cueSample struct {
	cue    string
	size   int
	sample map[string]struct{}
	full   map[string]struct{}
}

func toIDSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// jaccardLike computes |A∩B| / min(|A|,|B|) — an overlap coefficient, not a
// true Jaccard index; the same measure is used for both the sampled and the
// exact overlap checks.
func jaccardLike(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	inter := 0
	for k := range small {
		if _, ok := big[k]; ok {
			inter++
		}
	}
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	return float64(inter) / float64(minLen)
}

func sizeSimilar(a, b int) bool {
	max := a
	if b > max {
		max = b
	}
	if max == 0 {
		return true
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return float64(diff)/float64(max) <= aliasSizeSimilarityMaxRatio
}

func subTokens(s string) map[string]struct{} {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ':' || r == '-' || r == '_'
	})
	out := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		if len(p) >= 3 {
			out[p] = struct{}{}
		}
	}
	return out
}

// lexicalGate keeps pairs where one string contains the other, or they
// share a significant sub-token.
func lexicalGate(a, b string) bool {
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	ta := subTokens(a)
	for t := range subTokens(b) {
		if _, ok := ta[t]; ok {
			return true
		}
	}
	return false
}

// canonicalize picks the canonical cue between a and b: whichever is in
// well-formed "key:value" form; if both or neither qualify, the
// lexicographically smaller. The other becomes the alias.
func canonicalize(a, b string) (canonical, alias string) {
	aKV, bKV := engine.IsCanonicalCue(a), engine.IsCanonicalCue(b)
	switch {
	case aKV && !bKV:
		return a, b
	case bKV && !aKV:
		return b, a
	default:
		if a < b {
			return a, b
		}
		return b, a
	}
}

func maxParallelComparisons() int {
	if n := runtime.GOMAXPROCS(0); n > 1 {
		return n
	}
	return 1
}

// proposeAliases discovers near-synonym cue pairs by
// cardinality-filtered, sampled, pairwise overlap comparison and register
// them as proposed aliases.
func proposeAliases(proj *project.Project) error {
	type cueSize struct {
		cue  string
		size int
	}
	var sized []cueSize
	proj.Memories.Index.Range(func(cue string, set *engine.OrderedSet) bool {
		if len(cue) < 3 {
			return true
		}
		n := set.Len()
		if n < aliasMinCueMemories || n > aliasMaxCueMemories {
			return true
		}
		sized = append(sized, cueSize{cue: cue, size: n})
		return true
	})
	sort.Slice(sized, func(i, j int) bool { return sized[i].size > sized[j].size })

	drop := int(float64(len(sized)) * aliasTopGenericDropFraction)
	if drop >= len(sized) {
		sized = nil
	} else {
		sized = sized[drop:]
	}
	if len(sized) > aliasMaxCandidates {
		sized = sized[:aliasMaxCandidates]
	}

	samples := make([]cueSample, len(sized))
	for i, cs := range sized {
		set := proj.Memories.Index.Get(cs.cue)
		if set == nil {
			continue
		}
		samples[i] = cueSample{
			cue:    cs.cue,
			size:   cs.size,
			full:   toIDSet(set.Recent(0)),
			sample: toIDSet(set.Recent(aliasSampleSize)),
		}
	}

	var (
		mu        sync.Mutex
		proposals int
	)
	g := new(errgroup.Group)
	g.SetLimit(maxParallelComparisons())

	for i := range samples {
		i := i
		g.Go(func() error {
			for j := i + 1; j < len(samples); j++ {
				a, b := samples[i], samples[j]
				if !sizeSimilar(a.size, b.size) {
					continue
				}
				if !lexicalGate(a.cue, b.cue) {
					continue
				}
				if jaccardLike(a.sample, b.sample) < aliasSampleOverlapThreshold {
					continue
				}
				exact := jaccardLike(a.full, b.full)
				if exact < aliasOverlapThreshold {
					continue
				}

				canonical, alias := canonicalize(a.cue, b.cue)
				aliasID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(alias+"->"+canonical)).String()
				if proj.Aliases.Get(aliasID) != nil {
					continue
				}

				rec := project.AliasRecord{
					From:       alias,
					To:         canonical,
					Downweight: exact,
					Status:     "proposed",
					Reason:     "overlap_analysis",
				}
				body, err := json.Marshal(rec)
				if err != nil {
					continue
				}
				proj.Aliases.AddWithID(aliasID, string(body),
					[]string{"type:alias", "from:" + alias, "to:" + canonical, "status:proposed"}, nil)

				mu.Lock()
				proposals++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("alias proposal pass complete", "project", proj.ID, "candidates", len(samples), "proposed", proposals)
	return nil
}
