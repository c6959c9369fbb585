// Package project bundles the three engines (Memories, Aliases, Lexicon)
// that together make up one isolated unit of state, plus the taxonomy,
// normalization config, and query cache shared across them.
package project

import (
	"github.com/dgraph-io/ristretto/v2"

	"github.com/cuemap/cuemap/internal/engine"
	"github.com/cuemap/cuemap/internal/security"
)

// Project is the unit of isolation: one Memory Store, one Cue Index (via
// Memories), one Alias Registry, one Lexicon, one query cache.
type Project struct {
	ID            string
	Memories      *engine.Engine
	Aliases       *engine.Engine
	Lexicon       *engine.Engine
	Taxonomy      *engine.Taxonomy
	Normalization engine.NormalizationConfig

	cache *ristretto.Cache[string, any]
}

// New returns an empty Project with default (unrestricted) taxonomy and
// normalization, and a cost-bounded query cache for Lexicon resolution and
// grounding-proof memoization.
func New(id string) *Project {
	cache, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: 1e5,
		MaxCost:     1 << 16,
		BufferItems: 64,
	})
	if err != nil {
		// A nil cache degrades every lookup to a miss rather than taking the
		// project down; cache construction only fails on invalid config.
		cache = nil
	}
	return &Project{
		ID:            id,
		Memories:      engine.New(),
		Aliases:       engine.New(),
		Lexicon:       engine.New(),
		Taxonomy:      engine.NewTaxonomy(),
		Normalization: engine.DefaultNormalizationConfig(),
		cache:         cache,
	}
}

func (p *Project) cacheGet(key string) (any, bool) {
	if p.cache == nil {
		return nil, false
	}
	v, ok := p.cache.Get(key)
	if ok {
		security.IncCacheHit()
	} else {
		security.IncCacheMiss()
	}
	return v, ok
}

func (p *Project) cacheSet(key string, val any) {
	if p.cache == nil {
		return
	}
	p.cache.Set(key, val, 1)
	p.cache.Wait()
}

func (p *Project) cacheGetStrings(key string) ([]string, bool) {
	v, ok := p.cacheGet(key)
	if !ok {
		return nil, false
	}
	s, ok := v.([]string)
	return s, ok
}

func (p *Project) cacheSetStrings(key string, val []string) {
	p.cacheSet(key, val)
}

func (p *Project) cacheGetGrounding(key string) (GroundingResult, bool) {
	v, ok := p.cacheGet(key)
	if !ok {
		return GroundingResult{}, false
	}
	g, ok := v.(GroundingResult)
	return g, ok
}

func (p *Project) cacheSetGrounding(key string, val GroundingResult) {
	p.cacheSet(key, val)
}

// Stats aggregates across the Project's three engines.
type Stats struct {
	Memories engine.Stats `json:"memories"`
	Aliases  engine.Stats `json:"aliases"`
	Lexicon  engine.Stats `json:"lexicon"`
}

// Stats summarizes the Project's size. The full cue list is reported for
// the memory store only; the alias and lexicon engines' cue vocabularies
// are internal bookkeeping.
func (p *Project) Stats() Stats {
	return Stats{
		Memories: p.Memories.Stats(true),
		Aliases:  p.Aliases.Stats(false),
		Lexicon:  p.Lexicon.Stats(false),
	}
}
