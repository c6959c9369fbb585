package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuemap/cuemap/internal/project"
)

// lexiconTrainableCuePrefixes lists cue key prefixes that identify a cue as
// structural bookkeeping rather than a concept worth training into the
// Lexicon (file paths, ids, sources).
var lexiconTrainableCuePrefixes = []string{
	"path:", "id:", "memory_id:", "file:", "alias_id:", "source:",
}

func isLexiconTrainableCue(cue string) bool {
	for _, p := range lexiconTrainableCuePrefixes {
		if strings.HasPrefix(cue, p) {
			return false
		}
	}
	return true
}

// trainLexiconFrom upserts a Lexicon entry for every lexicon-trainable cue
// a memory carries, keyed on that cue and tagged with the tok:/phr: cues of
// the memory content's tokens — the same cue form ResolveText probes with.
func trainLexiconFrom(proj *project.Project, content string, cues []string) {
	tokens := project.Tokenize(content)
	if len(tokens) == 0 {
		return
	}
	tokenCues := make([]string, 0, 2*len(tokens))
	for _, t := range tokens {
		tokenCues = append(tokenCues, "tok:"+t)
	}
	for i := 0; i+1 < len(tokens); i++ {
		tokenCues = append(tokenCues, "phr:"+tokens[i]+"_"+tokens[i+1])
	}
	for _, cue := range cues {
		if !isLexiconTrainableCue(cue) {
			continue
		}
		proj.Lexicon.Upsert("cue:"+cue, cue, tokenCues, nil, false)
	}
}

func (q *Queue) handleTrainLexicon(j TrainLexiconFromMemory) error {
	proj, ok := q.provider.GetProject(j.ProjectID)
	if !ok {
		return fmt.Errorf("jobs: unknown project %q", j.ProjectID)
	}
	mem := proj.Memories.Get(j.MemoryID)
	if mem == nil {
		return fmt.Errorf("jobs: memory %q not found in project %q", j.MemoryID, j.ProjectID)
	}
	trainLexiconFrom(proj, mem.Content, mem.Cues)
	return nil
}

func (q *Queue) handleLlmProposeCues(ctx context.Context, j LlmProposeCues) error {
	proj, ok := q.provider.GetProject(j.ProjectID)
	if !ok {
		return fmt.Errorf("jobs: unknown project %q", j.ProjectID)
	}
	if q.llm == nil {
		return fmt.Errorf("jobs: no LLM client configured")
	}

	proposed, err := q.llm.ProposeCues(ctx, j.Content)
	if err != nil {
		// Per the error-handling design, a failed LLM call leaves the memory
		// without LLM-proposed cues rather than retrying within the job.
		return fmt.Errorf("llm propose cues: %w", err)
	}

	normalized := make([]string, 0, len(proposed))
	for _, c := range proposed {
		n, _ := proj.Normalization.Normalize(c)
		normalized = append(normalized, n)
	}
	report := proj.Taxonomy.Validate(normalized)
	if len(report.Accepted) == 0 {
		return nil
	}

	if !proj.Memories.AttachCues(j.MemoryID, report.Accepted) {
		return nil
	}
	mem := proj.Memories.Get(j.MemoryID)
	if mem != nil {
		trainLexiconFrom(proj, mem.Content, report.Accepted)
	}
	return nil
}

func (q *Queue) handleExtractAndIngest(ctx context.Context, j ExtractAndIngest) error {
	proj, ok := q.provider.GetProject(j.ProjectID)
	if !ok {
		return fmt.Errorf("jobs: unknown project %q", j.ProjectID)
	}
	if q.llm == nil {
		return fmt.Errorf("jobs: no LLM client configured")
	}

	summary, proposed, err := q.llm.ExtractSummaryAndCues(ctx, j.Content)
	if err != nil {
		return fmt.Errorf("llm extract summary and cues: %w", err)
	}

	cues := make([]string, 0, len(proposed)+2)
	for _, c := range proposed {
		n, _ := proj.Normalization.Normalize(c)
		cues = append(cues, n)
	}
	report := proj.Taxonomy.Validate(cues)
	accepted := append(report.Accepted, "path:"+j.FilePath, "source:agent")

	content := summary
	if content == "" {
		content = j.Content
	}
	proj.Memories.Upsert(j.MemoryID, content, accepted, nil, false)

	mem := proj.Memories.Get(j.MemoryID)
	if mem != nil {
		trainLexiconFrom(proj, mem.Content, mem.Cues)
	}
	return nil
}

func (q *Queue) handleVerifyFile(j VerifyFile) error {
	proj, ok := q.provider.GetProject(j.ProjectID)
	if !ok {
		return fmt.Errorf("jobs: unknown project %q", j.ProjectID)
	}

	valid := make(map[string]struct{}, len(j.ValidMemoryIDs))
	for _, id := range j.ValidMemoryIDs {
		valid[id] = struct{}{}
	}

	cue := "path:" + j.FilePath
	set := proj.Memories.Index.Get(cue)
	if set == nil {
		return nil
	}
	for _, id := range set.Recent(0) {
		if !strings.HasPrefix(id, "file:") {
			continue
		}
		if _, ok := valid[id]; ok {
			continue
		}
		proj.Memories.Delete(id)
	}
	return nil
}

func (q *Queue) handleProposeAliases(j ProposeAliases) error {
	proj, ok := q.provider.GetProject(j.ProjectID)
	if !ok {
		return fmt.Errorf("jobs: unknown project %q", j.ProjectID)
	}
	return proposeAliases(proj)
}
