// Package jobs implements the background job queue: lexicon training,
// LLM-proposed cues, alias discovery, file extraction, and file-chunk
// pruning, all dispatched from a single bounded FIFO.
package jobs

// Job is a self-describing tagged record the queue's consumer dispatches
// on by concrete type.
type Job interface {
	Kind() string
}

// TrainLexiconFromMemory retrains the Lexicon from one memory's content and
// its lexicon-trainable cues.
type TrainLexiconFromMemory struct {
	ProjectID string
	MemoryID  string
}

func (TrainLexiconFromMemory) Kind() string { return "train_lexicon_from_memory" }

// LlmProposeCues asks the configured LLM to propose cues for a memory
// that already exists, then attaches the accepted ones.
type LlmProposeCues struct {
	ProjectID string
	MemoryID  string
	Content   string
}

func (LlmProposeCues) Kind() string { return "llm_propose_cues" }

// ProposeAliases runs the pairwise cue-overlap analysis over a
// Project and registers any discovered near-synonyms.
type ProposeAliases struct {
	ProjectID string
}

func (ProposeAliases) Kind() string { return "propose_aliases" }

// ExtractAndIngest asks the configured LLM to summarize and propose cues
// for a freshly-chunked file, then upserts the memory.
type ExtractAndIngest struct {
	ProjectID string
	MemoryID  string
	Content   string
	FilePath  string
}

func (ExtractAndIngest) Kind() string { return "extract_and_ingest" }

// VerifyFile prunes chunk memories under path:<FilePath> that are no
// longer in ValidMemoryIDs (an empty set prunes all of them).
type VerifyFile struct {
	ProjectID      string
	FilePath       string
	ValidMemoryIDs []string
}

func (VerifyFile) Kind() string { return "verify_file" }
