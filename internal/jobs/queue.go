package jobs

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/cuemap/cuemap/internal/llm"
	"github.com/cuemap/cuemap/internal/project"
	"github.com/cuemap/cuemap/internal/security"
)

// ProjectProvider resolves a project id to its live Project. It has two
// realizations: a single-Project host and the multi-tenant dispatcher.
type ProjectProvider interface {
	GetProject(id string) (*project.Project, bool)
}

// Queue is a single-consumer, bounded, best-effort job FIFO.
type Queue struct {
	ch       chan Job
	provider ProjectProvider
	llm      llm.Client

	mu     sync.RWMutex
	closed bool
}

// NewQueue returns a Queue with the given buffer size. Call Run in its own
// goroutine to start consuming.
func NewQueue(provider ProjectProvider, llmClient llm.Client, bufferSize int) *Queue {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	return &Queue{
		ch:       make(chan Job, bufferSize),
		provider: provider,
		llm:      llmClient,
	}
}

// Enqueue is non-blocking best-effort: on a full buffer — or once Close has
// stopped intake during shutdown — the job is dropped and logged rather than
// blocking the caller.
func (q *Queue) Enqueue(job Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		log.Warn("job queue closed, dropping job", "kind", job.Kind())
		security.IncJobsDropped(job.Kind())
		return false
	}
	select {
	case q.ch <- job:
		security.IncJobsEnqueued(job.Kind())
		return true
	default:
		log.Warn("job queue full, dropping job", "kind", job.Kind())
		security.IncJobsDropped(job.Kind())
		return false
	}
}

// Run drains the queue until ctx is canceled or Close is called. Intended
// to be the body of the long-running job-consumer goroutine.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-q.ch:
			if !ok {
				return
			}
			q.process(job)
		}
	}
}

// Close stops intake; the consumer drains whatever is already buffered and
// then returns from Run. Safe to call more than once, and safe against
// concurrent Enqueue calls — they see the closed flag and drop.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

func (q *Queue) process(job Job) {
	var err error
	switch j := job.(type) {
	case TrainLexiconFromMemory:
		err = q.handleTrainLexicon(j)
	case LlmProposeCues:
		err = q.handleLlmProposeCues(context.Background(), j)
	case ProposeAliases:
		err = q.handleProposeAliases(j)
	case ExtractAndIngest:
		err = q.handleExtractAndIngest(context.Background(), j)
	case VerifyFile:
		err = q.handleVerifyFile(j)
	default:
		log.Error("job queue: unknown job kind", "type", job)
		return
	}
	if err != nil {
		log.Error("job failed", "kind", job.Kind(), "err", err)
		security.IncJobsFailed(job.Kind())
	}
}
