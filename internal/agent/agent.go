// Package agent implements the filesystem ingestion agent: a directory
// watcher that turns file creates/writes/removes into background jobs on
// the job queue, per-path debounced and format-aware chunked.
package agent

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/cuemap/cuemap/internal/jobs"
)

// enqueuer is the subset of *jobs.Queue the watcher depends on, so tests can
// substitute a recording fake.
type enqueuer interface {
	Enqueue(job jobs.Job) bool
}

// Watcher observes a directory and enqueues ingestion jobs against a single
// Project as files are created, modified, or removed.
type Watcher struct {
	dir       string
	projectID string
	throttle  time.Duration
	jobs      enqueuer

	fsw *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a Watcher rooted at dir, enqueueing jobs for projectID on q.
// throttle debounces repeated write events for the same path; zero disables
// debouncing.
func New(dir, projectID string, throttle time.Duration, q *jobs.Queue) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("agent: create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("agent: watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:       dir,
		projectID: projectID,
		throttle:  throttle,
		jobs:      q,
		fsw:       fsw,
		timers:    make(map[string]*time.Timer),
	}, nil
}

// Run consumes fsnotify events until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) {
	log.Info("agent: watching directory", "dir", w.dir)
	defer func() { _ = w.fsw.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error("agent: watcher error", "err", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.cancelTimer(event.Name)
		w.handleRemove(event.Name)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.debounce(event.Name, func() { w.handleWrite(event.Name) })
	}
}

// debounce schedules fn to run after the throttle window, resetting any
// pending timer for the same path.
func (w *Watcher) debounce(path string, fn func()) {
	if w.throttle <= 0 {
		fn()
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.throttle, fn)
}

func (w *Watcher) cancelTimer(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) handleWrite(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		log.Warn("agent: read failed, skipping", "path", path, "err", err)
		return
	}

	chunks := chunkerFor(path).Chunk(string(content))
	ids := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		id := chunkID(path, i)
		ids = append(ids, id)
		w.jobs.Enqueue(jobs.ExtractAndIngest{
			ProjectID: w.projectID,
			MemoryID:  id,
			Content:   chunk,
			FilePath:  path,
		})
	}

	w.jobs.Enqueue(jobs.VerifyFile{
		ProjectID:      w.projectID,
		FilePath:       path,
		ValidMemoryIDs: ids,
	})
}

func (w *Watcher) handleRemove(path string) {
	w.jobs.Enqueue(jobs.VerifyFile{
		ProjectID: w.projectID,
		FilePath:  path,
	})
}

// chunkID derives the deterministic id for the index'th chunk of path.
func chunkID(path string, index int) string {
	sum := sha1.Sum([]byte(path))
	return fmt.Sprintf("file:%s:%d", hex.EncodeToString(sum[:]), index)
}
