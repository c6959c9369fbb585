package agent

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cuemap/cuemap/internal/jobs"
)

type recordingEnqueuer struct {
	jobs []jobs.Job
}

func (r *recordingEnqueuer) Enqueue(j jobs.Job) bool {
	r.jobs = append(r.jobs, j)
	return true
}

func TestHandleWrite_EnqueuesChunksThenVerifyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# A\nfirst\n\n# B\nsecond\n"), 0o644))

	rec := &recordingEnqueuer{}
	w := &Watcher{projectID: "default", jobs: rec, timers: make(map[string]*time.Timer)}
	w.handleWrite(path)

	require.Len(t, rec.jobs, 3)
	first, ok := rec.jobs[0].(jobs.ExtractAndIngest)
	require.True(t, ok)
	require.Equal(t, "default", first.ProjectID)
	require.Equal(t, path, first.FilePath)
	require.Contains(t, first.MemoryID, "file:")

	last, ok := rec.jobs[2].(jobs.VerifyFile)
	require.True(t, ok)
	require.Len(t, last.ValidMemoryIDs, 2)
	require.Equal(t, first.MemoryID, last.ValidMemoryIDs[0])
}

func TestHandleRemove_EnqueuesEmptyVerifyFile(t *testing.T) {
	rec := &recordingEnqueuer{}
	w := &Watcher{projectID: "default", jobs: rec, timers: make(map[string]*time.Timer)}
	w.handleRemove("/some/path.md")

	require.Len(t, rec.jobs, 1)
	vf, ok := rec.jobs[0].(jobs.VerifyFile)
	require.True(t, ok)
	require.Empty(t, vf.ValidMemoryIDs)
	require.Equal(t, "/some/path.md", vf.FilePath)
}

func TestChunkID_DeterministicPerPathAndIndex(t *testing.T) {
	id1 := chunkID("/a/b.md", 0)
	id2 := chunkID("/a/b.md", 0)
	id3 := chunkID("/a/b.md", 1)
	require.Equal(t, id1, id2)
	require.NotEqual(t, id1, id3)
}
