// Package snapshot implements the Project durability layer: periodic and
// shutdown-time persistence of a Project's three engines to a single
// gob-encoded file, saved atomically via a temp-file-then-rename.
package snapshot

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuemap/cuemap/internal/engine"
	"github.com/cuemap/cuemap/internal/project"
)

func init() {
	// Memory.Metadata is a map[string]any populated from JSON request
	// bodies; gob needs every concrete type that can appear behind that
	// interface registered up front.
	gob.Register("")
	gob.Register(float64(0))
	gob.Register(true)
	gob.Register([]any{})
	gob.Register(map[string]any{})
}

// CurrentVersion is the on-disk format version this build writes and reads.
const CurrentVersion uint32 = 1

// ErrVersionMismatch is returned by Load when a snapshot file was written by
// an incompatible format version. Callers treat this the same as a
// deserialization failure: log and proceed with no prior state.
var ErrVersionMismatch = errors.New("snapshot: version mismatch")

// engineData is the gob-serializable form of one engine.Engine: its
// memories keyed by id, and its cue index as most-recent-first id lists.
type engineData struct {
	Memories map[string]engine.Memory
	CueIndex map[string][]string
}

// Snapshot is the on-disk format: a Project's Memory Store and Cue Index,
// plus its Alias Registry and Lexicon (both realized as the same engine
// type — see DESIGN.md for why the literal two-field format is extended to
// cover all three engines a Project owns).
type Snapshot struct {
	Version uint32
	SavedAt int64

	Memories map[string]engine.Memory
	CueIndex map[string][]string

	Aliases    map[string]engine.Memory
	AliasIndex map[string][]string

	Lexicon      map[string]engine.Memory
	LexiconIndex map[string][]string
}

// encodeEngine walks an engine's Store and CueIndex into their
// gob-serializable form. CueIndex entries are recorded most-recent-first
// (OrderedSet.Recent(0) order); Restore replays them in reverse so the
// reconstructed tail matches the original.
func encodeEngine(e *engine.Engine) engineData {
	data := engineData{
		Memories: make(map[string]engine.Memory),
		CueIndex: make(map[string][]string),
	}
	e.Store.Range(func(id string, m *engine.Memory) bool {
		data.Memories[id] = *m
		return true
	})
	e.Index.Range(func(cue string, set *engine.OrderedSet) bool {
		data.CueIndex[cue] = set.Recent(0)
		return true
	})
	return data
}

// Encode captures a Project's current state as a Snapshot stamped with the
// caller-supplied save time (Unix seconds).
func Encode(p *project.Project, savedAt int64) Snapshot {
	mem := encodeEngine(p.Memories)
	alias := encodeEngine(p.Aliases)
	lex := encodeEngine(p.Lexicon)
	return Snapshot{
		Version:      CurrentVersion,
		SavedAt:      savedAt,
		Memories:     mem.Memories,
		CueIndex:     mem.CueIndex,
		Aliases:      alias.Memories,
		AliasIndex:   alias.CueIndex,
		Lexicon:      lex.Memories,
		LexiconIndex: lex.CueIndex,
	}
}

func restoreEngine(e *engine.Engine, memories map[string]engine.Memory, cueIndex map[string][]string) {
	for id, m := range memories {
		mm := m
		e.Store.Put(&mm)
	}
	for cue, ids := range cueIndex {
		for i := len(ids) - 1; i >= 0; i-- {
			e.Index.Append(cue, ids[i])
		}
	}
}

// Restore builds a fresh Project for id from the Snapshot's captured state.
// Taxonomy and normalization are not part of the snapshot format — a
// restored Project gets the same defaults a brand-new one would.
func (s Snapshot) Restore(id string) *project.Project {
	p := project.New(id)
	restoreEngine(p.Memories, s.Memories, s.CueIndex)
	restoreEngine(p.Aliases, s.Aliases, s.AliasIndex)
	restoreEngine(p.Lexicon, s.Lexicon, s.LexiconIndex)
	return p
}

// Save serializes the Project to path atomically: encode to gob, write to a
// sibling temp file, then rename over the destination. The temp file is
// created in the same directory as path so the rename is guaranteed to stay
// within one filesystem.
func Save(path string, p *project.Project, savedAt int64) error {
	return writeFile(path, Encode(p, savedAt))
}

func writeFile(path string, snap Snapshot) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("snapshot: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("snapshot: rename into place: %w", err)
	}
	return nil
}

// Load reads and decodes the snapshot at path. A missing file is not an
// error: it returns (nil, nil), meaning "no prior state". A version
// mismatch or a decode failure returns a non-nil error; callers treat both
// the same as absence, after logging.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	defer f.Close()

	var snap Snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", path, err)
	}
	if snap.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: file has version %d, expected %d", ErrVersionMismatch, snap.Version, CurrentVersion)
	}
	return &snap, nil
}

// A valid Project id is 3-64 chars, alphanumeric, '-', or '_'.
const (
	MinProjectIDLen = 3
	MaxProjectIDLen = 64
)

// ValidProjectID reports whether id is an acceptable Project/file-naming
// identifier.
func ValidProjectID(id string) bool {
	if len(id) < MinProjectIDLen || len(id) > MaxProjectIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// PathFor computes the snapshot file path for a project id under dataDir.
// Single-tenant hosts pass multiTenant=false and get a fixed "cuemap.bin" in
// dataDir; multi-tenant hosts get "<dataDir>/snapshots/<id>.bin".
func PathFor(dataDir, projectID string, multiTenant bool) string {
	if !multiTenant {
		return filepath.Join(dataDir, "cuemap.bin")
	}
	return filepath.Join(dataDir, "snapshots", projectID+".bin")
}

// SnapshotsDir returns the directory multi-tenant hosts scan to discover
// which projects have persisted state.
func SnapshotsDir(dataDir string) string {
	return filepath.Join(dataDir, "snapshots")
}
