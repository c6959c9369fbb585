// Package tenant implements the Multi-tenant Dispatcher: a registry mapping
// tenant (project) ids to isolated Projects, with bulk snapshot save/load.
package tenant

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cuemap/cuemap/internal/project"
	"github.com/cuemap/cuemap/internal/snapshot"
)

// DefaultProjectID names the single Project a non-multi-tenant host uses.
const DefaultProjectID = "default"

// Dispatcher maps project ids to Projects, creating Projects on first use.
// Project state is otherwise completely isolated between tenants.
type Dispatcher struct {
	mu          sync.RWMutex
	projects    map[string]*project.Project
	dataDir     string
	multiTenant bool
}

// New returns an empty Dispatcher rooted at dataDir. In single-tenant mode
// every lookup resolves to the one DefaultProjectID Project regardless of
// the id requested.
func New(dataDir string, multiTenant bool) *Dispatcher {
	return &Dispatcher{
		projects:    make(map[string]*project.Project),
		dataDir:     dataDir,
		multiTenant: multiTenant,
	}
}

// MultiTenant reports whether the Dispatcher routes by X-Project-ID (true)
// or collapses every request onto DefaultProjectID (false).
func (d *Dispatcher) MultiTenant() bool {
	return d.multiTenant
}

func (d *Dispatcher) resolveID(id string) string {
	if !d.multiTenant {
		return DefaultProjectID
	}
	return id
}

// GetProject looks up a Project without creating one. Satisfies
// jobs.ProjectProvider.
func (d *Dispatcher) GetProject(id string) (*project.Project, bool) {
	id = d.resolveID(id)
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.projects[id]
	return p, ok
}

// GetOrCreate returns the Project for id, creating it with default taxonomy
// and normalization on first use. In multi-tenant mode id must be a valid
// project id (3-64 chars, alphanumeric/-/_).
func (d *Dispatcher) GetOrCreate(id string) (*project.Project, error) {
	resolved := d.resolveID(id)
	if d.multiTenant && !snapshot.ValidProjectID(resolved) {
		return nil, fmt.Errorf("tenant: invalid project id %q", id)
	}

	d.mu.RLock()
	p, ok := d.projects[resolved]
	d.mu.RUnlock()
	if ok {
		return p, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.projects[resolved]; ok {
		return p, nil
	}
	p = project.New(resolved)
	d.projects[resolved] = p
	return p, nil
}

// List returns every known project id, sorted.
func (d *Dispatcher) List() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.projects))
	for id := range d.projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Delete removes a project from memory and its snapshot file from disk, if
// either exists. Returns whether the project was known in memory.
func (d *Dispatcher) Delete(id string) bool {
	resolved := d.resolveID(id)
	d.mu.Lock()
	_, existed := d.projects[resolved]
	delete(d.projects, resolved)
	d.mu.Unlock()

	path := snapshot.PathFor(d.dataDir, resolved, d.multiTenant)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("tenant: failed to remove snapshot file", "project", resolved, "path", path, "err", err)
	}
	return existed
}

// SaveAll snapshots every known project to disk, returning the first error
// encountered (after attempting every project).
func (d *Dispatcher) SaveAll() error {
	d.mu.RLock()
	snap := make(map[string]*project.Project, len(d.projects))
	for id, p := range d.projects {
		snap[id] = p
	}
	d.mu.RUnlock()

	now := time.Now().Unix()
	var firstErr error
	for id, p := range snap {
		path := snapshot.PathFor(d.dataDir, id, d.multiTenant)
		if err := snapshot.Save(path, p, now); err != nil {
			log.Error("tenant: snapshot save failed", "project", id, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		log.Info("tenant: snapshot saved", "project", id, "path", path)
	}
	return firstErr
}

// Save snapshots a single project by id, if known.
func (d *Dispatcher) Save(id string) error {
	resolved := d.resolveID(id)
	d.mu.RLock()
	p, ok := d.projects[resolved]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("tenant: unknown project %q", id)
	}
	return snapshot.Save(snapshot.PathFor(d.dataDir, resolved, d.multiTenant), p, time.Now().Unix())
}

// LoadAll populates the Dispatcher from every snapshot file it can find:
// in single-tenant mode, the fixed cuemap.bin in dataDir; in multi-tenant
// mode, every *.bin under the snapshots directory. A missing directory or
// file is not an error — an empty Dispatcher is valid startup state.
func (d *Dispatcher) LoadAll() error {
	if !d.multiTenant {
		return d.loadOne(DefaultProjectID, snapshot.PathFor(d.dataDir, "", false))
	}

	dir := snapshot.SnapshotsDir(d.dataDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("tenant: read snapshots dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".bin") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".bin")
		if err := d.loadOne(id, filepath.Join(dir, entry.Name())); err != nil {
			log.Error("tenant: failed to load snapshot", "project", id, "err", err)
		}
	}
	return nil
}

func (d *Dispatcher) loadOne(id, path string) error {
	snap, err := snapshot.Load(path)
	if err != nil {
		log.Warn("tenant: snapshot unreadable, starting empty", "project", id, "path", path, "err", err)
		return nil
	}
	if snap == nil {
		return nil
	}
	p := snap.Restore(id)
	d.mu.Lock()
	d.projects[id] = p
	d.mu.Unlock()
	log.Info("tenant: snapshot loaded", "project", id, "path", path)
	return nil
}
