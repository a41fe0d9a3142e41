// Package index maintains the persistent record of installed packages and the files they own.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/glorpus-work/todd/internal/logger"
	"github.com/glorpus-work/todd/pkg/errors"
	"github.com/glorpus-work/todd/pkg/fsutil"
	"github.com/glorpus-work/todd/pkg/model"
)

// Conflict is a path claimed by a package while another package owns it.
type Conflict struct {
	Path  string
	Owner string
}

// Index maps package names to their installed entry. No path is owned by two entries.
type Index struct {
	path              string
	entries           map[string]*model.IndexEntry
	transferOwnership bool
	rwMutex           sync.RWMutex
}

// New returns an empty index that persists to path.
func New(path string) *Index {
	return &Index{
		path:    path,
		entries: make(map[string]*model.IndexEntry),
	}
}

// Load reads the index of the install root, creating an empty one when none exists yet.
func Load(root string) (*Index, error) {
	idx, exists, err := read(root)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.Debug("Creating empty package index", logger.Fields{"path": idx.path})
		if err := idx.Persist(); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Read is Load without side effects: a missing index reads as empty and is not written.
func Read(root string) (*Index, error) {
	idx, _, err := read(root)
	return idx, err
}

func read(root string) (*Index, bool, error) {
	path := fsutil.IndexFile(root)
	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		return nil, false, fmt.Errorf("index path must be absolute: %s: %w", path, errors.ErrInvalidPath)
	}

	idx := New(cleanPath)

	data, err := os.ReadFile(cleanPath)
	if os.IsNotExist(err) {
		return idx, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read index %s: %w", cleanPath, err)
	}

	if err := idx.decode(data); err != nil {
		return nil, false, fmt.Errorf("%s: %w: %w", cleanPath, errors.ErrIndexCorruption, err)
	}
	return idx, true, nil
}

func (idx *Index) decode(data []byte) error {
	var raw map[string]*model.IndexEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for name, entry := range raw {
		if entry == nil {
			return fmt.Errorf("entry %q is null", name)
		}
		if entry.Name != name {
			return fmt.Errorf("entry %q is recorded under the name %q", name, entry.Name)
		}
		idx.entries[name] = entry
	}
	return nil
}

// Path returns the file the index persists to.
func (idx *Index) Path() string {
	return idx.path
}

// SetTransferOwnership makes Add and Augment take paths away from their previous owner
// instead of rejecting the mutation.
func (idx *Index) SetTransferOwnership(transfer bool) {
	idx.rwMutex.Lock()
	defer idx.rwMutex.Unlock()
	idx.transferOwnership = transfer
}

// Get returns a copy of the entry for name.
func (idx *Index) Get(name string) (*model.IndexEntry, bool) {
	idx.rwMutex.RLock()
	defer idx.rwMutex.RUnlock()

	entry, ok := idx.entries[name]
	if !ok {
		return nil, false
	}
	return entry.Clone(), true
}

// Len returns the number of installed packages.
func (idx *Index) Len() int {
	idx.rwMutex.RLock()
	defer idx.rwMutex.RUnlock()
	return len(idx.entries)
}

// Entries returns copies of all entries sorted by name.
func (idx *Index) Entries() []*model.IndexEntry {
	idx.rwMutex.RLock()
	defer idx.rwMutex.RUnlock()

	entries := make([]*model.IndexEntry, 0, len(idx.entries))
	for _, name := range idx.sortedNames() {
		entries = append(entries, idx.entries[name].Clone())
	}
	return entries
}

// Clone returns an independent copy, used to simulate installs without touching disk state.
func (idx *Index) Clone() *Index {
	idx.rwMutex.RLock()
	defer idx.rwMutex.RUnlock()

	c := New(idx.path)
	c.transferOwnership = idx.transferOwnership
	for name, entry := range idx.entries {
		c.entries[name] = entry.Clone()
	}
	return c
}

// Owner returns the name of the package owning path.
func (idx *Index) Owner(path string) (string, bool) {
	idx.rwMutex.RLock()
	defer idx.rwMutex.RUnlock()

	clean := filepath.Clean(path)
	for _, name := range idx.sortedNames() {
		if idx.entries[name].Owns(clean) {
			return name, true
		}
	}
	return "", false
}

// Conflicts lists the paths in files that are owned by a package other than name.
func (idx *Index) Conflicts(name string, files []string) []Conflict {
	idx.rwMutex.RLock()
	defer idx.rwMutex.RUnlock()
	return idx.conflicts(name, files)
}

func (idx *Index) conflicts(name string, files []string) []Conflict {
	var out []Conflict
	for _, f := range files {
		for _, owner := range idx.sortedNames() {
			if owner == name {
				continue
			}
			if idx.entries[owner].Owns(f) {
				out = append(out, Conflict{Path: f, Owner: owner})
				break
			}
		}
	}
	return out
}

// Add records a newly installed package.
func (idx *Index) Add(entry *model.IndexEntry) error {
	idx.rwMutex.Lock()
	defer idx.rwMutex.Unlock()

	if _, ok := idx.entries[entry.Name]; ok {
		return fmt.Errorf("%s: %w", entry.Name, errors.ErrAlreadyInstalled)
	}
	if err := idx.claim(entry.Name, entry.SortedFiles()); err != nil {
		return err
	}
	idx.entries[entry.Name] = entry.Clone()
	return nil
}

// Augment merges files into an existing entry and advances its pass.
func (idx *Index) Augment(name string, pass int, files []string) error {
	idx.rwMutex.Lock()
	defer idx.rwMutex.Unlock()

	entry, ok := idx.entries[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, errors.ErrNotInstalled)
	}
	if pass < entry.PassIdx {
		return fmt.Errorf("%s: pass %d is lower than installed pass %d: %w", name, pass, entry.PassIdx, errors.ErrSequencing)
	}
	if err := idx.claim(name, files); err != nil {
		return err
	}

	for _, f := range files {
		entry.Files[f] = struct{}{}
	}
	entry.PassIdx = pass
	return nil
}

// claim resolves ownership of files for name before they are recorded.
func (idx *Index) claim(name string, files []string) error {
	conflicts := idx.conflicts(name, files)
	if len(conflicts) == 0 {
		return nil
	}
	if !idx.transferOwnership {
		c := conflicts[0]
		return fmt.Errorf("%s: %s is owned by %s (%d conflicting files): %w",
			name, c.Path, c.Owner, len(conflicts), errors.ErrFileConflict)
	}
	for _, c := range conflicts {
		logger.Warn("Transferring file ownership", logger.Fields{"path": c.Path, "from": c.Owner, "to": name})
		delete(idx.entries[c.Owner].Files, c.Path)
	}
	return nil
}

// Persist writes the index to disk atomically.
func (idx *Index) Persist() error {
	idx.rwMutex.RLock()
	data, err := json.MarshalIndent(idx.entries, "", "    ")
	idx.rwMutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal index to JSON: %w", err)
	}

	if err := fsutil.EnsureFileDir(idx.path); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := fsutil.WriteFileAtomic(idx.path, data, fsutil.FileModeDefault); err != nil {
		return fmt.Errorf("failed to write index %s: %w", idx.path, err)
	}
	return nil
}

func (idx *Index) sortedNames() []string {
	names := make([]string, 0, len(idx.entries))
	for name := range idx.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
