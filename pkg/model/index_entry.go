package model

import (
	"encoding/json"
	"slices"
)

// IndexEntry is the persisted record of one installed package.
// Files is a set; it is serialized as a sorted list.
type IndexEntry struct {
	Name    string
	Version string
	PassIdx int
	Files   map[string]struct{}
}

type indexEntryJSON struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	PassIdx int      `json:"pass_idx"`
	Files   []string `json:"files"`
}

// NewIndexEntry builds an entry owning the given files.
func NewIndexEntry(name, ver string, pass int, files []string) *IndexEntry {
	e := &IndexEntry{Name: name, Version: ver, PassIdx: pass, Files: make(map[string]struct{}, len(files))}
	for _, f := range files {
		e.Files[f] = struct{}{}
	}
	return e
}

// Owns reports whether path belongs to the entry.
func (e *IndexEntry) Owns(path string) bool {
	_, ok := e.Files[path]
	return ok
}

// SortedFiles returns the file set as a sorted slice.
func (e *IndexEntry) SortedFiles() []string {
	files := make([]string, 0, len(e.Files))
	for f := range e.Files {
		files = append(files, f)
	}
	slices.Sort(files)
	return files
}

// Clone returns a deep copy of the entry.
func (e *IndexEntry) Clone() *IndexEntry {
	return NewIndexEntry(e.Name, e.Version, e.PassIdx, e.SortedFiles())
}

// MarshalJSON implements json.Marshaler.
func (e *IndexEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(indexEntryJSON{
		Name:    e.Name,
		Version: e.Version,
		PassIdx: e.PassIdx,
		Files:   e.SortedFiles(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *IndexEntry) UnmarshalJSON(data []byte) error {
	var raw indexEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = *NewIndexEntry(raw.Name, raw.Version, raw.PassIdx, raw.Files)
	return nil
}
