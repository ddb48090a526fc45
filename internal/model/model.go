// Package model holds the data types shared by the resolver, scanner,
// grapher, and facade: the File Record, Import Descriptor, Reference, and
// Dependency Record.
package model

import "sync"

// Reference is a single occurrence of an import call: the source text of
// the entire call expression and its half-open character offsets within
// the file.
type Reference struct {
	Source string
	Start  int
	End    int
}

// ImportDescriptor is a single distinct import site discovered by the
// scanner. Descriptors are unique per file by exact textual path; multiple
// call sites sharing a path fold into one descriptor with multiple
// References, in order of first sighting.
type ImportDescriptor struct {
	Path       string
	Static     bool
	References []Reference
}

// DependencyRecord is the resolved view of one ImportDescriptor from one
// File Record's perspective. Exactly one of File or Err is set once
// resolution has been attempted.
type DependencyRecord struct {
	Path       string
	Static     bool
	References []Reference
	File       *FileRecord
	Err        error
}

// FileRecord is the canonical per-path object holding a file's contents
// and, once the grapher has walked it, its dependency list. Identity is
// the absolute path; it is created once by the resolver and shared
// (non-owning) by every File Record that imports it.
//
// Dependency-list assignment is exactly-once and mediated by
// TryBeginAnalysis/AddDependency so that concurrent or re-entrant walks
// (cycles) observe consistent sentinel behavior without requiring every
// caller to coordinate by hand.
type FileRecord struct {
	Path     string
	Dir      string
	Contents []byte

	mu        sync.Mutex
	analyzing bool
	deps      []*DependencyRecord
}

// New creates a File Record for the given absolute path and contents.
func New(path, dir string, contents []byte) *FileRecord {
	return &FileRecord{Path: path, Dir: dir, Contents: contents}
}

// TryBeginAnalysis initializes the dependency list to the empty sentinel
// and returns true the first time it is called for this record. Subsequent
// calls (re-entry via a cycle, or a repeated top-level walk) return false
// without touching the existing list, which is how cycles terminate and
// how analyze becomes idempotent.
func (f *FileRecord) TryBeginAnalysis() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.analyzing {
		return false
	}
	f.analyzing = true
	f.deps = []*DependencyRecord{}
	return true
}

// AddDependency appends a Dependency Record in descriptor source order.
func (f *FileRecord) AddDependency(d *DependencyRecord) {
	f.mu.Lock()
	f.deps = append(f.deps, d)
	f.mu.Unlock()
}

// Dependencies returns a snapshot of the dependency list assigned so far.
func (f *FileRecord) Dependencies() []*DependencyRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*DependencyRecord, len(f.deps))
	copy(out, f.deps)
	return out
}

// Invalidate clears the in-progress sentinel and any partial dependency
// list, allowing a future walk to fully re-analyze this record. Used when
// a walk is cancelled or a scan fails partway through, so an interrupted
// walk cannot leave behind a permanently-empty dependency list that a
// later, uncancelled walk would mistake for "no dependencies".
func (f *FileRecord) Invalidate() {
	f.mu.Lock()
	f.analyzing = false
	f.deps = nil
	f.mu.Unlock()
}

// Analyzed reports whether this record's dependency list has been (or is
// being) assigned.
func (f *FileRecord) Analyzed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.analyzing
}
