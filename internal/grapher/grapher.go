// Package grapher orchestrates scanning and resolution over the transitive
// closure of imports reachable from a file, owning the per-directory
// resolution memoization and the per-file visited-set that terminates
// cycles.
package grapher

import (
	"context"
	"errors"

	"github.com/modwalk/cartographer/internal/model"
	"github.com/modwalk/cartographer/internal/resolver"
	"github.com/modwalk/cartographer/internal/scanner"
	"sync"
)

// ErrUnresolvableDynamicImport is recorded on every dynamic import's
// Dependency Record.
var ErrUnresolvableDynamicImport = errors.New("unresolvable dynamic import")

// ErrUnableToLocateDependency is recorded when the resolver returns the
// absent outcome (no File, no error) for a static import.
var ErrUnableToLocateDependency = errors.New("unable to locate dependency")

// Resolve is the subset of *resolver.Resolver the Grapher depends on,
// so tests can substitute a fake without standing up real files.
type Resolve interface {
	Resolve(specifier, base string) (*model.FileRecord, error)
}

// Scan is the subset of *scanner.Scanner the Grapher depends on.
type Scan interface {
	Scan(path string, content []byte) ([]model.ImportDescriptor, error)
}

type outcome struct {
	file *model.FileRecord
	err  error
}

// Grapher walks the dependency graph rooted at a File Record.
type Grapher struct {
	resolver Resolve
	scanner  Scan

	mu       sync.Mutex
	dirCache map[string]map[string]outcome
}

// New constructs a Grapher over the given resolver and scanner.
func New(res *resolver.Resolver, scan *scanner.Scanner) *Grapher {
	return NewWithCollaborators(res, scan)
}

// NewWithCollaborators constructs a Grapher against the narrow Resolve/Scan
// interfaces, for testing with fakes.
func NewWithCollaborators(res Resolve, scan Scan) *Grapher {
	return &Grapher{
		resolver: res,
		scanner:  scan,
		dirCache: make(map[string]map[string]outcome),
	}
}

// Analyze populates the transitive dependency tree rooted at file. It is
// idempotent: if file's dependency list has already been assigned (or is
// being assigned by an in-flight/cyclic call), Analyze returns immediately
// without re-scanning.
//
// Descriptors are processed strictly in source order, and a dependency's
// own subtree is fully walked (recursively) before the next sibling
// descriptor is processed.
func (g *Grapher) Analyze(ctx context.Context, file *model.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !file.TryBeginAnalysis() {
		return nil
	}

	completed := false
	defer func() {
		if !completed {
			// Cancelled or failed partway through: undo the sentinel so a
			// future walk can retry rather than permanently observing an
			// empty dependency list.
			file.Invalidate()
		}
	}()

	descriptors, err := g.scanner.Scan(file.Path, file.Contents)
	if err != nil {
		return err
	}

	for _, d := range descriptors {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !d.Static {
			file.AddDependency(&model.DependencyRecord{
				Path:       d.Path,
				Static:     false,
				References: d.References,
				Err:        ErrUnresolvableDynamicImport,
			})
			continue
		}

		out := g.lookupOrResolve(file.Dir, d.Path)
		file.AddDependency(&model.DependencyRecord{
			Path:       d.Path,
			Static:     true,
			References: d.References,
			File:       out.file,
			Err:        out.err,
		})

		if out.file != nil {
			if err := g.Analyze(ctx, out.file); err != nil {
				return err
			}
		}
	}

	completed = true
	return nil
}

// lookupOrResolve consults the per-directory resolution cache keyed by
// (dir, specifier) before calling the resolver: two files in the same
// directory importing the same specifier share one resolver call and one
// outcome.
func (g *Grapher) lookupOrResolve(dir, specifier string) outcome {
	g.mu.Lock()
	if byPath, ok := g.dirCache[dir]; ok {
		if out, ok := byPath[specifier]; ok {
			g.mu.Unlock()
			return out
		}
	}
	g.mu.Unlock()

	fr, rerr := g.resolver.Resolve(specifier, dir)
	var out outcome
	switch {
	case rerr != nil:
		out = outcome{err: rerr}
	case fr == nil:
		out = outcome{err: ErrUnableToLocateDependency}
	default:
		out = outcome{file: fr}
	}

	g.mu.Lock()
	byPath, ok := g.dirCache[dir]
	if !ok {
		byPath = make(map[string]outcome)
		g.dirCache[dir] = byPath
	}
	if existing, ok := byPath[specifier]; ok {
		// Another goroutine (batch analysis of a sibling entry sharing
		// this directory) raced us to resolve the same pair first; defer
		// to its outcome so the at-most-once-per-(dir,specifier) cache
		// invariant holds even under concurrent callers.
		g.mu.Unlock()
		return existing
	}
	byPath[specifier] = out
	g.mu.Unlock()
	return out
}
