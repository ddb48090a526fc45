// Package cartographer is the facade: it owns one Resolver and one
// Grapher (sharing caches) and exposes the single entry point,
// Cartographer.Analyze.
package cartographer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/modwalk/cartographer/internal/grapher"
	"github.com/modwalk/cartographer/internal/model"
	"github.com/modwalk/cartographer/internal/resolver"
	"github.com/modwalk/cartographer/internal/scanner"
)

// ErrEmptySpecifier mirrors resolver.ErrEmptySpecifier at the facade
// boundary, for callers that only import this package.
var ErrEmptySpecifier = errors.New("cartographer: specifier must not be empty")

// Config lets a caller supply a pre-built Resolver and/or Grapher, since
// the Facade, Resolver, Grapher, and Scanner are each separately
// instantiable and swappable. Either may be left nil to get the
// default-configured core.
type Config struct {
	Resolver *resolver.Resolver
	Grapher  *grapher.Grapher
}

// Cartographer is the entry point of the module dependency graph builder.
type Cartographer struct {
	resolver *resolver.Resolver
	grapher  *grapher.Grapher
}

// New constructs a Cartographer. With a zero Config it uses the default
// Resolver configuration (resolver.DefaultConfig) and a tree-sitter based
// Scanner.
func New(cfg Config) *Cartographer {
	res := cfg.Resolver
	if res == nil {
		res = resolver.New(resolver.DefaultConfig())
	}
	gr := cfg.Grapher
	if gr == nil {
		gr = grapher.New(res, scanner.New())
	}
	return &Cartographer{resolver: res, grapher: gr}
}

// Analyze resolves specifier with no base (the resolver's configured
// working directory), then walks the resulting file's transitive
// dependency tree, returning the populated root File Record.
//
// A resolver miss is surfaced as "file not found: <specifier>"; a resolver
// error (e.g. a malformed package manifest encountered while resolving the
// entry point itself) is fatal and returned as-is.
func (c *Cartographer) Analyze(ctx context.Context, specifier string) (*model.FileRecord, error) {
	if specifier == "" {
		return nil, ErrEmptySpecifier
	}

	fr, err := c.resolver.Resolve(specifier, "")
	if err != nil {
		return nil, err
	}
	if fr == nil {
		return nil, fmt.Errorf("file not found: %s", specifier)
	}

	if err := c.grapher.Analyze(ctx, fr); err != nil {
		return nil, err
	}
	return fr, nil
}

// AnalyzeFile is a convenience entry point for callers (multi-entry batch
// analysis, CLI commands) that already hold an absolute filesystem path
// rather than a bare specifier: it resolves the file relative to its own
// directory, so an entry anywhere on disk can be analyzed without
// reconfiguring the Resolver's working directory.
func (c *Cartographer) AnalyzeFile(ctx context.Context, path string) (*model.FileRecord, error) {
	if path == "" {
		return nil, ErrEmptySpecifier
	}
	dir := filepath.Dir(path)
	base := "./" + filepath.Base(path)

	fr, err := c.resolver.Resolve(base, dir)
	if err != nil {
		return nil, err
	}
	if fr == nil {
		return nil, fmt.Errorf("file not found: %s", path)
	}

	if err := c.grapher.Analyze(ctx, fr); err != nil {
		return nil, err
	}
	return fr, nil
}
