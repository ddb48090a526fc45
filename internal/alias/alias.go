// Package alias resolves tsconfig.json / tsconfig.base.json style
// compilerOptions.paths aliases in front of the core resolver, for bare
// specifiers that are project aliases ("@app/*") rather than real
// node_modules packages.
//
// It loads compilerOptions.baseUrl/paths and probes alias targets through
// the same file/directory resolution primitives used for relative imports.
package alias

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/modwalk/cartographer/internal/model"
	"github.com/modwalk/cartographer/internal/resolver"
)

type tsConfig struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// Resolver wraps a core *resolver.Resolver, consulting tsconfig paths
// aliases before falling through to the wrapped resolver's bare-module
// (node_modules) resolution.
type Resolver struct {
	core    *resolver.Resolver
	baseDir string
	paths   map[string][]string
}

// New loads tsconfig.base.json (preferred) or tsconfig.json from root and
// builds an alias-aware decorator around core. If neither file is present
// or readable, the returned Resolver behaves exactly like core.
func New(core *resolver.Resolver, root string) *Resolver {
	r := &Resolver{core: core, baseDir: root}

	var cfg tsConfig
	for _, name := range []string{"tsconfig.base.json", "tsconfig.json"} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		if err := json.Unmarshal(data, &cfg); err == nil {
			break
		}
	}

	r.paths = cfg.CompilerOptions.Paths
	if cfg.CompilerOptions.BaseURL != "" {
		r.baseDir = filepath.Clean(filepath.Join(root, cfg.CompilerOptions.BaseURL))
	}
	return r
}

// Resolve tries an alias match first, then defers to the wrapped resolver.
func (r *Resolver) Resolve(specifier, base string) (*model.FileRecord, error) {
	if len(r.paths) > 0 && !isPathLike(specifier) {
		if fr, ok := r.resolveAlias(specifier); ok {
			return fr, nil
		}
	}
	return r.core.Resolve(specifier, base)
}

func isPathLike(specifier string) bool {
	return strings.HasPrefix(specifier, "/") ||
		strings.HasPrefix(specifier, "./") ||
		strings.HasPrefix(specifier, "../")
}

// resolveAlias matches specifier against compilerOptions.paths: an exact
// key first, then a single-wildcard "prefix/*" pattern, mirroring the
// teacher's resolveAlias.
func (r *Resolver) resolveAlias(specifier string) (*model.FileRecord, bool) {
	if globs, ok := r.paths[specifier]; ok {
		for _, g := range globs {
			if fr := r.probeTarget(g); fr != nil {
				return fr, true
			}
		}
	}
	for pattern, globs := range r.paths {
		if !strings.Contains(pattern, "*") {
			continue
		}
		head := strings.SplitN(pattern, "*", 2)[0]
		if !strings.HasPrefix(specifier, head) {
			continue
		}
		tail := strings.TrimPrefix(specifier, head)
		for _, g := range globs {
			target := strings.ReplaceAll(g, "*", tail)
			if fr := r.probeTarget(target); fr != nil {
				return fr, true
			}
		}
	}
	return nil, false
}

// probeTarget resolves a tsconfig path-mapping value, relative to baseDir,
// through the wrapped resolver's ordinary relative-resolution machinery.
func (r *Resolver) probeTarget(target string) *model.FileRecord {
	fr, err := r.core.Resolve("./"+target, r.baseDir)
	if err != nil || fr == nil {
		return nil
	}
	return fr
}
