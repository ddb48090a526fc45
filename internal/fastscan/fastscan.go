// Package fastscan provides a whole-tree, regex-based preliminary scan of a
// source directory. Where the grapher package resolves one entry point
// precisely (tree-sitter AST, full node_modules-style resolution,
// sentinel-based cycle termination), fastscan walks every source file under
// a root concurrently and builds an approximate dependency graph in a single
// pass, useful for a quick "what does this repo roughly look like" view or
// for CLI commands that don't have a single entry point to start from.
//
// Unresolved/external specifiers are recorded as synthetic graph nodes
// (matching internal/graph's convention) instead of being silently dropped
// or causing the whole walk to fail.
package fastscan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/modwalk/cartographer/internal/graph"
)

var (
	reImportFrom = regexp.MustCompile(`(?m)^\s*import(?:\s+type)?\s+.*?from\s+['"]([^'"]+)['"]`)
	reImportBare = regexp.MustCompile(`(?m)^\s*import\s+['"]([^'"]+)['"]`)
	reRequire    = regexp.MustCompile(`(?m)require\(\s*['"]([^'"]+)['"]\s*\)`)
	reDynamic    = regexp.MustCompile(`(?m)import\(\s*['"]([^'"]+)['"]\s*\)`)
	reExportFrom = regexp.MustCompile(`(?m)^\s*export\s+.*?\sfrom\s+['"]([^'"]+)['"]`)
)

func isSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".ts", ".tsx":
		return true
	default:
		return false
	}
}

func isRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// ParseImports extracts the unique set of import/require specifiers named
// in content, ignoring .css, .scss, .less and .yml imports. require() and
// import() calls match anywhere; import/export statements must begin a line.
func ParseImports(content string) []string {
	seen := map[string]struct{}{}
	add := func(matches [][]string) {
		for _, m := range matches {
			if len(m) > 1 {
				if spec := strings.TrimSpace(m[1]); spec != "" {
					seen[spec] = struct{}{}
				}
			}
		}
	}
	add(reImportFrom.FindAllStringSubmatch(content, -1))
	add(reImportBare.FindAllStringSubmatch(content, -1))
	add(reRequire.FindAllStringSubmatch(content, -1))
	add(reDynamic.FindAllStringSubmatch(content, -1))
	add(reExportFrom.FindAllStringSubmatch(content, -1))

	out := make([]string, 0, len(seen))
	for spec := range seen {
		l := strings.ToLower(spec)
		if strings.HasSuffix(l, ".css") || strings.HasSuffix(l, ".scss") || strings.HasSuffix(l, ".less") || strings.HasSuffix(l, ".yml") {
			continue
		}
		out = append(out, spec)
	}
	return out
}

// resolve performs a minimal, relative-only resolution, leaving bare
// specifiers (package imports, project aliases) as synthetic
// graph.UnresolvedPrefix nodes rather than consulting node_modules: fastscan
// trades resolution fidelity for whole-tree speed.
func resolve(fromFile, spec string, extensions []string) (string, bool) {
	if !isRelative(spec) {
		return graph.UnresolvedPrefix + spec, false
	}

	base := filepath.Dir(fromFile)
	candidate := filepath.Clean(filepath.Join(base, spec))

	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate, true
	}
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		for _, ext := range extensions {
			try := filepath.Join(candidate, "index"+ext)
			if info2, err2 := os.Stat(try); err2 == nil && !info2.IsDir() {
				return try, true
			}
		}
	}
	if filepath.Ext(candidate) == "" {
		for _, ext := range extensions {
			try := candidate + ext
			if info, err := os.Stat(try); err == nil && !info.IsDir() {
				return try, true
			}
		}
	}
	return graph.UnresolvedPrefix + spec, false
}

type result struct {
	file    string
	imports []string
	err     error
}

// Options configures a fastscan pass.
type Options struct {
	Extensions []string // default: .ts, .tsx, .js, .jsx
	Skip       []string // directory names to prune, default: node_modules, dist, build; dotdirs are always pruned
}

func (o Options) extensions() []string {
	if len(o.Extensions) > 0 {
		return o.Extensions
	}
	return []string{".ts", ".tsx", ".js", ".jsx"}
}

func (o Options) skip(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, s := range o.Skip {
		if s == name {
			return true
		}
	}
	if len(o.Skip) == 0 {
		return name == "node_modules" || name == "dist" || name == "build"
	}
	return false
}

// Walk builds an approximate dependency graph of every source file
// reachable under root, scanning files concurrently across GOMAXPROCS
// workers. It returns a partial graph alongside a non-nil error if ctx is
// cancelled before the walk completes.
func Walk(ctx context.Context, root string, opts Options) (*graph.Graph, error) {
	g := graph.New()

	paths := make(chan string, 1024)
	results := make(chan result, 1024)

	go func() {
		filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if path != root && opts.skip(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if isSource(path) {
				paths <- path
			}
			return nil
		})
		close(paths)
	}()

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for path := range paths {
				data, err := os.ReadFile(path)
				if err != nil {
					results <- result{file: path, err: err}
					continue
				}
				results <- result{file: path, imports: ParseImports(string(data))}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	ext := opts.extensions()
	for {
		select {
		case <-ctx.Done():
			return g, ctx.Err()
		case r, ok := <-results:
			if !ok {
				return g, nil
			}
			if r.err != nil {
				continue
			}
			g.Touch(r.file)
			for _, spec := range r.imports {
				to, _ := resolve(r.file, spec, ext)
				g.AddEdge(r.file, to)
			}
		}
	}
}

// WalkFromEntries traverses only the reachable closure of the given entry
// files, instead of every source file under root: better for multi-root
// trees where unrelated entry points would otherwise pollute one graph.
func WalkFromEntries(ctx context.Context, root string, entryPaths []string, opts Options) (*graph.Graph, error) {
	g := graph.New()
	ext := opts.extensions()

	queue := make(chan string, 4096)
	visited := map[string]struct{}{}
	var mu sync.Mutex
	var inflight int64

	enqueue := func(p string) {
		mu.Lock()
		defer mu.Unlock()
		if _, seen := visited[p]; seen {
			return
		}
		visited[p] = struct{}{}
		atomic.AddInt64(&inflight, 1)
		queue <- p
	}

	for _, e := range entryPaths {
		p := e
		if !filepath.IsAbs(p) {
			p = filepath.Clean(filepath.Join(root, p))
		}
		enqueue(p)
	}
	if len(entryPaths) == 0 {
		return g, fmt.Errorf("fastscan: no entries given")
	}

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case path, ok := <-queue:
					if !ok {
						return
					}
					data, err := os.ReadFile(path)
					if err == nil {
						g.Touch(path)
						for _, spec := range ParseImports(string(data)) {
							to, isLocal := resolve(path, spec, ext)
							g.AddEdge(path, to)
							if isLocal {
								if info, statErr := os.Stat(to); statErr == nil && !info.IsDir() {
									enqueue(to)
								}
							}
						}
					}
					if atomic.AddInt64(&inflight, -1) == 0 {
						close(queue)
					}
				}
			}
		}()
	}

	wg.Wait()
	return g, ctx.Err()
}
