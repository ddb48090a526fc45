// Package resolver implements the node-style module resolution algorithm:
// a pure function of (specifier, base directory, configuration, filesystem
// state) to either a resolved File Record or the absent outcome.
//
// Implements extension probing, manifest-driven entry resolution,
// directory-index fallback, and the upward node_modules-style walk.
package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/modwalk/cartographer/internal/model"
)

// ErrEmptySpecifier is returned when Resolve is called with an empty
// specifier.
var ErrEmptySpecifier = errors.New("resolver: specifier must not be empty")

// MainSpec is a single entry-point lookup spec for a package manifest: a
// leaf key ("main") or an ordered path of nested keys (["publishConfig",
// "main"]). A MainSpec of length 1 behaves as a leaf key.
type MainSpec []string

// Leaf builds a single-key MainSpec.
func Leaf(key string) MainSpec { return MainSpec{key} }

// Path builds a nested-key MainSpec.
func Path(keys ...string) MainSpec { return MainSpec(keys) }

// Config is the immutable bundle of resolution options: extension probing,
// manifest filenames and entry-point keys, bare-module directory names, and
// the directory-index fallback name.
type Config struct {
	// Extensions are tried in order; "" means "as given".
	Extensions []string
	// Modules are directory names probed when walking up for a bare module.
	Modules []string
	// Packages are manifest filenames tried inside a directory, in order.
	Packages []string
	// Mains are manifest key specs giving entry-point paths, in order.
	Mains []MainSpec
	// Index is the base name used when no extension/manifest entry applies.
	Index string
}

// DefaultConfig returns the node-style resolution defaults.
func DefaultConfig() Config {
	return Config{
		Extensions: []string{"", ".js"},
		Modules:    []string{"node_modules"},
		Packages:   []string{"package.json"},
		Mains:      []MainSpec{Leaf("main")},
		Index:      "index",
	}
}

// FileSystem is the filesystem collaborator the resolver reads through.
// The default is the OS filesystem; tests substitute an in-memory one.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

type osFileSystem struct{}

func (osFileSystem) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Logger receives non-ENOENT read errors that would otherwise be silently
// treated as a miss, so permission and disk errors aren't conflated with
// plain absence; a nil Logger keeps them silent.
type Logger func(format string, args ...any)

// Resolver resolves specifiers to File Records. It owns a path-keyed file
// cache: at most one File Record exists per absolute path for the life of
// a Resolver instance. Separate Resolver instances do not share the cache.
type Resolver struct {
	cfg Config
	fs  FileSystem
	cwd string
	log Logger

	mu    sync.Mutex
	cache map[string]*model.FileRecord
}

// Option configures a Resolver at construction time.
type Option func(*Resolver)

// WithFileSystem overrides the filesystem collaborator (for tests).
func WithFileSystem(fs FileSystem) Option {
	return func(r *Resolver) { r.fs = fs }
}

// WithWorkingDirectory overrides the default base directory used when
// Resolve is called with an empty base.
func WithWorkingDirectory(dir string) Option {
	return func(r *Resolver) { r.cwd = dir }
}

// WithLogger installs a hook invoked for every non-ENOENT read error
// encountered during file or manifest loads.
func WithLogger(log Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// New constructs a Resolver with the given configuration.
func New(cfg Config, opts ...Option) *Resolver {
	r := &Resolver{
		cfg:   cfg,
		fs:    osFileSystem{},
		cache: make(map[string]*model.FileRecord),
	}
	if wd, err := os.Getwd(); err == nil {
		r.cwd = wd
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps a specifier plus base directory to a File Record, or the
// absent outcome (nil, nil) when nothing resolves. An error return is
// fatal: either an invalid argument or a malformed package manifest.
func (r *Resolver) Resolve(specifier, base string) (*model.FileRecord, error) {
	if specifier == "" {
		return nil, ErrEmptySpecifier
	}
	if base == "" {
		base = r.cwd
	}
	if isRelative(specifier) {
		candidate := joinRelative(base, specifier)
		fr, err := r.loadFile(candidate)
		if err != nil {
			return nil, err
		}
		if fr != nil {
			return fr, nil
		}
		return r.loadDirectory(candidate)
	}
	return r.resolveModule(base, specifier)
}

func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "/") ||
		strings.HasPrefix(specifier, "./") ||
		strings.HasPrefix(specifier, "../")
}

// joinRelative joins spec against base, preserving a trailing separator so
// the result is forced through directory resolution rather than file
// resolution.
func joinRelative(base, spec string) string {
	joined := filepath.Join(base, spec)
	if strings.HasSuffix(spec, "/") && !strings.HasSuffix(joined, string(filepath.Separator)) {
		joined += string(filepath.Separator)
	}
	return joined
}

// loadFile is the file-resolution primitive: for each configured
// extension, in order, try the cache, then a read.
func (r *Resolver) loadFile(candidate string) (*model.FileRecord, error) {
	for _, ext := range r.cfg.Extensions {
		p := candidate + ext
		if fr, ok := r.cacheGet(p); ok {
			return fr, nil
		}
		data, err := r.fs.ReadFile(p)
		if err != nil {
			if r.log != nil && !os.IsNotExist(err) {
				r.log("resolver: read %s: %v", p, err)
			}
			continue
		}
		return r.cacheInsert(p, data), nil
	}
	return nil, nil
}

// loadDirectory is the directory-resolution primitive: manifest-driven
// entry resolution with index fallback. A manifest whose entry point fails
// to resolve causes remaining manifests to be skipped (step 6 below) — a
// deliberate edge-case policy, not an oversight.
func (r *Resolver) loadDirectory(dir string) (*model.FileRecord, error) {
	for _, manifestName := range r.cfg.Packages {
		manifestPath := filepath.Join(dir, manifestName)
		data, err := r.fs.ReadFile(manifestPath)
		if err != nil {
			if r.log != nil && !os.IsNotExist(err) {
				r.log("resolver: read %s: %v", manifestPath, err)
			}
			continue
		}

		var manifest map[string]any
		if err := json.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("malformed package manifest: %s", manifestPath)
		}

		entry, ok := selectEntry(manifest, r.cfg.Mains)
		if !ok {
			entry = r.cfg.Index
		}
		entryPath := filepath.Join(dir, entry)

		if fr, err := r.loadFile(entryPath); err != nil {
			return nil, err
		} else if fr != nil {
			return fr, nil
		}

		if fr, err := r.loadFile(filepath.Join(entryPath, r.cfg.Index)); err != nil {
			return nil, err
		} else if fr != nil {
			return fr, nil
		}

		// Step 6: a manifest was found and its entry point failed to
		// resolve; remaining manifests are deliberately not tried.
		break
	}

	return r.loadFile(filepath.Join(dir, r.cfg.Index))
}

// selectEntry descends a parsed manifest per each configured MainSpec, in
// order, and returns the first truthy string leaf found.
func selectEntry(manifest map[string]any, mains []MainSpec) (string, bool) {
	for _, spec := range mains {
		var cur any = manifest
		ok := true
		for _, key := range spec {
			m, isMap := cur.(map[string]any)
			if !isMap {
				ok = false
				break
			}
			v, exists := m[key]
			if !exists {
				ok = false
				break
			}
			cur = v
		}
		if !ok {
			continue
		}
		if s, isStr := cur.(string); isStr && s != "" {
			return s, true
		}
	}
	return "", false
}

// resolveModule is the bare-module upward walk: for the current base,
// probe each configured module directory in order; on exhaustion truncate
// base at its final path separator and repeat until base is empty.
func (r *Resolver) resolveModule(base, name string) (*model.FileRecord, error) {
	for base != "" {
		for _, moduleDir := range r.cfg.Modules {
			candidate := filepath.Join(base, moduleDir, name)
			fr, err := r.loadFile(candidate)
			if err != nil {
				return nil, err
			}
			if fr != nil {
				return fr, nil
			}
			fr, err = r.loadDirectory(candidate)
			if err != nil {
				return nil, err
			}
			if fr != nil {
				return fr, nil
			}
		}
		base = truncateBase(base)
	}
	return nil, nil
}

// truncateBase cuts base at its final path separator, the deterministic
// ancestor-walk step of the upward module-directory search.
func truncateBase(base string) string {
	idx := strings.LastIndexByte(base, '/')
	if idx < 0 {
		return ""
	}
	return base[:idx]
}

func (r *Resolver) cacheGet(path string) (*model.FileRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fr, ok := r.cache[path]
	return fr, ok
}

// cacheInsert records a successful read under path, returning the winning
// File Record. If another caller already inserted one for this exact path
// (e.g. a racing goroutine from internal/batch), that earlier record wins
// and the freshly read bytes are discarded, preserving the "at most one
// File Record per absolute path" invariant under concurrent use.
func (r *Resolver) cacheInsert(path string, data []byte) *model.FileRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fr, ok := r.cache[path]; ok {
		return fr
	}
	fr := model.New(path, filepath.Dir(path), data)
	r.cache[path] = fr
	return fr
}
