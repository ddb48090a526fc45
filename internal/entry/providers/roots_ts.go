package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/modwalk/cartographer/internal/entry"
)

// RootsTsProvider parses a roots.ts-style manifest file containing entries
// shaped like:
//
//	Name: { moduleFactory: () => import(/* webpackChunkName: "Name" */ "./components/foo/root") }
//
// Entries are named by object key by default, or by webpackChunkName when
// NameFrom is set to "webpackChunkName".
type RootsTsProvider struct {
	File     string
	NameFrom string
}

var reRootMember = regexp.MustCompile(`(?s)([A-Za-z0-9_]+)\s*:\s*{[^}]*?moduleFactory\s*:\s*\(\s*\)\s*=>\s*import\(\s*(?:/\*\s*webpackChunkName:\s*"(.*?)"\s*\*/\s*)?['"]([^'"]+)['"]\s*\)`)

func (r RootsTsProvider) Discover(_ context.Context, workspaceRoot string) ([]entry.Entry, error) {
	path := r.File
	if !filepath.IsAbs(path) {
		path = filepath.Clean(filepath.Join(workspaceRoot, r.File))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roots.ts: %w", err)
	}

	matches := reRootMember.FindAllStringSubmatch(string(b), -1)
	entries := make([]entry.Entry, 0, len(matches))
	baseDir := filepath.Dir(path)

	for _, m := range matches {
		objectKey, chunkName, importRel := m[1], m[2], m[3]

		name := objectKey
		if r.NameFrom == "webpackChunkName" && chunkName != "" {
			name = chunkName
		}

		entryPath := importRel
		if !filepath.IsAbs(entryPath) {
			entryPath = filepath.Clean(filepath.Join(baseDir, importRel))
		}

		entries = append(entries, entry.Entry{Name: name, Path: entryPath})
	}

	return entries, nil
}
