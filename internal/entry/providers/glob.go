package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/modwalk/cartographer/internal/entry"
)

// GlobProvider discovers entries by matching a doublestar glob pattern
// (supporting "**" for recursive directory matching) against the
// workspace tree, naming each discovered entry after its path relative to
// the workspace root with the extension stripped.
//
// Unlike RootsTsProvider's single hand-authored manifest, GlobProvider fits
// conventions like "every *.entry.ts under src/" without requiring a
// manifest file to stay in sync with the tree.
type GlobProvider struct {
	// Pattern is a doublestar pattern relative to the workspace root, e.g.
	// "src/**/index.ts" or "apps/*/main.tsx".
	Pattern string
}

func (g GlobProvider) Discover(_ context.Context, workspaceRoot string) ([]entry.Entry, error) {
	fsys := os.DirFS(workspaceRoot)
	matches, err := doublestar.Glob(fsys, g.Pattern)
	if err != nil {
		return nil, fmt.Errorf("glob entry provider: %w", err)
	}

	sort.Strings(matches)
	entries := make([]entry.Entry, 0, len(matches))
	for _, m := range matches {
		name := m[:len(m)-len(filepath.Ext(m))]
		entries = append(entries, entry.Entry{
			Name: name,
			Path: filepath.Join(workspaceRoot, m),
		})
	}
	return entries, nil
}
