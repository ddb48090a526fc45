package providers

import (
	"context"
	"path/filepath"

	"github.com/modwalk/cartographer/internal/entry"
)

// ExplicitProvider names a single, fixed entry point. Grounded in the
// teacher's internal/scan/providers/explicit.go.
type ExplicitProvider struct {
	Name string
	Path string
}

func (e ExplicitProvider) Discover(_ context.Context, workspaceRoot string) ([]entry.Entry, error) {
	p := e.Path
	if !filepath.IsAbs(p) {
		p = filepath.Clean(filepath.Join(workspaceRoot, p))
	}
	return []entry.Entry{{Name: e.Name, Path: p}}, nil
}
