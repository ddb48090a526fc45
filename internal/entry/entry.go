// Package entry defines the entry-point discovery types shared by the
// batch analyzer and the CLI: an Entry is a named starting file, and a
// Provider is a pluggable way of discovering a set of them from a
// workspace. The CLI layer wires concrete providers up from a Spec
// discriminated union read out of viper config.
package entry

import "context"

// Entry is one discoverable starting point for dependency analysis: a
// human-readable name paired with the file it begins at.
type Entry struct {
	Name string
	Path string
}

// Provider discovers a set of Entries given a workspace root.
type Provider interface {
	Discover(ctx context.Context, workspaceRoot string) ([]Entry, error)
}
