package cartographer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modwalk/cartographer/internal/resolver"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newCartographer(t *testing.T, root string) *Cartographer {
	t.Helper()
	res := resolver.New(resolver.DefaultConfig(), resolver.WithWorkingDirectory(root))
	return New(Config{Resolver: res})
}

func TestAnalyze_SingleStaticImport(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "main.js"), `require('./b')`)
	write(t, filepath.Join(dir, "b.js"), `module.exports = 1`)

	c := newCartographer(t, dir)
	root, err := c.Analyze(context.Background(), "./main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deps := root.Dependencies()
	if len(deps) != 1 {
		t.Fatalf("expected one dependency, got %d", len(deps))
	}
	d := deps[0]
	if d.Path != "./b" || !d.Static || d.Err != nil {
		t.Fatalf("unexpected dependency record: %+v", d)
	}
	if d.File == nil || d.File.Path != filepath.Join(dir, "b.js") {
		t.Fatalf("expected resolved file b.js, got %+v", d.File)
	}
	if len(d.References) != 1 || d.References[0].Source != "require('./b')" {
		t.Fatalf("unexpected references: %+v", d.References)
	}
}

func TestAnalyze_DynamicImport(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "main.js"), `require(name)`)

	c := newCartographer(t, dir)
	root, err := c.Analyze(context.Background(), "./main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deps := root.Dependencies()
	if len(deps) != 1 {
		t.Fatalf("expected one dependency, got %d", len(deps))
	}
	d := deps[0]
	if d.Static {
		t.Fatal("expected a dynamic import")
	}
	if d.File != nil {
		t.Fatal("expected no resolved file for a dynamic import")
	}
	if d.Err == nil || d.Err.Error() != "unresolvable dynamic import" {
		t.Fatalf("expected the well-known dynamic-import error, got %v", d.Err)
	}
	if d.Path != "name" {
		t.Fatalf("expected raw source slice 'name', got %q", d.Path)
	}
}

func TestAnalyze_FileNotFound(t *testing.T) {
	dir := t.TempDir()
	c := newCartographer(t, dir)

	_, err := c.Analyze(context.Background(), "./does-not-exist")
	if err == nil || !strings.HasPrefix(err.Error(), "file not found:") {
		t.Fatalf("expected file-not-found error, got %v", err)
	}
}

func TestAnalyze_EmptySpecifierIsInvalidArgument(t *testing.T) {
	c := newCartographer(t, t.TempDir())
	if _, err := c.Analyze(context.Background(), ""); err != ErrEmptySpecifier {
		t.Fatalf("expected ErrEmptySpecifier, got %v", err)
	}
}

func TestAnalyze_Cycle(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "x.js"), `require('./y')`)
	write(t, filepath.Join(dir, "y.js"), `require('./x')`)

	c := newCartographer(t, dir)
	root, err := c.Analyze(context.Background(), "./x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	y := root.Dependencies()[0].File
	if y == nil {
		t.Fatal("expected y to resolve")
	}
	back := y.Dependencies()[0].File
	if back != root {
		t.Fatal("expected the back-edge to point at the same root File Record by reference identity")
	}
}
