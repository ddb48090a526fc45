package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/modwalk/cartographer/internal/cartographer"
	"github.com/modwalk/cartographer/internal/entry"
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

func TestAnalyze_RunsEveryEntryIndependently(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a", "main.js"), `require('./lib')`)
	write(t, filepath.Join(dir, "a", "lib.js"), `module.exports = 1`)
	write(t, filepath.Join(dir, "b", "main.js"), `module.exports = 2`)

	res := resolver.New(resolver.DefaultConfig())
	c := cartographer.New(cartographer.Config{Resolver: res})

	entries := []entry.Entry{
		{Name: "a", Path: filepath.Join(dir, "a", "main.js")},
		{Name: "b", Path: filepath.Join(dir, "b", "main.js")},
	}

	var progressCalls []int
	results := Analyze(context.Background(), c, entries, func(done, total int) {
		progressCalls = append(progressCalls, done)
	})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("unexpected error for %s: %v", r.Entry.Name, r.Err)
		}
		if r.Root == nil {
			t.Fatalf("expected a populated root for %s", r.Entry.Name)
		}
	}
	if results[0].Entry.Name != "a" || results[1].Entry.Name != "b" {
		t.Fatalf("expected result order to match input order, got %+v", results)
	}
	aDeps := results[0].Root.Dependencies()
	if len(aDeps) != 1 || aDeps[0].File == nil {
		t.Fatalf("expected entry a to have one resolved dependency, got %+v", aDeps)
	}
	if len(progressCalls) != 2 {
		t.Fatalf("expected one progress callback per entry, got %v", progressCalls)
	}
}

func TestAnalyze_CancelledContextFailsRemainingEntries(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.js"), `module.exports = 1`)

	res := resolver.New(resolver.DefaultConfig())
	c := cartographer.New(cartographer.Config{Resolver: res})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Analyze(ctx, c, []entry.Entry{{Name: "a", Path: filepath.Join(dir, "a.js")}}, nil)
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("expected the cancelled entry to report an error, got %+v", results)
	}
}

func TestAnalyze_UnresolvableEntryReportsErrorWithoutAbortingOthers(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "ok.js"), `module.exports = 1`)

	res := resolver.New(resolver.DefaultConfig())
	c := cartographer.New(cartographer.Config{Resolver: res})

	entries := []entry.Entry{
		{Name: "missing", Path: filepath.Join(dir, "does-not-exist.js")},
		{Name: "ok", Path: filepath.Join(dir, "ok.js")},
	}
	results := Analyze(context.Background(), c, entries, nil)

	if results[0].Err == nil {
		t.Fatal("expected the missing entry to report a file-not-found error")
	}
	if results[1].Err != nil || results[1].Root == nil {
		t.Fatalf("expected the ok entry to succeed independently, got %+v", results[1])
	}
}
