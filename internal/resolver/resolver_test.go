package resolver

import (
	"os"
	"path/filepath"
	"testing"
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

func TestResolve_RelativeNextDoor(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "main.js"), "require('./b')")
	write(t, filepath.Join(dir, "b.js"), "module.exports = 1")

	r := New(DefaultConfig())
	fr, err := r.Resolve("./b", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fr == nil {
		t.Fatal("expected a resolved file")
	}
	if fr.Path != filepath.Join(dir, "b.js") {
		t.Fatalf("expected b.js, got %s", fr.Path)
	}
}

func TestResolve_ExtensionProbing(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "b.js"), "module.exports = 1")

	r := New(DefaultConfig())
	fr, err := r.Resolve("./b", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fr == nil || fr.Path != filepath.Join(dir, "b.js") {
		t.Fatalf("expected b.js, got %+v", fr)
	}
}

func TestResolve_PackageManifestEntry(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "lib", "package.json"), `{"main":"entry.js"}`)
	write(t, filepath.Join(dir, "lib", "entry.js"), "module.exports = 1")

	r := New(DefaultConfig())
	fr, err := r.Resolve("./lib", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(dir, "lib", "entry.js")
	if fr == nil || fr.Path != want {
		t.Fatalf("expected %s, got %+v", want, fr)
	}
}

func TestResolve_DirectoryIndexFallback(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "lib", "index.js"), "module.exports = 1")

	r := New(DefaultConfig())
	fr, err := r.Resolve("./lib", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(dir, "lib", "index.js")
	if fr == nil || fr.Path != want {
		t.Fatalf("expected %s, got %+v", want, fr)
	}
}

func TestResolve_BareModuleUpwardWalk(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "node_modules", "x", "index.js"), "module.exports = 1")

	deep := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}

	r := New(DefaultConfig())
	fr, err := r.Resolve("x", deep)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(root, "node_modules", "x", "index.js")
	if fr == nil || fr.Path != want {
		t.Fatalf("expected %s, got %+v", want, fr)
	}
}

func TestResolve_EmptySpecifierIsInvalidArgument(t *testing.T) {
	r := New(DefaultConfig())
	if _, err := r.Resolve("", t.TempDir()); err != ErrEmptySpecifier {
		t.Fatalf("expected ErrEmptySpecifier, got %v", err)
	}
}

func TestResolve_TrailingSlashForcesDirectoryResolution(t *testing.T) {
	dir := t.TempDir()
	// A file that would match file-resolution if trailing slash were
	// dropped, plus a directory with an index, to disambiguate which path
	// was actually taken.
	write(t, filepath.Join(dir, "lib.js"), "module.exports = 1")
	write(t, filepath.Join(dir, "lib", "index.js"), "module.exports = 2")

	r := New(DefaultConfig())
	fr, err := r.Resolve("./lib/", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(dir, "lib", "index.js")
	if fr == nil || fr.Path != want {
		t.Fatalf("expected directory resolution to win: %s, got %+v", want, fr)
	}
}

func TestResolve_MalformedManifestIsFatal(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "lib", "package.json"), `{not json`)

	r := New(DefaultConfig())
	_, err := r.Resolve("./lib", dir)
	if err == nil {
		t.Fatal("expected malformed manifest error")
	}
}

func TestResolve_ManifestStepSixSkipsRemainingManifests(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Packages = []string{"package.json", "package.alt.json"}

	// First manifest names an entry that does not exist anywhere; the
	// second manifest (which would otherwise resolve) must NOT be tried,
	// per the deliberate step-6 policy, and directory/index must also
	// miss here since there is no lib/index.js either.
	write(t, filepath.Join(dir, "lib", "package.json"), `{"main":"missing.js"}`)
	write(t, filepath.Join(dir, "lib", "package.alt.json"), `{"main":"entry.js"}`)
	write(t, filepath.Join(dir, "lib", "entry.js"), "module.exports = 1")

	r := New(cfg)
	fr, err := r.Resolve("./lib", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fr != nil {
		t.Fatalf("expected absent outcome (step 6 short-circuit), got %+v", fr)
	}
}

func TestResolve_MainSpecPath(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "lib", "package.json"), `{"publishConfig":{"main":"entry.js"}}`)
	write(t, filepath.Join(dir, "lib", "entry.js"), "module.exports = 1")

	cfg := DefaultConfig()
	cfg.Mains = []MainSpec{Path("publishConfig", "main")}

	r := New(cfg)
	fr, err := r.Resolve("./lib", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(dir, "lib", "entry.js")
	if fr == nil || fr.Path != want {
		t.Fatalf("expected %s, got %+v", want, fr)
	}
}

func TestResolve_PathKeyedCacheReturnsSameRecord(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "b.js"), "module.exports = 1")

	r := New(DefaultConfig())
	fr1, err := r.Resolve("./b", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fr2, err := r.Resolve("./b", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fr1 != fr2 {
		t.Fatal("expected the same File Record instance for the same path")
	}
}

func TestResolve_AbsentOutcomeHasNoError(t *testing.T) {
	dir := t.TempDir()
	r := New(DefaultConfig())
	fr, err := r.Resolve("./nope", dir)
	if err != nil {
		t.Fatalf("expected absent outcome, not an error: %v", err)
	}
	if fr != nil {
		t.Fatalf("expected nil, got %+v", fr)
	}
}
