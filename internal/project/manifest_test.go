package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), `
[package]
name = "zoo"

[run]
main = "src/main.pas"

[build]
search = ["lib"]

[vm]
heap_budget = 4096
max_frames = 64
`)
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	m, ok, err := Discover(nested)
	if err != nil || !ok {
		t.Fatalf("Discover = %v, %v", ok, err)
	}
	if m.Package.Name != "zoo" {
		t.Fatalf("name = %q, want zoo", m.Package.Name)
	}
	if m.Run.Main != filepath.Join(root, "src", "main.pas") {
		t.Fatalf("main = %q", m.Run.Main)
	}
	if len(m.Build.Search) != 1 || m.Build.Search[0] != filepath.Join(root, "lib") {
		t.Fatalf("search = %v", m.Build.Search)
	}
	if m.Build.Cache != filepath.Join(root, ".blaise", "cache") {
		t.Fatalf("cache = %q", m.Build.Cache)
	}
	if m.VM.HeapBudget != 4096 || m.VM.MaxFrames != 64 {
		t.Fatalf("vm = %+v", m.VM)
	}
}

func TestDiscoverWithoutManifest(t *testing.T) {
	m, ok, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A manifest further up the real filesystem would make ok true; only
	// check consistency.
	if !ok && m != nil {
		t.Fatalf("manifest returned without ok")
	}
}

func TestLoadManifestRequiresPackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestName)
	writeFile(t, path, "[run]\nmain = \"a.pas\"\n")
	if _, err := LoadManifest(path); !errors.Is(err, ErrPackageSectionMissing) {
		t.Fatalf("err = %v, want ErrPackageSectionMissing", err)
	}
}

func TestLoadManifestRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestName)
	writeFile(t, path, "[package]\nname = \"x\"\nflavour = \"mint\"\n")
	if _, err := LoadManifest(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestCombineIsOrderSensitive(t *testing.T) {
	var a, b, c Digest
	a[0], b[0], c[0] = 1, 2, 3
	if Combine(a, b, c) == Combine(a, c, b) {
		t.Fatalf("Combine ignores dependency order")
	}
	if Combine(a, b) != Combine(a, b) {
		t.Fatalf("Combine is not deterministic")
	}
}

func TestIsValidModuleIdent(t *testing.T) {
	for name, want := range map[string]bool{
		"MathX": true, "_x1": true, "1x": false, "a-b": false, "": false, "ünit": false,
	} {
		if got := IsValidModuleIdent(name); got != want {
			t.Fatalf("IsValidModuleIdent(%q) = %v, want %v", name, got, want)
		}
	}
}
