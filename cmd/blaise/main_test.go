package main

import (
	"os"
	"path/filepath"
	"testing"

	"blaise/internal/diag"
	"blaise/internal/source"
)

func TestResolveProjectUsesManifestMain(t *testing.T) {
	root := t.TempDir()
	manifest := `[package]
name = "demo"

[run]
main = "src/main.pas"

[build]
search = ["units"]
jobs = 2

[vm]
heap_budget = 4096
`
	if err := os.WriteFile(filepath.Join(root, "blaise.toml"), []byte(manifest), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatal(err)
	}

	s, err := resolveProject([]string{root})
	if err != nil {
		t.Fatalf("resolveProject: %v", err)
	}
	if s.entry != filepath.Join(root, "src", "main.pas") {
		t.Fatalf("entry = %s", s.entry)
	}
	if len(s.search) != 1 || s.search[0] != filepath.Join(root, "units") {
		t.Fatalf("search = %v", s.search)
	}
	if s.jobs != 2 || s.heapBudget != 4096 {
		t.Fatalf("jobs=%d heap=%d", s.jobs, s.heapBudget)
	}
	if s.cacheDir != filepath.Join(root, ".blaise", "cache") {
		t.Fatalf("cache = %s", s.cacheDir)
	}
}

func TestResolveProjectWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "hello.pas")
	if err := os.WriteFile(entry, []byte("program Hello; begin end."), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := resolveProject([]string{entry})
	if err != nil {
		t.Fatalf("resolveProject: %v", err)
	}
	if s.manifest != nil || s.baseDir != dir {
		t.Fatalf("manifest=%v base=%s", s.manifest, s.baseDir)
	}
	if _, err := resolveProject([]string{dir}); err == nil {
		t.Fatal("expected an error for a directory without blaise.toml")
	}
}

func TestProgramIdent(t *testing.T) {
	cases := map[string]string{
		"hello":    "hello",
		"my-app":   "my_app",
		"2048":     "_2048",
		"привет":   "______",
		"":         "Main",
		"ok_name1": "ok_name1",
	}
	for in, want := range cases {
		if got := programIdent(in); got != want {
			t.Fatalf("programIdent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilterWarnings(t *testing.T) {
	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevWarning, diag.SemaTypeMismatch, source.Span{}, "unused"))
	bag.Add(diag.NewError(diag.SemaUnresolvedIdentifier, source.Span{}, "unknown"))

	if got := filterWarnings(bag, true, false, 10); got.Len() != 1 {
		t.Fatalf("dropped bag has %d items", got.Len())
	}
	promoted := filterWarnings(bag, false, true, 10)
	for _, d := range promoted.Items() {
		if d.Severity != diag.SevError {
			t.Fatalf("%s not promoted", d.Code.ID())
		}
	}
	if filterWarnings(bag, false, false, 10) != bag {
		t.Fatal("unfiltered bag should be returned as is")
	}
}

func TestReadUIMode(t *testing.T) {
	if m, err := readUIMode(" ON "); err != nil || m != uiModeOn {
		t.Fatalf("readUIMode = %v, %v", m, err)
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatal("expected an error")
	}
	if shouldUseTUI(uiModeAuto, true) {
		t.Fatal("run must not draw progress unless asked")
	}
}
