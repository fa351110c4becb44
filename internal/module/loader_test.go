package module

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blaise/internal/diag"
	"blaise/internal/source"
)

func writeSources(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func names(sources []*Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = s.Meta.Name
	}
	return out
}

func TestDiscoverOrdersDependenciesFirst(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"main.pas": "program Main; uses A, B; begin end.",
		"A.pas":    "unit A; interface uses B; implementation end.",
		"b.pas":    "unit B; interface implementation end.",
	})
	l := NewLoader(source.NewFileSet(), nil)
	sources, err := l.Discover(filepath.Join(dir, "main.pas"))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	got := strings.Join(names(sources), ",")
	if got != "b,a,main" {
		t.Fatalf("order = %s, want b,a,main", got)
	}
	for _, s := range sources {
		if s.Bag.HasErrors() {
			t.Fatalf("%s: %v", s.Meta.Name, s.Bag.Items())
		}
	}
}

func TestDiscoverReportsCircularImport(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"main.pas": "program Main; uses A; begin end.",
		"a.pas":    "unit A; interface uses B; implementation end.",
		"b.pas":    "unit B; interface implementation uses A; end.",
	})
	l := NewLoader(source.NewFileSet(), nil)
	sources, err := l.Discover(filepath.Join(dir, "main.pas"))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	b := ByName(sources)["b"]
	if b == nil || !b.Bag.HasCode(diag.ModCircularImport) {
		t.Fatalf("expected CircularImport in b")
	}
	msg := b.Bag.Items()[0].Message
	if !strings.Contains(msg, "A -> B -> A") {
		t.Fatalf("message = %q", msg)
	}
}

func TestDiscoverUsesSearchPath(t *testing.T) {
	lib := writeSources(t, map[string]string{"util.pas": "unit Util; interface implementation end."})
	dir := writeSources(t, map[string]string{"main.pas": "program Main; uses Util; begin end."})
	l := NewLoader(source.NewFileSet(), []string{lib})
	sources, err := l.Discover(filepath.Join(dir, "main.pas"))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(sources) != 2 || sources[0].Meta.Name != "util" {
		t.Fatalf("sources = %v", names(sources))
	}
}

func TestDiscoverUnknownUnit(t *testing.T) {
	dir := writeSources(t, map[string]string{"main.pas": "program Main; uses Nope; begin end."})
	l := NewLoader(source.NewFileSet(), nil)
	sources, err := l.Discover(filepath.Join(dir, "main.pas"))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if !sources[0].Bag.HasCode(diag.ModUnknownModule) {
		t.Fatalf("diagnostics = %v", sources[0].Bag.Items())
	}
}

func TestDiscoverNameMismatch(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"main.pas": "program Main; uses Util; begin end.",
		"util.pas": "unit Other; interface implementation end.",
	})
	l := NewLoader(source.NewFileSet(), nil)
	sources, err := l.Discover(filepath.Join(dir, "main.pas"))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if !ByName(sources)["util"].Bag.HasCode(diag.ModNameMismatch) {
		t.Fatalf("expected NameMismatch")
	}
}
