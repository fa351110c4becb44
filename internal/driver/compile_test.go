package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"blaise/internal/diag"
	"blaise/internal/module"
)

const mathx = `unit MathX;
interface
function Add(a, b: integer): integer;
implementation
function Add(a, b: integer): integer;
begin
  result := a + b
end;
end.`

const mainSrc = `program Main;
uses MathX;
begin
  writeln(MathX.Add(2, 3))
end.`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func compile(t *testing.T, dir string, opts Options) *Result {
	t.Helper()
	res, err := Compile(context.Background(), filepath.Join(dir, "main.pas"), opts)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return res
}

func TestCompileOrdersUnitsForInitialization(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.pas":  mainSrc,
		"mathx.pas": mathx,
	})
	res := compile(t, dir, Options{})
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Items())
	}
	if len(res.Units) != 2 {
		t.Fatalf("units = %d, want 2", len(res.Units))
	}
	if res.Units[0].Name != "mathx" || res.Entry().Name != "main" {
		t.Fatalf("order = %s,%s", res.Units[0].Name, res.Units[1].Name)
	}
	if len(res.Entry().DepHashes) != 1 || res.Entry().DepHashes[0].Name != "mathx" {
		t.Fatalf("entry dep hashes = %+v", res.Entry().DepHashes)
	}
}

func TestCompileReusesFreshUnits(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.pas":  mainSrc,
		"mathx.pas": mathx,
	})
	cache := filepath.Join(dir, ".blaise")
	first := compile(t, dir, Options{CacheDir: cache})
	if first.Bag.HasErrors() {
		t.Fatalf("first build: %v", first.Bag.Items())
	}
	if len(first.Cached) != 0 {
		t.Fatalf("first build reused %v", first.Cached)
	}
	if _, err := os.Stat(filepath.Join(cache, module.FileName("mathx"))); err != nil {
		t.Fatalf("unit not persisted: %v", err)
	}

	var mu sync.Mutex
	var steps []Step
	second := compile(t, dir, Options{CacheDir: cache, Unit: func(ev UnitEvent) {
		mu.Lock()
		defer mu.Unlock()
		if ev.Done && ev.Step != StepParse {
			steps = append(steps, ev.Step)
		}
	}})
	if !second.Cached["mathx"] || !second.Cached["main"] {
		t.Fatalf("second build cached = %v", second.Cached)
	}
	for _, s := range steps {
		if s != StepLoad {
			t.Fatalf("second build ran step %s", s)
		}
	}
}

func TestCompileRebuildsAfterDependencyEdit(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.pas":  mainSrc,
		"mathx.pas": mathx,
	})
	cache := filepath.Join(dir, ".blaise")
	compile(t, dir, Options{CacheDir: cache})

	edited := "{ edited }\n" + mathx
	if err := os.WriteFile(filepath.Join(dir, "mathx.pas"), []byte(edited), 0o600); err != nil {
		t.Fatal(err)
	}
	res := compile(t, dir, Options{CacheDir: cache})
	if res.Bag.HasErrors() {
		t.Fatalf("rebuild: %v", res.Bag.Items())
	}
	if res.Cached["mathx"] || res.Cached["main"] {
		t.Fatalf("stale units reused: %v", res.Cached)
	}
}

func TestCompileReportsDependencyFailed(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.pas": mainSrc,
		"mathx.pas": `unit MathX;
interface
function Add(a, b: integer): integer;
implementation
function Add(a, b: integer): integer;
begin
  result := missing
end;
end.`,
	})
	res := compile(t, dir, Options{})
	if !res.Bag.HasErrors() {
		t.Fatal("expected errors")
	}
	if !res.Bag.HasCode(diag.ModDependencyFailed) {
		t.Fatalf("missing DependencyFailed: %v", res.Bag.Items())
	}
	if res.Units != nil {
		t.Fatal("units returned for a failed build")
	}
}

func TestCompileReportsCycleOnce(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.pas": "program Main; uses A; begin end.",
		"a.pas":    "unit A; interface uses B; implementation end.",
		"b.pas":    "unit B; interface implementation uses A; end.",
	})
	res := compile(t, dir, Options{})
	count := 0
	for _, d := range res.Bag.Items() {
		if d.Code == diag.ModCircularImport {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("CircularImport reported %d times: %v", count, res.Bag.Items())
	}
}

func TestCompileMissingEntry(t *testing.T) {
	_, err := Compile(context.Background(), filepath.Join(t.TempDir(), "none.pas"), Options{})
	if err == nil {
		t.Fatal("expected an error for a missing entry file")
	}
}
