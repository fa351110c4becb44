package buildpipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"blaise/internal/vm"
)

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

type recordSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordSink) OnEvent(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordSink) files() map[string]Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	last := make(map[string]Status)
	for _, ev := range r.events {
		if ev.File != "" {
			last[ev.File] = ev.Status
		}
	}
	return last
}

const greeter = `unit Greeter;
interface
procedure Hello(name: string);
implementation
procedure Hello(name: string);
begin
  writeln('hello, ' + name)
end;
end.`

func TestRunPrintsOutput(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.pas": "program Main;\nuses Greeter;\nbegin\n  Greeter.Hello('world')\nend.",
		"greeter.pas": greeter,
	})
	var out bytes.Buffer
	sink := &recordSink{}
	res, err := Run(context.Background(), &RunRequest{
		CompileRequest: CompileRequest{TargetPath: filepath.Join(dir, "main.pas"), BaseDir: dir, Progress: sink},
		Out:            &out,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Fault != nil || res.ExitCode != 0 {
		t.Fatalf("fault=%v exit=%d", res.Fault, res.ExitCode)
	}
	if out.String() != "hello, world\n" {
		t.Fatalf("output = %q", out.String())
	}
	files := sink.files()
	if _, ok := files["greeter.pas"]; !ok {
		t.Fatalf("no progress for greeter.pas: %v", files)
	}
	if !res.Timings.Has(StageRun) {
		t.Fatal("run stage not timed")
	}
}

func TestRunReportsFault(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.pas": "program Main;\nvar a, b: integer;\nbegin\n  a := 1;\n  b := 0;\n  writeln(a div b)\nend.",
	})
	res, err := Run(context.Background(), &RunRequest{
		CompileRequest: CompileRequest{TargetPath: filepath.Join(dir, "main.pas")},
		Out:            &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Fault == nil || res.Fault.Code != vm.PanicDivisionByZero {
		t.Fatalf("fault = %v", res.Fault)
	}
	if res.ExitCode != 1 {
		t.Fatalf("exit = %d, want 1", res.ExitCode)
	}
}

func TestRunRejectsUnitEntry(t *testing.T) {
	dir := writeTree(t, map[string]string{"greeter.pas": greeter})
	_, err := Run(context.Background(), &RunRequest{
		CompileRequest: CompileRequest{TargetPath: filepath.Join(dir, "greeter.pas")},
	})
	if err == nil || !strings.Contains(err.Error(), "is a unit") {
		t.Fatalf("err = %v", err)
	}
}

func TestCompileErrorsReturnDiagnostics(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.pas": "program Main;\nbegin\n  writeln(missing)\nend.",
	})
	res, err := Compile(context.Background(), &CompileRequest{TargetPath: filepath.Join(dir, "main.pas")})
	if !errors.Is(err, ErrDiagnostics) {
		t.Fatalf("err = %v, want ErrDiagnostics", err)
	}
	if res.Driver == nil || !res.Driver.Bag.HasErrors() {
		t.Fatal("diagnostics missing from the result")
	}
}

func TestBuildPersistsUnits(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.pas":    "program Main;\nuses Greeter;\nbegin\n  Greeter.Hello('x')\nend.",
		"greeter.pas": greeter,
	})
	cache := filepath.Join(dir, "cache")
	req := &BuildRequest{CompileRequest: CompileRequest{TargetPath: filepath.Join(dir, "main.pas"), CacheDir: cache}}
	res, err := Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Units) != 2 {
		t.Fatalf("units = %d, want 2", len(res.Units))
	}
	entries, err := os.ReadDir(cache)
	if err != nil || len(entries) != 2 {
		t.Fatalf("cache entries = %v (%v)", entries, err)
	}

	again, err := Build(context.Background(), req)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if !again.Driver.Cached["greeter"] {
		t.Fatalf("greeter not reused: %v", again.Driver.Cached)
	}
}

func TestBuildNeedsCacheDir(t *testing.T) {
	_, err := Build(context.Background(), &BuildRequest{CompileRequest: CompileRequest{TargetPath: "main.pas"}})
	if err == nil {
		t.Fatal("expected an error without a cache directory")
	}
}
