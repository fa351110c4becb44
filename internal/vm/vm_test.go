package vm

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"blaise/internal/codegen"
	"blaise/internal/diag"
	"blaise/internal/module"
	"blaise/internal/parser"
	"blaise/internal/sema"
	"blaise/internal/source"
	"blaise/internal/types"
)

// build compiles srcs in order with a shared interner. Each source may use
// the ones before it.
func build(t *testing.T, srcs ...string) ([]*module.Unit, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	in := types.NewInterner()
	imports := make(map[string]*sema.Import)
	var units []*module.Unit
	for i, src := range srcs {
		id := fs.AddVirtual(strings.Repeat("u", i+1)+".pas", []byte(src))
		bag := diag.NewBag(32)
		file := parser.ParseFile(fs.Get(id), diag.BagReporter{Bag: bag})
		if file == nil {
			t.Fatalf("parse failed: %v", bag.Items())
		}
		mod, errs := sema.Bind(file, sema.Options{Reporter: diag.BagReporter{Bag: bag}, Types: in, Imports: imports})
		if errs > 0 {
			t.Fatalf("bind failed: %v", bag.Items())
		}
		u, err := codegen.Generate(mod, in)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		u.File = id
		imp, err := u.Import(in)
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		imports[u.Name] = imp
		units = append(units, u)
	}
	return units, fs
}

func run(t *testing.T, opts Options, srcs ...string) (string, *VM, *VMError) {
	t.Helper()
	units, fs := build(t, srcs...)
	var out bytes.Buffer
	opts.Out = &out
	opts.Files = fs
	m, err := New(units, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	vmErr := m.Run(context.Background())
	return out.String(), m, vmErr
}

func expectOutput(t *testing.T, want string, srcs ...string) {
	t.Helper()
	got, _, vmErr := run(t, Options{}, srcs...)
	if vmErr != nil {
		t.Fatalf("run: %s", vmErr.FormatWithFiles(nil))
	}
	if got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func expectPanic(t *testing.T, code PanicCode, src string) *VMError {
	t.Helper()
	_, _, vmErr := run(t, Options{}, src)
	if vmErr == nil {
		t.Fatalf("expected %s, program finished", code)
	}
	if vmErr.Code != code {
		t.Fatalf("fault = %s, want %s", vmErr, code)
	}
	return vmErr
}

const mathx = `unit MathX;
interface
function Add(a, b: integer): integer;
implementation
function Add(a, b: integer): integer;
begin
  result := a + b
end;
end.`

func TestCallAcrossUnits(t *testing.T) {
	expectOutput(t, "5\n", mathx, `program Main;
uses MathX;
begin
  writeln(MathX.Add(2, 3))
end.`)
}

func TestUnitInitializationRunsFirst(t *testing.T) {
	expectOutput(t, "init\nmain 7\n", `unit Counter;
interface
var Start: integer;
implementation
initialization
  Start := 7;
  writeln('init')
end.`, `program Main;
uses Counter;
begin
  writeln('main ', Start)
end.`)
}

func TestVirtualDispatch(t *testing.T) {
	expectOutput(t, "Woof\nbase\nmore\n", `program Zoo;
type
  Animal = class
    function Speak: string; virtual;
  end;
  Dog = class(Animal)
    function Speak: string; override;
  end;
  TBase = class
    function Who: string; virtual;
  end;
  TDerived = class(TBase)
  end;
  TMore = class(TDerived)
    function Who: string; override;
  end;
function Animal.Speak: string; begin result := '...' end;
function Dog.Speak: string; begin result := 'Woof' end;
function TBase.Who: string; begin result := 'base' end;
function TMore.Who: string; begin result := 'more' end;
var a: Animal; b: TBase;
begin
  a := new Dog;
  writeln(a.Speak);
  b := new TDerived;
  writeln(b.Who);
  b := new TMore;
  writeln(b.Who)
end.`)
}

func TestStringConcatenation(t *testing.T) {
	expectOutput(t, "abcd\nabc!\nxy\n", `program P;
const Tail = 'c' + '!';
var s, t: string; c: char;
begin
  s := 'ab';
  t := 'cd';
  writeln(s + t);
  writeln('ab' + Tail);
  c := 'y';
  writeln('x' + c)
end.`)
}

func TestConstructorInitializesFields(t *testing.T) {
	expectOutput(t, "rex 3\n", `program P;
type
  Pet = class
    name: string;
    legs: array[4] of integer;
    constructor Create(n: string);
  end;
constructor Pet.Create(n: string);
begin
  name := n;
  legs[2] := 3
end;
var p: Pet;
begin
  p := new Pet('rex');
  writeln(p.name, ' ', p.legs[2])
end.`)
}

func TestLoopsAndShortCircuit(t *testing.T) {
	expectOutput(t, "45\nok\n", `program P;
type Box = class v: integer; end;
var i, sum: integer; b: Box;
begin
  sum := 0;
  for i := 0 to 9 do
    sum := sum + i;
  writeln(sum);
  b := nil;
  if (b = nil) or (b.v = 1) then
    writeln('ok')
end.`)
}

func TestIndexOutOfBounds(t *testing.T) {
	e := expectPanic(t, PanicIndexOutOfBounds, `program P;
var a: array[3] of integer; i: integer;
begin
  i := 5;
  a[i] := 1
end.`)
	if !strings.Contains(e.Message, "index 5") || !strings.Contains(e.Message, "length 3") {
		t.Fatalf("message = %q", e.Message)
	}
	if len(e.Backtrace) == 0 {
		t.Fatalf("no backtrace")
	}
}

func TestDivisionByZero(t *testing.T) {
	expectPanic(t, PanicDivisionByZero, `program P;
var x, y: integer;
begin
  y := 0;
  x := 10 div y
end.`)
}

func TestNullReference(t *testing.T) {
	expectPanic(t, PanicNullReference, `program P;
type Box = class v: integer; end;
var b: Box;
begin
  b := nil;
  writeln(b.v)
end.`)
}

func TestStackOverflow(t *testing.T) {
	_, _, vmErr := run(t, Options{MaxFrames: 64}, `program P;
procedure Loop(n: integer);
begin
  Loop(n + 1)
end;
begin
  Loop(0)
end.`)
	if vmErr == nil || vmErr.Code != PanicStackOverflow {
		t.Fatalf("fault = %v, want stack overflow", vmErr)
	}
}

func TestHaltSetsExitCode(t *testing.T) {
	out, m, vmErr := run(t, Options{}, `program P;
begin
  writeln('before');
  halt(3);
  writeln('after')
end.`)
	if vmErr != nil {
		t.Fatalf("run: %v", vmErr)
	}
	if !m.Halted || m.ExitCode != 3 || out != "before\n" {
		t.Fatalf("halted=%v code=%d out=%q", m.Halted, m.ExitCode, out)
	}
}

func TestContextCancelStops(t *testing.T) {
	units, _ := build(t, `program P;
var i: integer;
begin
  i := 0;
  while true do
    i := i + 1
end.`)
	m, err := New(units, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	vmErr := m.Run(ctx)
	if vmErr == nil || vmErr.Code != PanicStopped {
		t.Fatalf("fault = %v, want stopped", vmErr)
	}
}

func TestPersistedUnitsBehaveTheSame(t *testing.T) {
	srcs := []string{mathx, `program Main;
uses MathX;
var i: integer;
begin
  for i := 1 to 3 do
    writeln(Add(i, i))
end.`}
	units, _ := build(t, srcs...)
	dir := t.TempDir()
	var loaded []*module.Unit
	for _, u := range units {
		if err := module.Save(dir, u); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, ok, err := module.Load(dir, u.Name)
		if err != nil || !ok {
			t.Fatalf("Load %s: %v %v", u.Name, ok, err)
		}
		loaded = append(loaded, got)
	}
	var a, b bytes.Buffer
	for i, set := range [][]*module.Unit{units, loaded} {
		out := &a
		if i == 1 {
			out = &b
		}
		m, err := New(set, Options{Out: out})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if vmErr := m.Run(context.Background()); vmErr != nil {
			t.Fatalf("run: %v", vmErr)
		}
	}
	if a.String() != "2\n4\n6\n" || a.String() != b.String() {
		t.Fatalf("outputs %q and %q", a.String(), b.String())
	}
}

func TestLinkRejectsMissingDependency(t *testing.T) {
	units, _ := build(t, mathx, `program Main;
uses MathX;
begin
  writeln(Add(1, 2))
end.`)
	if _, err := New(units[1:], Options{}); err == nil {
		t.Fatalf("linking without MathX succeeded")
	}
}
