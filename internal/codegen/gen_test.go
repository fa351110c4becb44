package codegen

import (
	"strings"
	"testing"

	"blaise/internal/bytecode"
	"blaise/internal/diag"
	"blaise/internal/module"
	"blaise/internal/parser"
	"blaise/internal/sema"
	"blaise/internal/source"
	"blaise/internal/types"
)

func compile(t *testing.T, src string) *module.Unit {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.pas", []byte(src))
	bag := diag.NewBag(32)
	file := parser.ParseFile(fs.Get(id), diag.BagReporter{Bag: bag})
	if file == nil {
		t.Fatalf("parse failed: %v", bag.Items())
	}
	in := types.NewInterner()
	mod, errs := sema.Bind(file, sema.Options{Reporter: diag.BagReporter{Bag: bag}, Types: in})
	if errs > 0 {
		t.Fatalf("bind failed: %v", bag.Items())
	}
	u, err := Generate(mod, in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return u
}

func routineNamed(t *testing.T, u *module.Unit, name string) *bytecode.Routine {
	t.Helper()
	for i := range u.Routines {
		if u.Routines[i].Name == name {
			return &u.Routines[i]
		}
	}
	t.Fatalf("routine %q not found", name)
	return nil
}

func ops(r *bytecode.Routine) []bytecode.Op {
	var out []bytecode.Op
	for _, b := range r.Code.Blocks {
		for _, in := range b.Instrs {
			out = append(out, in.Op)
		}
	}
	return out
}

func count(r *bytecode.Routine, op bytecode.Op) int {
	n := 0
	for _, o := range ops(r) {
		if o == op {
			n++
		}
	}
	return n
}

const zoo = `program Zoo;
type
  Animal = class
    name: string;
    constructor Create(n: string);
    function Speak: string; virtual;
  end;
  Dog = class(Animal)
    tricks: array[3] of integer;
    function Speak: string; override;
  end;
constructor Animal.Create(n: string);
begin
  name := n
end;
function Animal.Speak: string;
begin
  result := '...'
end;
function Dog.Speak: string;
begin
  result := 'Woof'
end;
var a: Animal;
begin
  a := new Dog('rex');
  writeln(a.Speak)
end.`

func TestEveryBlockEndsInTerminator(t *testing.T) {
	u := compile(t, zoo)
	for i := range u.Routines {
		if err := u.Routines[i].Code.Validate(); err != nil {
			t.Fatalf("%s: %v", u.Routines[i].Name, err)
		}
	}
	if err := u.Validate(); err != nil {
		t.Fatalf("unit: %v", err)
	}
}

func TestVirtualCallCarriesSlot(t *testing.T) {
	u := compile(t, zoo)
	main := u.Routine(u.Main)
	var found bool
	for _, b := range main.Code.Blocks {
		for _, in := range b.Instrs {
			if in.Op == bytecode.OpCallVirtual {
				found = true
				if in.A != 0 || in.B != 1 {
					t.Fatalf("call.virtual %d %d, want slot 0 argc 1", in.A, in.B)
				}
			}
		}
	}
	if !found {
		t.Fatalf("no virtual call in main:\n%v", ops(main))
	}
	if count(main, bytecode.OpNewObject) != 1 || count(main, bytecode.OpUnpin) != 1 {
		t.Fatalf("object construction not lowered: %v", ops(main))
	}
	if count(main, bytecode.OpCallNative) != 1 {
		t.Fatalf("writeln not lowered to a native call: %v", ops(main))
	}
}

func TestClassDescriptorsBaseFirst(t *testing.T) {
	u := compile(t, zoo)
	if len(u.Classes) != 2 || u.Classes[0].Name != "animal" || u.Classes[1].Name != "dog" {
		t.Fatalf("classes = %+v", u.Classes)
	}
	dog := u.Class("dog")
	if dog.Base == nil || dog.Base.Name != "animal" {
		t.Fatalf("dog base = %+v", dog.Base)
	}
	if dog.Slots != 2 || len(dog.FieldShapes) != 2 {
		t.Fatalf("dog slots = %d, shapes = %v", dog.Slots, dog.FieldShapes)
	}
	if dog.FieldShapes[0].Kind != bytecode.ShapeString {
		t.Fatalf("inherited field shape = %s", dog.FieldShapes[0])
	}
	if s := dog.FieldShapes[1]; s.Kind != bytecode.ShapeArray || s.Len != 3 || s.Elem.Kind != bytecode.ShapeInt {
		t.Fatalf("array field shape = %s", s)
	}
	if len(dog.VMT) != 1 || dog.VMT[0].Owner.Name != "dog" {
		t.Fatalf("dog vmt = %+v", dog.VMT)
	}
}

func TestForLoopUsesSucc(t *testing.T) {
	u := compile(t, `program P;
var i, s: integer;
begin
  s := 0;
  for i := 1 to 10 do
  begin
    if i = 5 then continue;
    s := s + i
  end;
  for i := 10 downto 1 do
    if i = 3 then break
end.`)
	main := u.Routine(u.Main)
	if count(main, bytecode.OpSucc) != 1 || count(main, bytecode.OpPred) != 1 {
		t.Fatalf("ops = %v", ops(main))
	}
	// i and s are globals, so the only frame slots are the loop limits.
	if len(main.Locals) != 2 {
		t.Fatalf("locals = %v, want two limit temps", main.Locals)
	}
}

func TestShortCircuitAnd(t *testing.T) {
	u := compile(t, `program P;
var a: array of integer; ok: boolean;
begin
  ok := (a <> nil) and (a[0] = 1)
end.`)
	main := u.Routine(u.Main)
	if count(main, bytecode.OpAnd) != 0 {
		t.Fatalf("boolean and lowered eagerly: %v", ops(main))
	}
	if count(main, bytecode.OpBranch) != 1 || count(main, bytecode.OpDup) != 1 {
		t.Fatalf("ops = %v", ops(main))
	}
}

func TestBitwiseAndStaysEager(t *testing.T) {
	u := compile(t, `program P;
var x: integer;
begin
  x := x and 3
end.`)
	if count(u.Routine(u.Main), bytecode.OpAnd) != 1 {
		t.Fatalf("integer and not lowered to and")
	}
}

func TestCaseTestsEveryLabel(t *testing.T) {
	u := compile(t, `program P;
var x, y: integer;
begin
  case x of
    1, 2: y := 10;
    3: y := 20
  else
    y := 0
  end
end.`)
	main := u.Routine(u.Main)
	if n := count(main, bytecode.OpEq); n != 3 {
		t.Fatalf("eq count = %d, want 3", n)
	}
}

func TestExitInFunctionReturnsResult(t *testing.T) {
	u := compile(t, `program P;
function F(x: integer): integer;
begin
  F := 1;
  if x > 0 then exit;
  F := 2
end;
begin
  writeln(F(3))
end.`)
	f := routineNamed(t, u, "F")
	if f.Result != 1 || f.Params != 1 {
		t.Fatalf("frame params=%d result=%d", f.Params, f.Result)
	}
	for _, b := range f.Code.Blocks {
		last := b.Instrs[len(b.Instrs)-1]
		if last.Op == bytecode.OpReturn && last.A != 1 {
			t.Fatalf("function return without result")
		}
	}
}

func TestPrintListing(t *testing.T) {
	u := compile(t, zoo)
	var sb strings.Builder
	if err := bytecode.Print(&sb, u.Routine(u.Main), &u.Pool); err != nil {
		t.Fatalf("Print: %v", err)
	}
	out := sb.String()
	for _, want := range []string{"new.object", "zoo.dog", "call.virtual 0 1", "writeln"} {
		if !strings.Contains(out, want) {
			t.Fatalf("listing lacks %q:\n%s", want, out)
		}
	}
}
