package sema

import (
	"testing"

	"blaise/internal/diag"
	"blaise/internal/hir"
	"blaise/internal/parser"
	"blaise/internal/source"
	"blaise/internal/types"
)

type bound struct {
	mod *hir.Module
	in  *types.Interner
	bag *diag.Bag
}

func bindSource(t *testing.T, src string) bound {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.pas", []byte(src))
	bag := diag.NewBag(32)
	file := parser.ParseFile(fs.Get(id), diag.BagReporter{Bag: bag})
	if file == nil {
		t.Fatalf("parse failed: %v", bag.Items())
	}
	in := types.NewInterner()
	mod, _ := Bind(file, Options{Reporter: diag.BagReporter{Bag: bag}, Types: in})
	return bound{mod: mod, in: in, bag: bag}
}

func mustBind(t *testing.T, src string) bound {
	t.Helper()
	b := bindSource(t, src)
	if b.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", b.bag.Items())
	}
	return b
}

func expectCode(t *testing.T, src string, code diag.Code) {
	t.Helper()
	b := bindSource(t, src)
	if !b.bag.HasCode(code) {
		t.Fatalf("expected %s, got %v", code, b.bag.Items())
	}
}

func mainBody(t *testing.T, b bound) []*hir.Stmt {
	t.Helper()
	if b.mod.Main < 0 {
		t.Fatalf("program has no main routine")
	}
	return b.mod.Routines[b.mod.Main].Body
}

func assignValue(t *testing.T, s *hir.Stmt) *hir.Expr {
	t.Helper()
	d, ok := s.Data.(hir.AssignData)
	if !ok {
		t.Fatalf("statement is %s, want Assign", s.Kind)
	}
	return d.Value
}

func TestConstantArrayLength(t *testing.T) {
	b := mustBind(t, `program P;
const N = 2 + 3;
var arr: array[N] of integer;
begin
end.`)
	if len(b.mod.Globals) != 1 {
		t.Fatalf("globals = %d, want 1", len(b.mod.Globals))
	}
	arr := b.in.MustLookup(b.mod.Globals[0].Type)
	if arr.Kind != types.KindArray || arr.Count != 5 {
		t.Fatalf("arr type = %s, want array[5] of integer", b.in.String(b.mod.Globals[0].Type))
	}
}

func TestArrayLengthMustBeConstant(t *testing.T) {
	expectCode(t, `program P;
var n: integer;
    arr: array[n] of integer;
begin
end.`, diag.SemaNotAConstantExpression)
}

func TestConstantFolding(t *testing.T) {
	b := mustBind(t, `program P;
const Greeting = 'ab' + 'c';
      Ratio = 7 / 2;
var s: string; r: real;
begin
  s := Greeting;
  r := Ratio
end.`)
	body := mainBody(t, b)
	if v := assignValue(t, body[0]); !v.IsConst() || v.ConstValue().Str != "abc" {
		t.Fatalf("Greeting = %v, want 'abc'", v.ConstValue())
	}
	if v := assignValue(t, body[1]); !v.IsConst() || v.ConstValue().Real != 3.5 {
		t.Fatalf("Ratio = %v, want 3.5", v.ConstValue())
	}
}

func TestStringPlusBindsToConcat(t *testing.T) {
	b := mustBind(t, `program P;
var s, u: string; c: char;
begin
  u := s + c
end.`)
	v := assignValue(t, mainBody(t, b)[0])
	d, ok := v.Data.(hir.BinaryData)
	if !ok || d.Op != hir.OpConcat {
		t.Fatalf("s + c bound to %+v, want concatenation", v.Data)
	}
}

func TestThisOutsideMethod(t *testing.T) {
	expectCode(t, `program P;
var x: integer;
begin
  x := this
end.`, diag.SemaThisOutsideMethod)
}

func TestBaseWithoutInheritance(t *testing.T) {
	expectCode(t, `program P;
type A = class
  procedure Run; virtual;
end;
procedure A.Run;
begin
  base.Run
end;
begin
end.`, diag.SemaBaseWithoutInheritance)
}

func TestUnknownMember(t *testing.T) {
	expectCode(t, `program P;
type Animal = class
  procedure Speak;
end;
procedure Animal.Speak;
begin
end;
var a: Animal;
begin
  a := new Animal;
  a.Bark()
end.`, diag.SemaUnknownMember)
}

func TestNoMatchingOverload(t *testing.T) {
	expectCode(t, `program P;
procedure Show(x: integer);
begin
end;
begin
  Show('text')
end.`, diag.SemaNoMatchingOverload)
}

func TestDuplicateType(t *testing.T) {
	expectCode(t, `program P;
type T = integer;
     T = real;
begin
end.`, diag.SemaDuplicateType)
}

func TestCyclicInheritance(t *testing.T) {
	expectCode(t, `program P;
type A = class(B) end;
     B = class(A) end;
begin
end.`, diag.SemaCyclicInheritance)
}

func TestUnknownBase(t *testing.T) {
	expectCode(t, `program P;
type A = class(Missing) end;
begin
end.`, diag.SemaUnknownBase)
}

func TestFieldRedeclaredInDerivedClass(t *testing.T) {
	expectCode(t, `program P;
type
  A = class
    count: integer;
  end;
  B = class(A)
    count: integer;
  end;
begin
end.`, diag.SemaDuplicateSymbol)
}

func TestBreakOutsideLoop(t *testing.T) {
	expectCode(t, `program P;
begin
  break
end.`, diag.SemaBadLoopControl)
}

func TestStringCharsAreReadOnly(t *testing.T) {
	expectCode(t, `program P;
var s: string;
begin
  s := 'abc';
  s[0] := 'x'
end.`, diag.SemaNotAssignable)
}

func TestMissingBody(t *testing.T) {
	expectCode(t, `program P;
type A = class
  procedure Run;
end;
begin
end.`, diag.SemaMissingBody)
}

func TestExactOverloadBeatsWidening(t *testing.T) {
	b := mustBind(t, `program P;
function Twice(x: real): real;
begin
  result := x * 2
end;
function Twice(x: integer): integer;
begin
  Twice := x * 2
end;
var n: integer;
begin
  n := Twice(4)
end.`)
	v := assignValue(t, mainBody(t, b)[0])
	call, ok := v.Data.(hir.CallData)
	if !ok {
		t.Fatalf("value is %s, want Call", v.Kind)
	}
	r := b.mod.Routines[call.Routine.Index]
	if b.in.Kind(r.Slots[0].Type) != types.KindInt {
		t.Fatalf("picked %s(%s), want the integer overload", r.Name, b.in.String(r.Slots[0].Type))
	}
	if v.Type != b.in.Builtins().Integer {
		t.Fatalf("call type = %s, want integer", b.in.String(v.Type))
	}
}

func TestIntegerWidensToReal(t *testing.T) {
	b := mustBind(t, `program P;
function Half(x: real): real;
begin
  result := x / 2
end;
var r: real;
begin
  r := Half(3)
end.`)
	call := assignValue(t, mainBody(t, b)[0]).Data.(hir.CallData)
	if arg := call.Args[0]; !arg.IsConst() || arg.ConstValue().Real != 3 {
		t.Fatalf("argument = %s, want folded real 3", arg.Kind)
	}
}

const animals = `program Zoo;
type
  Animal = class
    function Speak: string; virtual;
  end;
  Dog = class(Animal)
    function Speak: string; override;
  end;
function Animal.Speak: string;
begin
  result := '...'
end;
function Dog.Speak: string;
begin
  result := 'Woof'
end;
var a: Animal; s: string;
begin
  a := new Dog;
  s := a.Speak
end.`

func TestVirtualCallThroughBase(t *testing.T) {
	b := mustBind(t, animals)
	body := mainBody(t, b)
	alloc := assignValue(t, body[0])
	if alloc.Kind != hir.ExprNewObject {
		t.Fatalf("new Dog bound as %s", alloc.Kind)
	}
	call, ok := assignValue(t, body[1]).Data.(hir.CallData)
	if !ok || call.Call != hir.CallVirtual {
		t.Fatalf("a.Speak is not a virtual call: %+v", call)
	}
	animal, _ := b.in.ClassByKey(types.ClassKey{Module: "zoo", Name: "animal"})
	dog, _ := b.in.ClassByKey(types.ClassKey{Module: "zoo", Name: "dog"})
	ai, _ := b.in.ClassInfo(animal)
	di, _ := b.in.ClassInfo(dog)
	if call.Slot != 0 || len(ai.VMT) != 1 || len(di.VMT) != 1 {
		t.Fatalf("slot = %d, vmt sizes %d/%d", call.Slot, len(ai.VMT), len(di.VMT))
	}
	if di.VMT[0].Routine == ai.VMT[0].Routine {
		t.Fatalf("override did not replace the inherited vmt entry")
	}
}

func TestBaseCallIsStatic(t *testing.T) {
	b := mustBind(t, `program P;
type
  A = class
    function Name: string; virtual;
  end;
  B = class(A)
    function Name: string; override;
  end;
function A.Name: string;
begin
  result := 'A'
end;
function B.Name: string;
begin
  result := base.Name + 'B'
end;
begin
end.`)
	var body []*hir.Stmt
	for _, r := range b.mod.Routines {
		if r.Name == "b.Name" {
			body = r.Body
		}
	}
	if len(body) != 1 {
		t.Fatalf("B.Name body not found")
	}
	concat := assignValue(t, body[0]).Data.(hir.BinaryData)
	call := concat.Left.Data.(hir.CallData)
	if call.Call != hir.CallStatic {
		t.Fatalf("base.Name call kind = %d, want static", call.Call)
	}
}

func TestMethodSeesFieldsBeforeGlobals(t *testing.T) {
	b := mustBind(t, `program P;
type Counter = class
  count: integer;
  procedure Bump;
end;
var count: string;
procedure Counter.Bump;
begin
  count := count + 1
end;
begin
end.`)
	for _, r := range b.mod.Routines {
		if r.Class == types.NoTypeID || len(r.Body) == 0 {
			continue
		}
		target := r.Body[0].Data.(hir.AssignData).Target
		if target.Kind != hir.ExprField {
			t.Fatalf("count resolved to %s, want the field", target.Kind)
		}
		return
	}
	t.Fatalf("method body not found")
}

func TestRoutineValue(t *testing.T) {
	b := mustBind(t, `program P;
type BinOp = function(a, b: integer): integer;
function Add(a, b: integer): integer;
begin
  result := a + b
end;
var op: BinOp; n: integer;
begin
  op := @Add;
  n := op(2, 3)
end.`)
	body := mainBody(t, b)
	if v := assignValue(t, body[0]); v.Kind != hir.ExprRoutine {
		t.Fatalf("@Add bound as %s", v.Kind)
	}
	if call := assignValue(t, body[1]).Data.(hir.CallData); call.Call != hir.CallIndirect {
		t.Fatalf("op(2, 3) call kind = %d, want indirect", call.Call)
	}
}

func TestUnitImport(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(32)
	rep := diag.BagReporter{Bag: bag}
	in := types.NewInterner()

	unitFile := parser.ParseFile(fs.Get(fs.AddVirtual("mathx.pas", []byte(`unit MathX;
interface
function Add(a, b: integer): integer;
implementation
function Add(a, b: integer): integer;
begin
  result := a + b
end;
end.`))), rep)
	unit, _ := Bind(unitFile, Options{Reporter: rep, Types: in})
	if bag.HasErrors() {
		t.Fatalf("unit: %v", bag.Items())
	}
	imp := &Import{Name: unit.Name, Kind: unit.Kind}
	for _, id := range unit.Exports {
		imp.Symbols = append(imp.Symbols, *unit.Symbols.Get(id))
	}

	progFile := parser.ParseFile(fs.Get(fs.AddVirtual("main.pas", []byte(`program Main;
uses MathX;
var n: integer;
begin
  n := MathX.Add(2, 3) + Add(1, 1)
end.`))), rep)
	prog, _ := Bind(progFile, Options{Reporter: rep, Types: in, Imports: map[string]*Import{"mathx": imp}})
	if bag.HasErrors() {
		t.Fatalf("program: %v", bag.Items())
	}
	sum := assignValue(t, prog.Routines[prog.Main].Body[0]).Data.(hir.BinaryData)
	call := sum.Left.Data.(hir.CallData)
	if call.Routine.Module != "mathx" {
		t.Fatalf("call target = %s, want mathx", call.Routine)
	}
}

func TestUnknownUnit(t *testing.T) {
	expectCode(t, `program P;
uses Nowhere;
begin
end.`, diag.ModUnknownModule)
}
