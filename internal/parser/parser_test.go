package parser

import (
	"testing"

	"blaise/internal/ast"
	"blaise/internal/diag"
	"blaise/internal/source"
)

func parse(t *testing.T, src string) (*ast.File, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.pas", []byte(src))
	bag := diag.NewBag(16)
	return ParseFile(fs.Get(id), diag.BagReporter{Bag: bag}), bag
}

func mustParse(t *testing.T, src string) *ast.File {
	t.Helper()
	f, bag := parse(t, src)
	if f == nil || bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	return f
}

func TestParseProgram(t *testing.T) {
	f := mustParse(t, `program Hello;
uses Strs, MathX;
const N = 10;
var i: integer;
begin
  for i := 1 to N do
    writeln(i)
end.`)
	if f.Kind != ast.FileProgram || f.Name.Name != "hello" || f.Name.Text != "Hello" {
		t.Fatalf("header = %s %q", f.Kind, f.Name.Text)
	}
	if len(f.Uses) != 2 || f.Uses[1].Name.Name != "mathx" {
		t.Fatalf("uses = %+v", f.Uses)
	}
	if len(f.Implementation) != 2 {
		t.Fatalf("decls = %d, want 2", len(f.Implementation))
	}
	loop, ok := f.Body.Stmts[0].(*ast.ForStmt)
	if !ok || loop.Downto {
		t.Fatalf("body[0] = %T", f.Body.Stmts[0])
	}
	if _, ok := loop.Body.(*ast.CallStmt); !ok {
		t.Fatalf("loop body = %T, want call", loop.Body)
	}
}

func TestParseUnitParts(t *testing.T) {
	f := mustParse(t, `unit Shapes;
interface
type Shape = class
  function Area: real; virtual;
end;
function Make: Shape;
implementation
function Shape.Area: real;
begin
  result := 0
end;
function Make: Shape;
begin
  result := new Shape
end;
initialization
  Make()
end.`)
	if f.Kind != ast.FileUnit || len(f.Interface) != 2 || len(f.Implementation) != 2 {
		t.Fatalf("unit parts = %d/%d", len(f.Interface), len(f.Implementation))
	}
	if rd := f.Interface[1].(*ast.RoutineDecl); rd.Body != nil {
		t.Fatalf("interface routine has a body")
	}
	impl := f.Implementation[0].(*ast.RoutineDecl)
	if impl.Header.Class == nil || impl.Header.Class.Name != "shape" {
		t.Fatalf("qualified method header not recognised")
	}
	if f.Body == nil || len(f.Body.Stmts) != 1 {
		t.Fatalf("initialization block missing")
	}
}

func TestParseClassDirectives(t *testing.T) {
	f := mustParse(t, `program P;
type Dog = class(Animal)
  name: string;
  constructor Create(n: string);
  function Speak: string; override;
  procedure Wag; virtual;
end;
begin
end.`)
	ct := f.Implementation[0].(*ast.TypeDecl).Type.(*ast.ClassType)
	if ct.Base == nil || ct.Base.Name.Name != "animal" {
		t.Fatalf("base = %+v", ct.Base)
	}
	if len(ct.Members) != 4 {
		t.Fatalf("members = %d, want 4", len(ct.Members))
	}
	if ct.Members[1].Method.Kind != ast.RoutineConstructor {
		t.Fatalf("member 1 kind = %s", ct.Members[1].Method.Kind)
	}
	if ct.Members[2].Method.Directives&ast.DirOverride == 0 {
		t.Fatalf("override directive lost")
	}
	if ct.Members[3].Method.Directives&ast.DirVirtual == 0 {
		t.Fatalf("virtual directive lost")
	}
}

func TestParsePrecedence(t *testing.T) {
	f := mustParse(t, `program P;
begin
  x := 1 + 2 * 3 = 7
end.`)
	as := f.Body.Stmts[0].(*ast.AssignStmt)
	eq, ok := as.Value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("value = %T", as.Value)
	}
	sum := eq.Left.(*ast.BinaryExpr)
	if _, ok := sum.Right.(*ast.BinaryExpr); !ok {
		t.Fatalf("multiplication does not bind tighter than addition")
	}
}

func TestParsePostfixChain(t *testing.T) {
	f := mustParse(t, `program P;
begin
  p^.items[i].Show(1, 'a')
end.`)
	call := f.Body.Stmts[0].(*ast.CallStmt).Call.(*ast.CallExpr)
	if len(call.Args) != 2 {
		t.Fatalf("args = %d", len(call.Args))
	}
	member := call.Callee.(*ast.MemberExpr)
	idx := member.X.(*ast.IndexExpr)
	items := idx.X.(*ast.MemberExpr)
	if _, ok := items.X.(*ast.DerefExpr); !ok {
		t.Fatalf("p^ not parsed as deref: %T", items.X)
	}
}

func TestParseNewForms(t *testing.T) {
	f := mustParse(t, `program P;
begin
  a := new integer[5];
  d := new Dog('rex');
  c := new Cat
end.`)
	arr := f.Body.Stmts[0].(*ast.AssignStmt).Value.(*ast.NewExpr)
	if arr.Size == nil {
		t.Fatalf("array size missing")
	}
	dog := f.Body.Stmts[1].(*ast.AssignStmt).Value.(*ast.NewExpr)
	if len(dog.Args) != 1 {
		t.Fatalf("constructor args = %d", len(dog.Args))
	}
	cat := f.Body.Stmts[2].(*ast.AssignStmt).Value.(*ast.NewExpr)
	if cat.Args != nil || cat.Size != nil {
		t.Fatalf("bare new parsed with extras")
	}
}

func TestParseCase(t *testing.T) {
	f := mustParse(t, `program P;
begin
  case n of
    1, 2: writeln('low');
    3: ;
  else
    writeln('high')
  end
end.`)
	cs := f.Body.Stmts[0].(*ast.CaseStmt)
	if len(cs.Arms) != 2 || len(cs.Arms[0].Labels) != 2 || len(cs.Else) != 1 {
		t.Fatalf("case = %d arms, %d else", len(cs.Arms), len(cs.Else))
	}
}

func TestSyntaxErrorStopsParse(t *testing.T) {
	f, bag := parse(t, `program P;
begin
  x := (1 + 
end.`)
	if f != nil {
		t.Fatalf("expected nil file on syntax error")
	}
	if !bag.HasErrors() {
		t.Fatalf("expected a diagnostic")
	}
}

func TestMissingHeader(t *testing.T) {
	_, bag := parse(t, `begin end.`)
	if !bag.HasCode(diag.SynBadHeader) {
		t.Fatalf("expected BadHeader, got %v", bag.Items())
	}
}
