package bytecode

import (
	"strings"
	"testing"

	"blaise/internal/value"
)

func TestValidate(t *testing.T) {
	good := Code{Blocks: []Block{
		{Instrs: []Instr{{Op: OpConst}, {Op: OpBranch, A: 1, B: 1}}},
		{Instrs: []Instr{{Op: OpReturn}}},
	}}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid code rejected: %v", err)
	}
	tests := []Code{
		{},
		{Blocks: []Block{{Instrs: []Instr{{Op: OpConst}}}}},
		{Blocks: []Block{{Instrs: []Instr{{Op: OpReturn}, {Op: OpReturn}}}}},
		{Blocks: []Block{{Instrs: []Instr{{Op: OpJump, A: 4}}}}},
	}
	for i, c := range tests {
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: invalid code accepted", i)
		}
	}
}

func TestPoolDeduplicates(t *testing.T) {
	var p Pool
	a := p.Const(value.Int(5))
	b := p.Const(value.Int(5))
	c := p.Const(value.String("5"))
	if a != b || a == c {
		t.Fatalf("const indexes %d %d %d", a, b, c)
	}
	if p.Call(RoutineRef{Module: "u", Index: 1}) != p.Call(RoutineRef{Module: "u", Index: 1}) {
		t.Fatalf("calls not deduplicated")
	}
	arr := Shape{Kind: ShapeArray, Len: 3, Elem: &Shape{Kind: ShapeInt}}
	if p.Shape(arr) != p.Shape(Shape{Kind: ShapeArray, Len: 3, Elem: &Shape{Kind: ShapeInt}}) {
		t.Fatalf("shapes not deduplicated")
	}
}

func TestPrint(t *testing.T) {
	var p Pool
	r := &Routine{Name: "add", Params: 2, Result: 2, Locals: make([]Shape, 3), Code: Code{Blocks: []Block{{Instrs: []Instr{
		{Op: OpLoadLocal, A: 0},
		{Op: OpLoadLocal, A: 1},
		{Op: OpAdd},
		{Op: OpStoreLocal, A: 2},
		{Op: OpConst, A: p.Const(value.String("hi"))},
		{Op: OpReturn, A: 1},
	}}}}}
	var sb strings.Builder
	if err := Print(&sb, r, &p); err != nil {
		t.Fatalf("print: %v", err)
	}
	out := sb.String()
	for _, want := range []string{"function add params=2 slots=3", "bb0:", "load.local 0", `"hi"`, "return 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("listing lacks %q:\n%s", want, out)
		}
	}
}
