package types

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Integer == NoTypeID || b.Real == NoTypeID || b.String == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	if got := in.Kind(b.Char); got != KindChar {
		t.Fatalf("expected char kind, got %v", got)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Integer
	if in.Array(elem, ArrayDynamicLength) != in.Array(elem, ArrayDynamicLength) {
		t.Fatalf("array types should be deduplicated")
	}
	if in.Array(elem, 3) == in.Array(elem, 4) {
		t.Fatalf("arrays of different length must differ")
	}
	if in.Pointer(elem) != in.Pointer(elem) {
		t.Fatalf("pointer types should be deduplicated")
	}
}

func TestClassesAreNominal(t *testing.T) {
	in := NewInterner()
	a := in.NewClass(ClassKey{Module: "m", Name: "a"})
	b := in.NewClass(ClassKey{Module: "m", Name: "b"})
	if a == b {
		t.Fatalf("distinct classes share a TypeID")
	}
	if id, ok := in.ClassByKey(ClassKey{Module: "m", Name: "b"}); !ok || id != b {
		t.Fatalf("ClassByKey = %v, %v", id, ok)
	}
}

func TestRoutineSignatures(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	f1 := in.Routine(Signature{Params: []TypeID{b.Integer, b.Integer}, Result: b.Boolean})
	f2 := in.Routine(Signature{Params: []TypeID{b.Integer, b.Integer}, Result: b.Boolean})
	p := in.Routine(Signature{Params: []TypeID{b.Integer, b.Integer}})
	if f1 != f2 {
		t.Fatalf("equal signatures should intern to one type")
	}
	if in.Kind(f1) != KindFunc || in.Kind(p) != KindProc {
		t.Fatalf("unexpected kinds %v %v", in.Kind(f1), in.Kind(p))
	}
	if got := in.String(f1); got != "function(integer; integer): boolean" {
		t.Fatalf("String = %q", got)
	}
}
