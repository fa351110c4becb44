package types

import "testing"

func chain(t *testing.T, in *Interner, names ...string) []TypeID {
	t.Helper()
	ids := make([]TypeID, len(names))
	for i, n := range names {
		ids[i] = in.NewClass(ClassKey{Module: "m", Name: n})
		if i > 0 {
			info, _ := in.ClassInfo(ids[i])
			info.Base = ids[i-1]
		}
	}
	return ids
}

func TestAssignableReflexive(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	cls := chain(t, in, "a")
	ids := []TypeID{b.Boolean, b.Integer, b.Real, b.Char, b.String,
		in.Pointer(b.Integer), in.Array(b.Real, 4), cls[0],
		in.Routine(Signature{Params: []TypeID{b.Integer}})}
	for _, id := range ids {
		if in.Assignable(id, id) != CompatExact {
			t.Fatalf("%s not assignable to itself", in.String(id))
		}
	}
}

func TestAssignableClassChainTransitive(t *testing.T) {
	in := NewInterner()
	ids := chain(t, in, "base", "derived", "morederived")
	base, derived, more := ids[0], ids[1], ids[2]
	if !in.IsAssignable(derived, base) || !in.IsAssignable(more, derived) {
		t.Fatalf("direct base conversion rejected")
	}
	if !in.IsAssignable(more, base) {
		t.Fatalf("transitive base conversion rejected")
	}
	if in.IsAssignable(base, more) {
		t.Fatalf("downcast accepted")
	}
	if !in.IsAssignable(in.Pointer(more), in.Pointer(base)) {
		t.Fatalf("pointer covariance rejected")
	}
	if !in.IsAssignable(more, in.Pointer(base)) {
		t.Fatalf("object reference to base pointer rejected")
	}
}

func TestAssignablePrimitives(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	tests := []struct {
		from, to TypeID
		want     Compat
	}{
		{b.Integer, b.Real, CompatWidening},
		{b.Real, b.Integer, Incompatible},
		{b.Char, b.String, Incompatible},
		{b.String, b.Char, Incompatible},
		{b.Nil, in.Pointer(b.Integer), CompatExact},
		{b.Nil, in.Array(b.Integer, ArrayDynamicLength), CompatExact},
		{b.Nil, b.Integer, Incompatible},
		{in.Array(b.Integer, 3), in.Array(b.Integer, ArrayDynamicLength), CompatWidening},
		{in.Array(b.Integer, 3), in.Array(b.Integer, 4), Incompatible},
	}
	for _, tt := range tests {
		if got := in.Assignable(tt.from, tt.to); got != tt.want {
			t.Errorf("Assignable(%s, %s) = %v, want %v", in.String(tt.from), in.String(tt.to), got, tt.want)
		}
	}
}
