package types

// Compat is the outcome of an assignment-compatibility check. Overload
// resolution runs an exact pass before a widening pass.
type Compat uint8

const (
	Incompatible Compat = iota
	CompatWidening
	CompatExact
)

// Assignable implements the language compatibility rules:
//   - identical types are compatible;
//   - a class (or pointer to class) converts to any transitive base;
//   - integer widens to real, never the reverse;
//   - nil converts to pointers, classes, arrays and procedural types;
//   - a fixed array converts to a dynamic array of the same element type;
//   - char and string are distinct.
func (in *Interner) Assignable(from, to TypeID) Compat {
	if from == NoTypeID || to == NoTypeID {
		return Incompatible
	}
	if from == to {
		return CompatExact
	}
	ft, ok1 := in.Lookup(from)
	tt, ok2 := in.Lookup(to)
	if !ok1 || !ok2 {
		return Incompatible
	}
	switch {
	case ft.Kind == KindNil:
		if tt.IsReference() {
			return CompatExact
		}
	case ft.Kind == KindInt && tt.Kind == KindReal:
		return CompatWidening
	case ft.Kind == KindClass && tt.Kind == KindClass:
		if in.IsSubclass(from, to) {
			return CompatWidening
		}
	case ft.Kind == KindPointer && tt.Kind == KindPointer:
		if in.Kind(ft.Elem) == KindClass && in.IsSubclass(ft.Elem, tt.Elem) {
			return CompatWidening
		}
	case ft.Kind == KindPointer && tt.Kind == KindClass:
		// pointer-to-class and class values share the object-reference representation
		if in.Kind(ft.Elem) == KindClass && in.IsSubclass(ft.Elem, to) {
			return CompatWidening
		}
	case ft.Kind == KindClass && tt.Kind == KindPointer:
		if in.Kind(tt.Elem) == KindClass && in.IsSubclass(from, tt.Elem) {
			return CompatWidening
		}
	case ft.Kind == KindArray && tt.Kind == KindArray:
		if tt.IsDynamic() && ft.Elem == tt.Elem {
			return CompatWidening
		}
	}
	return Incompatible
}

// IsAssignable is the boolean form of Assignable.
func (in *Interner) IsAssignable(from, to TypeID) bool {
	return in.Assignable(from, to) != Incompatible
}

// Wider returns the result type of arithmetic on a and b: real dominates integer.
func (in *Interner) Wider(a, b TypeID) TypeID {
	if in.Kind(a) == KindReal || in.Kind(b) == KindReal {
		return in.builtins.Real
	}
	return in.builtins.Integer
}

// Comparable reports whether relational operators accept a and b.
func (in *Interner) Comparable(a, b TypeID, equality bool) bool {
	ta, tb := in.MustLookup(a), in.MustLookup(b)
	switch {
	case ta.IsNumeric() && tb.IsNumeric():
		return true
	case ta.Kind == tb.Kind && (ta.Kind == KindChar || ta.Kind == KindString || ta.Kind == KindBool):
		return true
	case ta.Kind == KindChar && tb.Kind == KindString, ta.Kind == KindString && tb.Kind == KindChar:
		return true
	case equality && ta.IsReference() && tb.IsReference():
		return in.IsAssignable(a, b) || in.IsAssignable(b, a)
	}
	return false
}
