package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// ClassKey identifies a class across units.
type ClassKey struct {
	Module string
	Name   string
}

func (k ClassKey) String() string {
	return k.Module + "." + k.Name
}

// LayoutState tracks class layout progress; InProgress is the marker used
// to detect cyclic inheritance.
type LayoutState uint8

const (
	LayoutPending LayoutState = iota
	LayoutInProgress
	LayoutDone
)

// RoutineRef names compiled code: routine Index inside unit Module.
type RoutineRef struct {
	Module string
	Index  int
}

func (r RoutineRef) String() string {
	return fmt.Sprintf("%s#%d", r.Module, r.Index)
}

// Field is a data member. Offset is the slot index inside the object,
// counted from the root of the hierarchy.
type Field struct {
	Name   string
	Type   TypeID
	Offset int
	Owner  TypeID
}

// MethodKind distinguishes procedures, functions and constructors.
type MethodKind uint8

const (
	MethodProcedure MethodKind = iota + 1
	MethodFunction
	MethodConstructor
)

// Method is a routine declared in a class body.
type Method struct {
	Name     string
	Selector string
	Kind     MethodKind
	Sig      Signature
	Virtual  bool // occupies a vmt slot (declared virtual or override)
	Override bool
	Slot     int // vmt slot, -1 for static methods
	Routine  RoutineRef
	Owner    TypeID
}

// VMTEntry binds a selector to the most-derived implementation.
type VMTEntry struct {
	Selector string
	Routine  RoutineRef
	Owner    TypeID
}

// ClassInfo is the class side table entry.
type ClassInfo struct {
	Key     ClassKey
	Type    TypeID
	Base    TypeID // NoTypeID for root classes
	Fields  []Field
	Methods []Method
	VMT     []VMTEntry
	Slots   int // total field slots including inherited ones
	State   LayoutState
}

// NewClass registers a nominal class with pending layout.
func (in *Interner) NewClass(key ClassKey) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	n, err := safecast.Conv[uint32](len(in.classes))
	if err != nil {
		panic(fmt.Errorf("class table overflow: %w", err))
	}
	id := in.internLocked(Type{Kind: KindClass, Payload: n})
	in.classes = append(in.classes, &ClassInfo{Key: key, Type: id})
	in.byName[key] = id
	return id
}

// ClassInfo returns metadata for a class type.
func (in *Interner) ClassInfo(id TypeID) (*ClassInfo, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return nil, false
	}
	t := in.types[id]
	if t.Kind != KindClass || int(t.Payload) >= len(in.classes) {
		return nil, false
	}
	return in.classes[t.Payload], true
}

// ClassByKey finds a class registered under key.
func (in *Interner) ClassByKey(key ClassKey) (TypeID, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	id, ok := in.byName[key]
	return id, ok
}

// ClassOf returns the class behind a class type or a pointer to a class.
func (in *Interner) ClassOf(id TypeID) (*ClassInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok {
		return nil, false
	}
	if t.Kind == KindPointer {
		return in.ClassInfo(t.Elem)
	}
	return in.ClassInfo(id)
}

// IsSubclass reports whether class sub equals base or derives from it.
func (in *Interner) IsSubclass(sub, base TypeID) bool {
	for cur := sub; cur != NoTypeID; {
		if cur == base {
			return true
		}
		info, ok := in.ClassInfo(cur)
		if !ok {
			return false
		}
		cur = info.Base
	}
	return false
}

// Chain returns the class followed by its bases, most-derived first.
func (in *Interner) Chain(id TypeID) []*ClassInfo {
	var out []*ClassInfo
	for cur := id; cur != NoTypeID; {
		info, ok := in.ClassInfo(cur)
		if !ok {
			break
		}
		out = append(out, info)
		cur = info.Base
	}
	return out
}

// LookupField searches the class and its bases.
func (in *Interner) LookupField(class TypeID, name string) (Field, bool) {
	for _, info := range in.Chain(class) {
		for _, f := range info.Fields {
			if f.Name == name {
				return f, true
			}
		}
	}
	return Field{}, false
}

// LookupMethods returns every method named name visible from class, in
// declaration order, most-derived class first. A base method whose selector
// is redeclared further down is shadowed and omitted.
func (in *Interner) LookupMethods(class TypeID, name string) []Method {
	var out []Method
	seen := make(map[string]struct{})
	for _, info := range in.Chain(class) {
		for _, m := range info.Methods {
			if m.Name != name {
				continue
			}
			if _, dup := seen[m.Selector]; dup {
				continue
			}
			seen[m.Selector] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}

// VMTSlot returns the slot of selector in the class vmt.
func (info *ClassInfo) VMTSlot(selector string) (int, bool) {
	idx := slices.IndexFunc(info.VMT, func(e VMTEntry) bool { return e.Selector == selector })
	return idx, idx >= 0
}

// SelectorOf builds the dispatch selector "name(T1,T2)" used to match
// overrides. Result types are not part of the selector.
func (in *Interner) SelectorOf(name string, params []TypeID) string {
	s := name + "("
	for i, p := range params {
		if i > 0 {
			s += ","
		}
		s += in.String(p)
	}
	return s + ")"
}
