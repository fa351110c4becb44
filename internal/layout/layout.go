// Package layout computes class field slots and virtual method tables.
//
// A derived class starts from a copy of its base: inherited fields keep their
// offsets and new fields are appended, inherited vmt slots keep their
// positions, overrides replace the entry in place and every method declared
// virtual appends a fresh slot.
package layout

import (
	"slices"

	"blaise/internal/source"
	"blaise/internal/types"
)

// FieldSpec is a field as declared in a class body.
type FieldSpec struct {
	Name string
	Type types.TypeID
	Span source.Span
}

// MethodSpec is a method header as declared in a class body.
type MethodSpec struct {
	Name     string
	Kind     types.MethodKind
	Sig      types.Signature
	Virtual  bool
	Override bool
	Routine  types.RoutineRef
	Span     source.Span
}

// ClassDecl is the declaration-side input to LayoutClass. BaseName is
// non-empty when the source names a base; Base is NoTypeID when that name did
// not resolve to a type at all.
type ClassDecl struct {
	ID       types.TypeID
	BaseName string
	Base     types.TypeID
	Fields   []FieldSpec
	Methods  []MethodSpec
	Span     source.Span
}

// LayoutEngine lays out the classes of one unit. Classes from other units
// are expected to be laid out already.
type LayoutEngine struct {
	Types *types.Interner

	decls map[types.TypeID]*ClassDecl
	stack []types.TypeID
}

// New creates a LayoutEngine over the shared interner.
func New(typesIn *types.Interner) *LayoutEngine {
	return &LayoutEngine{
		Types: typesIn,
		decls: make(map[types.TypeID]*ClassDecl, 16),
	}
}

// Declare registers the declaration of a class so that bases can be laid
// out on demand regardless of source order.
func (e *LayoutEngine) Declare(decl *ClassDecl) {
	e.decls[decl.ID] = decl
}

// LayoutAll lays out every declared class in declaration-independent order
// and returns all failures.
func (e *LayoutEngine) LayoutAll(order []types.TypeID) []*LayoutError {
	var errs []*LayoutError
	for _, id := range order {
		if err := e.LayoutClass(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// LayoutClass computes fields and vmt of class id, laying out its base first.
func (e *LayoutEngine) LayoutClass(id types.TypeID) *LayoutError {
	info, ok := e.Types.ClassInfo(id)
	if !ok {
		return nil
	}
	switch info.State {
	case types.LayoutDone:
		return nil
	case types.LayoutInProgress:
		return &LayoutError{Kind: LayoutErrCyclicInheritance, Class: info.Key, Cycle: e.cycleFrom(id), Span: e.spanOf(id)}
	}
	decl := e.decls[id]
	if decl == nil {
		// imported classes arrive fully laid out
		info.State = types.LayoutDone
		return nil
	}
	info.State = types.LayoutInProgress
	e.stack = append(e.stack, id)
	defer func() { e.stack = e.stack[:len(e.stack)-1] }()

	var base *types.ClassInfo
	if decl.BaseName != "" {
		b, ok := e.Types.ClassInfo(decl.Base)
		if !ok {
			info.State = types.LayoutDone
			return &LayoutError{Kind: LayoutErrUnknownBase, Class: info.Key, Member: decl.BaseName, Span: decl.Span}
		}
		if err := e.LayoutClass(decl.Base); err != nil {
			info.State = types.LayoutDone
			return err
		}
		base = b
		info.Base = decl.Base
	}
	if err := e.fill(info, base, decl); err != nil {
		info.State = types.LayoutDone
		return err
	}
	info.State = types.LayoutDone
	return nil
}

func (e *LayoutEngine) fill(info, base *types.ClassInfo, decl *ClassDecl) *LayoutError {
	slots := 0
	if base != nil {
		slots = base.Slots
		info.VMT = slices.Clone(base.VMT)
	}
	info.Fields = info.Fields[:0]
	for _, f := range decl.Fields {
		if slices.ContainsFunc(info.Fields, func(x types.Field) bool { return x.Name == f.Name }) {
			return &LayoutError{Kind: LayoutErrDuplicateMember, Class: info.Key, Member: f.Name, Span: f.Span}
		}
		// Fields are never shadowed: one name, one slot along the chain.
		if base != nil {
			if _, inherited := e.Types.LookupField(decl.Base, f.Name); inherited {
				return &LayoutError{Kind: LayoutErrDuplicateMember, Class: info.Key, Member: f.Name, Span: f.Span}
			}
		}
		info.Fields = append(info.Fields, types.Field{Name: f.Name, Type: f.Type, Offset: slots, Owner: info.Type})
		slots++
	}
	info.Slots = slots

	info.Methods = info.Methods[:0]
	for _, m := range decl.Methods {
		sel := e.Types.SelectorOf(m.Name, m.Sig.Params)
		if slices.ContainsFunc(info.Methods, func(x types.Method) bool { return x.Selector == sel }) {
			return &LayoutError{Kind: LayoutErrDuplicateMember, Class: info.Key, Member: sel, Span: m.Span}
		}
		meth := types.Method{
			Name:     m.Name,
			Selector: sel,
			Kind:     m.Kind,
			Sig:      m.Sig,
			Virtual:  m.Virtual || m.Override,
			Override: m.Override,
			Slot:     -1,
			Routine:  m.Routine,
			Owner:    info.Type,
		}
		entry := types.VMTEntry{Selector: sel, Routine: m.Routine, Owner: info.Type}
		switch {
		case m.Override:
			slot, ok := info.VMTSlot(sel)
			if !ok || base == nil {
				return &LayoutError{Kind: LayoutErrBadOverride, Class: info.Key, Member: sel, Span: m.Span}
			}
			info.VMT[slot] = entry
			meth.Slot = slot
		case m.Virtual:
			meth.Slot = len(info.VMT)
			info.VMT = append(info.VMT, entry)
		}
		info.Methods = append(info.Methods, meth)
	}
	return nil
}

func (e *LayoutEngine) cycleFrom(id types.TypeID) []types.ClassKey {
	start := slices.Index(e.stack, id)
	if start < 0 {
		return nil
	}
	var keys []types.ClassKey
	for _, t := range e.stack[start:] {
		if info, ok := e.Types.ClassInfo(t); ok {
			keys = append(keys, info.Key)
		}
	}
	if info, ok := e.Types.ClassInfo(id); ok {
		keys = append(keys, info.Key)
	}
	return keys
}

func (e *LayoutEngine) spanOf(id types.TypeID) source.Span {
	if d := e.decls[id]; d != nil {
		return d.Span
	}
	return source.Span{}
}
