package module

import (
	"fmt"

	"blaise/internal/bytecode"
	"blaise/internal/symbols"
	"blaise/internal/types"
)

// TypeDesc is an interner-independent description of a type. Classes are
// referenced by key and must be registered before decoding.
type TypeDesc struct {
	Kind   types.Kind         `msgpack:"k"`
	Elem   *TypeDesc          `msgpack:"e,omitempty"`
	Count  uint32             `msgpack:"n,omitempty"`
	Class  *bytecode.ClassRef `msgpack:"c,omitempty"`
	Params []TypeDesc         `msgpack:"p,omitempty"`
	Result *TypeDesc          `msgpack:"r,omitempty"`
}

// EncodeType describes id. NoTypeID encodes to nil.
func EncodeType(in *types.Interner, id types.TypeID) *TypeDesc {
	if id == types.NoTypeID {
		return nil
	}
	t, ok := in.Lookup(id)
	if !ok {
		return nil
	}
	d := &TypeDesc{Kind: t.Kind}
	switch t.Kind {
	case types.KindPointer:
		d.Elem = EncodeType(in, t.Elem)
	case types.KindArray:
		d.Elem = EncodeType(in, t.Elem)
		d.Count = t.Count
	case types.KindClass:
		if info, ok := in.ClassInfo(id); ok {
			d.Class = &bytecode.ClassRef{Module: info.Key.Module, Name: info.Key.Name}
		}
	case types.KindProc, types.KindFunc:
		sig, _ := in.Signature(id)
		d.Params, d.Result = encodeSig(in, sig)
	}
	return d
}

func encodeSig(in *types.Interner, sig types.Signature) ([]TypeDesc, *TypeDesc) {
	var params []TypeDesc
	for _, p := range sig.Params {
		if d := EncodeType(in, p); d != nil {
			params = append(params, *d)
		}
	}
	return params, EncodeType(in, sig.Result)
}

// DecodeType interns the type described by d.
func DecodeType(in *types.Interner, d *TypeDesc) (types.TypeID, error) {
	if d == nil {
		return types.NoTypeID, nil
	}
	b := in.Builtins()
	switch d.Kind {
	case types.KindVoid:
		return b.Void, nil
	case types.KindNil:
		return b.Nil, nil
	case types.KindBool:
		return b.Boolean, nil
	case types.KindInt:
		return b.Integer, nil
	case types.KindReal:
		return b.Real, nil
	case types.KindChar:
		return b.Char, nil
	case types.KindString:
		return b.String, nil
	case types.KindPointer:
		elem, err := DecodeType(in, d.Elem)
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Pointer(elem), nil
	case types.KindArray:
		elem, err := DecodeType(in, d.Elem)
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Array(elem, d.Count), nil
	case types.KindClass:
		if d.Class == nil {
			return types.NoTypeID, fmt.Errorf("class type without reference: %w", ErrCorruptUnit)
		}
		id, ok := in.ClassByKey(types.ClassKey{Module: d.Class.Module, Name: d.Class.Name})
		if !ok {
			return types.NoTypeID, fmt.Errorf("class %s.%s is not loaded", d.Class.Module, d.Class.Name)
		}
		return id, nil
	case types.KindProc, types.KindFunc:
		sig, err := decodeSig(in, d.Params, d.Result)
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Routine(sig), nil
	}
	return types.NoTypeID, fmt.Errorf("unknown type kind %d: %w", d.Kind, ErrCorruptUnit)
}

func decodeSig(in *types.Interner, params []TypeDesc, result *TypeDesc) (types.Signature, error) {
	var sig types.Signature
	for i := range params {
		id, err := DecodeType(in, &params[i])
		if err != nil {
			return types.Signature{}, err
		}
		sig.Params = append(sig.Params, id)
	}
	res, err := DecodeType(in, result)
	if err != nil {
		return types.Signature{}, err
	}
	sig.Result = res
	return sig, nil
}

// EncodeSymbol describes a unit-scope symbol.
func EncodeSymbol(in *types.Interner, sym *symbols.Symbol) SymbolDesc {
	d := SymbolDesc{
		Name:    sym.Name,
		Display: sym.Display,
		Kind:    sym.Kind,
		Flags:   sym.Flags &^ symbols.SymbolFlagImported,
		Type:    EncodeType(in, sym.Type),
		Const:   sym.Const,
		Slot:    sym.Slot,
		Routine: sym.Routine,
		Native:  sym.Native,
		Start:   sym.Span.Start,
		End:     sym.Span.End,
	}
	if sym.Class != types.NoTypeID {
		if info, ok := in.ClassInfo(sym.Class); ok {
			d.Class = &bytecode.ClassRef{Module: info.Key.Module, Name: info.Key.Name}
		}
	}
	if sym.Kind.IsRoutine() {
		d.Params, d.Result = encodeSig(in, sym.Sig)
	}
	return d
}

// DecodeSymbol rebuilds a symbol declared by unit.
func (u *Unit) DecodeSymbol(in *types.Interner, d *SymbolDesc) (symbols.Symbol, error) {
	typ, err := DecodeType(in, d.Type)
	if err != nil {
		return symbols.Symbol{}, fmt.Errorf("%s.%s: %w", u.Name, d.Name, err)
	}
	sym := symbols.Symbol{
		Name:    d.Name,
		Display: d.Display,
		Kind:    d.Kind,
		Flags:   d.Flags,
		Type:    typ,
		Module:  u.Name,
		Const:   d.Const,
		Slot:    d.Slot,
		Routine: d.Routine,
		Native:  d.Native,
	}
	sym.Span.File = u.File
	sym.Span.Start, sym.Span.End = d.Start, d.End
	if d.Class != nil {
		id, ok := in.ClassByKey(types.ClassKey{Module: d.Class.Module, Name: d.Class.Name})
		if !ok {
			return symbols.Symbol{}, fmt.Errorf("%s.%s: class %s is not loaded", u.Name, d.Name, d.Class.Name)
		}
		sym.Class = id
	}
	if d.Kind.IsRoutine() {
		sig, err := decodeSig(in, d.Params, d.Result)
		if err != nil {
			return symbols.Symbol{}, fmt.Errorf("%s.%s: %w", u.Name, d.Name, err)
		}
		sym.Sig = sig
	}
	return sym, nil
}

func classRef(in *types.Interner, id types.TypeID) bytecode.ClassRef {
	info, ok := in.ClassInfo(id)
	if !ok {
		return bytecode.ClassRef{}
	}
	return bytecode.ClassRef{Module: info.Key.Module, Name: info.Key.Name}
}

// EncodeClass describes a laid-out class. shapeOf maps a field type to its
// storage shape; it is supplied by the code generator.
func EncodeClass(in *types.Interner, id types.TypeID, shapeOf func(types.TypeID) bytecode.Shape) (ClassDesc, error) {
	info, ok := in.ClassInfo(id)
	if !ok {
		return ClassDesc{}, fmt.Errorf("type %d is not a class", id)
	}
	if info.State != types.LayoutDone {
		return ClassDesc{}, fmt.Errorf("class %s is not laid out", info.Key)
	}
	d := ClassDesc{Name: info.Key.Name, Slots: info.Slots}
	if info.Base != types.NoTypeID {
		ref := classRef(in, info.Base)
		d.Base = &ref
	}
	for _, f := range info.Fields {
		td := EncodeType(in, f.Type)
		if td == nil {
			return ClassDesc{}, fmt.Errorf("class %s: field %s has no type", info.Key, f.Name)
		}
		d.Fields = append(d.Fields, FieldDesc{Name: f.Name, Type: *td, Offset: f.Offset})
	}
	for _, m := range info.Methods {
		params, result := encodeSig(in, m.Sig)
		d.Methods = append(d.Methods, MethodDesc{
			Name:     m.Name,
			Selector: m.Selector,
			Kind:     uint8(m.Kind),
			Params:   params,
			Result:   result,
			Virtual:  m.Virtual,
			Override: m.Override,
			Slot:     m.Slot,
			Routine:  bytecode.RoutineRef{Module: m.Routine.Module, Index: m.Routine.Index},
		})
	}
	for _, e := range info.VMT {
		d.VMT = append(d.VMT, VMTDesc{
			Selector: e.Selector,
			Routine:  bytecode.RoutineRef{Module: e.Routine.Module, Index: e.Routine.Index},
			Owner:    classRef(in, e.Owner),
		})
	}
	d.FieldShapes = make([]bytecode.Shape, info.Slots)
	for _, c := range in.Chain(id) {
		for _, f := range c.Fields {
			if f.Offset >= 0 && f.Offset < len(d.FieldShapes) {
				d.FieldShapes[f.Offset] = shapeOf(f.Type)
			}
		}
	}
	return d, nil
}

// fillClass restores a registered class from its descriptor.
func (u *Unit) fillClass(in *types.Interner, id types.TypeID, d *ClassDesc) error {
	info, _ := in.ClassInfo(id)
	lookup := func(ref bytecode.ClassRef) (types.TypeID, error) {
		cid, ok := in.ClassByKey(types.ClassKey{Module: ref.Module, Name: ref.Name})
		if !ok {
			return types.NoTypeID, fmt.Errorf("class %s.%s is not loaded", ref.Module, ref.Name)
		}
		return cid, nil
	}
	if d.Base != nil {
		base, err := lookup(*d.Base)
		if err != nil {
			return err
		}
		info.Base = base
	}
	info.Fields = info.Fields[:0]
	for _, f := range d.Fields {
		typ, err := DecodeType(in, &f.Type)
		if err != nil {
			return err
		}
		info.Fields = append(info.Fields, types.Field{Name: f.Name, Type: typ, Offset: f.Offset, Owner: id})
	}
	info.Methods = info.Methods[:0]
	for _, m := range d.Methods {
		sig, err := decodeSig(in, m.Params, m.Result)
		if err != nil {
			return err
		}
		info.Methods = append(info.Methods, types.Method{
			Name:     m.Name,
			Selector: m.Selector,
			Kind:     types.MethodKind(m.Kind),
			Sig:      sig,
			Virtual:  m.Virtual,
			Override: m.Override,
			Slot:     m.Slot,
			Routine:  types.RoutineRef{Module: m.Routine.Module, Index: m.Routine.Index},
			Owner:    id,
		})
	}
	info.VMT = info.VMT[:0]
	for _, e := range d.VMT {
		owner, err := lookup(e.Owner)
		if err != nil {
			return err
		}
		info.VMT = append(info.VMT, types.VMTEntry{
			Selector: e.Selector,
			Routine:  types.RoutineRef{Module: e.Routine.Module, Index: e.Routine.Index},
			Owner:    owner,
		})
	}
	info.Slots = d.Slots
	info.State = types.LayoutDone
	return nil
}
